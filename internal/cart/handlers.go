package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/obs"
)

// Handler wires the cart service and storage port to HTTP.
type Handler struct {
	Store  Store
	Svc    *Service
	Logger zerolog.Logger
}

// Get returns the current cart contents and totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	st := h.loadState(r)
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(st)})
}

// AddItem adds a course to the cart or increments its quantity.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		CourseID string `json:"courseId"`
		Title    string `json:"title"`
		Price    int64  `json:"price"`
		Image    string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	st := h.loadState(r)
	err := h.Svc.AddItem(&st, Item{
		CourseID: strings.TrimSpace(payload.CourseID),
		Title:    payload.Title,
		Price:    payload.Price,
		Image:    payload.Image,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.persist(w, st, "add")
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(st)})
}

// UpdateItem sets the quantity for a cart line. Quantity zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	courseID := chi.URLParam(r, "courseId")
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	st := h.loadState(r)
	h.Svc.UpdateQuantity(&st, courseID, payload.Quantity)
	h.persist(w, st, "update")
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(st)})
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	courseID := chi.URLParam(r, "courseId")
	st := h.loadState(r)
	h.Svc.RemoveItem(&st, courseID)
	h.persist(w, st, "remove")
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(st)})
}

// Clear empties the cart and expires the snapshot cookie.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	st := State{}
	h.Store.Clear(w)
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues("clear").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(st)})
}

// loadState reads the persisted snapshot, falling back to an empty cart when
// the snapshot is corrupt. The failure is logged, never surfaced.
func (h *Handler) loadState(r *http.Request) State {
	st, err := h.Store.Load(r)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("reset corrupt cart snapshot")
		return State{}
	}
	return st
}

func (h *Handler) persist(w http.ResponseWriter, st State, op string) {
	if err := h.Store.Save(w, st); err != nil {
		h.Logger.Error().Err(err).Msg("persist cart snapshot")
	}
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op).Inc()
	}
}

func (h *Handler) render(st State) map[string]any {
	lines := st.Lines
	if lines == nil {
		lines = []Line{}
	}
	view := map[string]any{
		"items":          lines,
		"totalItems":     h.Svc.TotalItems(st),
		"totalPrice":     h.Svc.TotalPrice(st),
		"discountAmount": h.Svc.DiscountAmount(st),
		"finalPrice":     h.Svc.FinalPrice(st),
	}
	if tier, ok := h.Svc.ApplicableTier(st); ok {
		view["discount"] = map[string]any{
			"threshold":   tier.Threshold,
			"percentage":  tier.Percentage,
			"description": tier.Description,
		}
	} else {
		view["discount"] = nil
	}
	return view
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
