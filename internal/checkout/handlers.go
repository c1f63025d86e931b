package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/obs"
	"github.com/noah-isme/backend-irnby/internal/payment"
)

// Handler exposes POST /checkout/session.
type Handler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// CreateSession validates the request, builds a hosted checkout session and
// returns its id and redirect URL. Provider failures are reported as a
// generic 502 so gateway error details never leak to browsers.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		countSession("error")
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "request body must be valid JSON", nil)
		return
	}

	sess, err := h.Svc.Build(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	countSession("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"sessionId": sess.ID,
		"url":       sess.URL,
	}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		countSession("invalid")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, payment.ErrNotConfigured):
		countSession("unconfigured")
		common.JSONError(w, http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE", "payment provider is not configured", nil)
	default:
		h.Logger.Error().Err(err).Msg("checkout session creation failed")
		countSession("error")
		common.JSONError(w, http.StatusBadGateway, "PROVIDER_ERROR", "unable to create checkout session", nil)
	}
}

func countSession(result string) {
	if obs.CheckoutSessionTotal != nil {
		obs.CheckoutSessionTotal.WithLabelValues("payment", result).Inc()
	}
}
