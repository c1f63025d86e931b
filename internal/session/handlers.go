package session

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/common"
)

// Handler implements the mock authentication and wishlist endpoints. Any
// email logs in successfully, credentials are never checked. Demo purchase
// history is seeded on login so the account pages have content.
type Handler struct {
	Store  *CookieStore
	Logger zerolog.Logger

	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(store *CookieStore, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

type credentials struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	u := User{
		ID:              uuid.NewString(),
		Email:           creds.Email,
		Name:            displayName(creds),
		IsAuthenticated: true,
		Purchases:       seedPurchases(h.now()),
		Wishlist:        []string{"funkcionalnyj-trening"},
	}
	h.persist(w, r, u)
}

// Register handles POST /auth/register. Same mock flow as login but with an
// empty account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	u := User{
		ID:              uuid.NewString(),
		Email:           creds.Email,
		Name:            displayName(creds),
		IsAuthenticated: true,
		Purchases:       []PurchaseRef{},
		Wishlist:        []string{},
	}
	h.persist(w, r, u)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Store.Clear(w)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"loggedOut": true}})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := h.load(r)
	common.JSON(w, http.StatusOK, map[string]any{"data": u})
}

// History handles GET /orders/history, the purchase list embedded in the
// session snapshot.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	u := h.load(r)
	if u.Purchases == nil {
		u.Purchases = []PurchaseRef{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": u.Purchases})
}

// Wishlist handles GET /wishlist.
func (h *Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	u := h.load(r)
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": u.Wishlist})
}

// WishlistAdd handles POST /wishlist/{courseId}.
func (h *Handler) WishlistAdd(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "courseId is required", nil)
		return
	}
	u := h.load(r)
	if !u.InWishlist(courseID) {
		u.Wishlist = append(u.Wishlist, courseID)
	}
	h.persist(w, r, u)
}

// WishlistRemove handles DELETE /wishlist/{courseId}.
func (h *Handler) WishlistRemove(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	u := h.load(r)
	kept := u.Wishlist[:0]
	for _, id := range u.Wishlist {
		if id != courseID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	h.persist(w, r, u)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "request body must be valid JSON", nil)
		return credentials{}, false
	}
	if err := h.validate.Struct(creds); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "a valid email is required", nil)
		return credentials{}, false
	}
	return creds, true
}

func (h *Handler) load(r *http.Request) User {
	u, err := h.Store.Load(r)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("reset corrupt session snapshot")
		return User{}
	}
	return u
}

func (h *Handler) persist(w http.ResponseWriter, r *http.Request, u User) {
	if err := h.Store.Save(w, u); err != nil {
		h.Logger.Error().Err(err).Msg("persist session snapshot")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to persist session", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": u})
}

func displayName(creds credentials) string {
	if creds.Name != "" {
		return creds.Name
	}
	local, _, _ := strings.Cut(creds.Email, "@")
	return local
}

// seedPurchases returns the demo purchase history attached to every login.
func seedPurchases(now time.Time) []PurchaseRef {
	return []PurchaseRef{
		{CourseID: "zhiroszhiganie1", OrderID: "ord_123456", PurchaseDate: now.AddDate(0, -1, 0)},
		{CourseID: "dlya-zala1", OrderID: "ord_789012", PurchaseDate: now.AddDate(0, 0, -14)},
	}
}
