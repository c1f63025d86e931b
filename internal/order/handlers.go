package order

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-irnby/internal/common"
)

// Handler exposes the read side of the order ledger.
type Handler struct {
	Svc *Service
}

// List handles GET /orders?userId=... and returns the user's purchases.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId is required", nil)
		return
	}
	purchases := h.Svc.List(userID)
	if purchases == nil {
		purchases = []Purchase{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": purchases})
}
