package health

import (
	"net/http"

	"github.com/noah-isme/backend-irnby/internal/common"
)

// Checker reports whether a dependency is ready to serve.
type Checker struct {
	Name  string
	Check func() error
}

// Handler exposes liveness and readiness probes.
type Handler struct {
	Checks []Checker
}

// Live always reports ok while the process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready runs the registered dependency checks and reports per-check status.
// Any failure degrades the response to 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}
	for _, c := range h.Checks {
		if err := c.Check(); err != nil {
			checks[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	common.JSON(w, status, body)
}
