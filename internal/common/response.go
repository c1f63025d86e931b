package common

import (
	"encoding/json"
	"net/http"
)

// errorBody is the failure envelope every handler returns. The code is
// stable for clients to branch on; details carry optional structure.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON marshals v and writes it with the given status. The body is encoded
// before the status line goes out, so an encoding failure never leaves a
// half-written success response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	buf, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL","message":"response encoding failed"}}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// JSONError writes the canonical failure envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{"error": errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
