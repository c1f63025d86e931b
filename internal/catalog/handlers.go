package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-irnby/internal/common"
)

// Handler wires the catalog service to HTTP.
type Handler struct {
	Svc Service
}

// Courses lists the catalog with optional filtering and sorting.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	list := h.Svc.List(Query{
		Search:   params.Get("q"),
		Category: params.Get("category"),
		Level:    params.Get("level"),
		Sort:     params.Get("sort"),
	})
	common.JSON(w, http.StatusOK, map[string]any{"data": list})
}

// CourseDetail returns a single course by id.
func (h *Handler) CourseDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "courseId")
	course, err := h.Svc.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "course not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load course", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": course})
}
