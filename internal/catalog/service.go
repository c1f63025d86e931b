package catalog

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound indicates the requested course does not exist.
var ErrNotFound = errors.New("course not found")

// Query filters and sorts the course listing.
type Query struct {
	Search   string
	Category string
	Level    string
	Sort     string
}

// Service exposes read access to the static course catalog.
type Service struct{}

// List returns courses matching the query. Featured courses come first under
// the default ordering, mirroring the storefront landing page.
func (s Service) List(q Query) []Course {
	out := make([]Course, 0, len(courses))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, c := range courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		if q.Category != "" && !hasCategory(c, q.Category) {
			continue
		}
		if q.Level != "" && !strings.EqualFold(c.Level, q.Level) {
			continue
		}
		out = append(out, c)
	}
	sortCourses(out, q.Sort)
	return out
}

// Get looks up a single course by id.
func (s Service) Get(id string) (Course, error) {
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return Course{}, ErrNotFound
}

func hasCategory(c Course, category string) bool {
	for _, el := range c.Categories {
		if strings.EqualFold(el, category) {
			return true
		}
	}
	return false
}

func sortCourses(list []Course, key string) {
	switch key {
	case "price-asc":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case "price-desc":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	case "rating":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Rating > list[j].Rating })
	default:
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Featured != list[j].Featured {
				return list[i].Featured
			}
			return false
		})
	}
}
