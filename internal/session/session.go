package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultCookieName matches the storefront's user session cookie.
const defaultCookieName = "irnby_user_session"

const defaultTTL = 7 * 24 * time.Hour

// PurchaseRef is a lightweight pointer to an owned course inside the session
// snapshot.
type PurchaseRef struct {
	CourseID     string    `json:"courseId"`
	OrderID      string    `json:"orderId"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// User is the client-visible session snapshot. It lives entirely in a cookie,
// the server keeps no account records.
type User struct {
	ID              string        `json:"id"`
	Email           string        `json:"email"`
	Name            string        `json:"name"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	Purchases       []PurchaseRef `json:"purchases"`
	Wishlist        []string      `json:"wishlist"`
}

// HasPurchased reports whether the snapshot contains the course.
func (u User) HasPurchased(courseID string) bool {
	for _, p := range u.Purchases {
		if p.CourseID == courseID {
			return true
		}
	}
	return false
}

// InWishlist reports whether the course is on the wishlist.
func (u User) InWishlist(courseID string) bool {
	for _, id := range u.Wishlist {
		if id == courseID {
			return true
		}
	}
	return false
}

// CookieStore persists the session snapshot in a browser cookie, encoded the
// same way as the cart snapshot.
type CookieStore struct {
	Name     string
	TTL      time.Duration
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (s *CookieStore) name() string {
	if s.Name == "" {
		return defaultCookieName
	}
	return s.Name
}

func (s *CookieStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return defaultTTL
	}
	return s.TTL
}

// Load decodes the session cookie. A missing cookie yields an anonymous user
// with no error; a malformed one returns an error so callers can reset it.
func (s *CookieStore) Load(r *http.Request) (User, error) {
	c, err := r.Cookie(s.name())
	if err != nil {
		return User{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return User{}, fmt.Errorf("session: decode cookie: %w", err)
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("session: unmarshal cookie: %w", err)
	}
	return u, nil
}

// Save writes the snapshot back to the response.
func (s *CookieStore) Save(w http.ResponseWriter, u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: marshal cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name(),
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   int(s.ttl() / time.Second),
		Secure:   s.Secure,
		HttpOnly: false,
		SameSite: s.sameSite(),
	})
	return nil
}

// Clear expires the session cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name(),
		Value:    "",
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   -1,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

func (s *CookieStore) sameSite() http.SameSite {
	if s.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return s.SameSite
}
