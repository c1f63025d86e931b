package cart

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Store is the persistence port for cart snapshots. The discount engine never
// touches cookies directly so it stays testable without an HTTP round trip.
type Store interface {
	Load(r *http.Request) (State, error)
	Save(w http.ResponseWriter, st State) error
	Clear(w http.ResponseWriter)
}

// CookieStore persists the cart snapshot as a base64-encoded JSON cookie with
// a fixed expiry window. Every save overwrites the prior snapshot.
type CookieStore struct {
	Name     string
	TTL      time.Duration
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c CookieStore) name() string {
	if c.Name == "" {
		return "irnby_cart"
	}
	return c.Name
}

func (c CookieStore) ttl() time.Duration {
	if c.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.TTL
}

// Load decodes the cart snapshot from the request cookie. A missing cookie is
// an empty cart; a malformed one returns an error so the caller can log and
// reset.
func (c CookieStore) Load(r *http.Request) (State, error) {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return State{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return State{}, fmt.Errorf("decode cart cookie: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st.Lines); err != nil {
		return State{}, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return st, nil
}

// Save serialises the snapshot and overwrites the cookie, renewing the expiry
// window.
func (c CookieStore) Save(w http.ResponseWriter, st State) error {
	raw, err := json.Marshal(st.Lines)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.ttl().Seconds()),
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	return nil
}

// Clear expires the cart cookie.
func (c CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// MemoryStore keeps a single snapshot in memory. Tests use it in place of the
// cookie store.
type MemoryStore struct {
	Snapshot State
	LoadErr  error
}

// Load returns the stored snapshot.
func (m *MemoryStore) Load(*http.Request) (State, error) {
	if m.LoadErr != nil {
		return State{}, m.LoadErr
	}
	return m.Snapshot, nil
}

// Save stores the snapshot.
func (m *MemoryStore) Save(_ http.ResponseWriter, st State) error {
	m.Snapshot = st
	return nil
}

// Clear resets the snapshot.
func (m *MemoryStore) Clear(http.ResponseWriter) {
	m.Snapshot = State{}
}
