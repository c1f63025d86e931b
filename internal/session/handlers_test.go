package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newTestHandler() *Handler {
	return NewHandler(&CookieStore{}, zerolog.Nop())
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) User {
	t.Helper()
	var resp struct {
		Data User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "irnby_user_session" {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestLoginAnyEmailSucceeds(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"anna@example.com"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	u := decodeUser(t, rec)
	if !u.IsAuthenticated || u.Email != "anna@example.com" {
		t.Fatalf("user = %+v", u)
	}
	if u.Name != "anna" {
		t.Fatalf("Name = %q, want derived local part", u.Name)
	}
	if len(u.Purchases) != 2 || !u.HasPurchased("zhiroszhiganie1") {
		t.Fatalf("purchases = %+v", u.Purchases)
	}
	if !u.InWishlist("funkcionalnyj-trening") {
		t.Fatalf("wishlist = %v", u.Wishlist)
	}
	sessionCookie(t, rec)
}

func TestLoginRejectsInvalidEmail(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"nope"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterStartsEmpty(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"new@example.com","name":"Новый"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	u := decodeUser(t, rec)
	if !u.IsAuthenticated || u.Name != "Новый" {
		t.Fatalf("user = %+v", u)
	}
	if len(u.Purchases) != 0 || len(u.Wishlist) != 0 {
		t.Fatalf("expected empty account, got %+v", u)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"anna@example.com"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	cookie := sessionCookie(t, rec)

	meReq := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	meReq.AddCookie(cookie)
	meRec := httptest.NewRecorder()
	h.Me(meRec, meReq)

	u := decodeUser(t, meRec)
	if !u.IsAuthenticated || u.Email != "anna@example.com" {
		t.Fatalf("round-tripped user = %+v", u)
	}
}

func TestMeAnonymousWithoutCookie(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	u := decodeUser(t, rec)
	if u.IsAuthenticated {
		t.Fatalf("anonymous request produced authenticated user")
	}
}

func TestMeCorruptCookieResets(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "irnby_user_session", Value: "!!not-base64!!"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if u := decodeUser(t, rec); u.IsAuthenticated {
		t.Fatalf("corrupt cookie produced authenticated user")
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("cookies = %+v, want expired session cookie", cookies)
	}
}

func TestHistoryFromSnapshot(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"anna@example.com"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	cookie := sessionCookie(t, rec)

	histReq := httptest.NewRequest(http.MethodGet, "/api/v1/orders/history", nil)
	histReq.AddCookie(cookie)
	histRec := httptest.NewRecorder()
	h.History(histRec, histReq)

	var resp struct {
		Data []PurchaseRef `json:"data"`
	}
	if err := json.Unmarshal(histRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].OrderID != "ord_123456" {
		t.Fatalf("history = %+v", resp.Data)
	}

	// anonymous history is empty, not an error
	anonRec := httptest.NewRecorder()
	h.History(anonRec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/history", nil))
	if anonRec.Code != http.StatusOK {
		t.Fatalf("status = %d", anonRec.Code)
	}
}

func wishlistRequest(t *testing.T, method, courseID string, cookie *http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/wishlist/"+courseID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("courseId", courseID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestWishlistAddRemove(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.WishlistAdd(rec, wishlistRequest(t, http.MethodPost, "rastyazhka", nil))
	u := decodeUser(t, rec)
	if !u.InWishlist("rastyazhka") {
		t.Fatalf("wishlist = %v", u.Wishlist)
	}
	cookie := sessionCookie(t, rec)

	// adding again does not duplicate
	rec2 := httptest.NewRecorder()
	h.WishlistAdd(rec2, wishlistRequest(t, http.MethodPost, "rastyazhka", cookie))
	if u2 := decodeUser(t, rec2); len(u2.Wishlist) != 1 {
		t.Fatalf("wishlist = %v, want single entry", u2.Wishlist)
	}

	rec3 := httptest.NewRecorder()
	h.WishlistRemove(rec3, wishlistRequest(t, http.MethodDelete, "rastyazhka", cookie))
	if u3 := decodeUser(t, rec3); u3.InWishlist("rastyazhka") {
		t.Fatalf("wishlist = %v, want empty", u3.Wishlist)
	}
}
