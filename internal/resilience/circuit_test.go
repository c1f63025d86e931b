package resilience

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := NewBreaker(4, 0.5, 50*time.Millisecond)

	b.Report(true)
	b.Report(false)
	b.Report(false)
	if !b.Allow() {
		t.Fatalf("breaker opened before min requests reached")
	}
	b.Report(false)
	if b.Allow() {
		t.Fatalf("breaker should be open after failure ratio exceeded")
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(1, 0.5, 10*time.Millisecond)
	b.Report(false)
	if b.Allow() {
		t.Fatalf("expected open breaker")
	}

	time.Sleep(15 * time.Millisecond)
	if !b.Allow() {
		t.Fatalf("expected half-open probe after cool-off")
	}
	b.Report(true)
	if !b.Allow() {
		t.Fatalf("expected closed breaker after successful probe")
	}
}

func TestBreakerHalfOpenReopensOnFailure(t *testing.T) {
	b := NewBreaker(1, 0.5, 10*time.Millisecond)
	b.Report(false)
	time.Sleep(15 * time.Millisecond)
	if !b.Allow() {
		t.Fatalf("expected half-open probe")
	}
	b.Report(false)
	if b.Allow() {
		t.Fatalf("expected breaker to reopen after failed probe")
	}
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Client(), nil, 3, time.Millisecond, 0)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Client(), nil, 3, time.Millisecond, 0)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestHTTPClientRejectsWhenOpen(t *testing.T) {
	b := NewBreaker(1, 0.5, time.Minute)
	b.Report(false)

	c := NewHTTPClient(nil, b, 2, time.Millisecond, 0)
	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:0", nil)
	if _, err := c.Do(req); err != ErrOpenCircuit {
		t.Fatalf("err = %v, want ErrOpenCircuit", err)
	}
}
