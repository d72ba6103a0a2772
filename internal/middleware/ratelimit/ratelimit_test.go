package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perWindow int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{PerWindow: perWindow, SweepEvery: time.Hour})
	t.Cleanup(l.Stop)
	now := time.Date(2025, 12, 29, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWindow(t *testing.T) {
	l, now := newTestLimiter(t, 2)

	for i, want := range []bool{true, true, false} {
		if got := l.Allow("1.2.3.4"); got != want {
			t.Fatalf("request %d: Allow() = %v, want %v", i, got, want)
		}
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("other clients have their own window")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("1.2.3.4") {
		t.Fatal("a new window should reset the count")
	}
}

func TestTakeReportsTimeLeft(t *testing.T) {
	l, now := newTestLimiter(t, 1)

	l.Take("c")
	*now = now.Add(50 * time.Second)
	ok, retryIn := l.Take("c")
	if ok {
		t.Fatal("second request in the window should be rejected")
	}
	if retryIn != 10*time.Second {
		t.Fatalf("retryIn = %v, want 10s", retryIn)
	}

	*now = now.Add(10 * time.Second)
	if ok, _ := l.Take("c"); !ok {
		t.Fatal("window opened at the first request and has closed")
	}
}

func TestSweepDropsIdleClients(t *testing.T) {
	l, now := newTestLimiter(t, 10)
	l.Allow("old")
	*now = now.Add(11 * time.Minute)
	l.Allow("fresh")

	if dropped := l.sweep(); dropped != 1 {
		t.Fatalf("dropped %d clients, want 1", dropped)
	}
	if l.Clients() != 1 {
		t.Fatalf("Clients() = %d", l.Clients())
	}
}

func TestHandler(t *testing.T) {
	l, now := newTestLimiter(t, 1)
	rejected := 0
	h := l.Handler(Rule{
		Key:   func(r *http.Request) string { return r.RemoteAddr },
		Match: func(r *http.Request) bool { return r.Method != http.MethodGet },
		Reject: func(w http.ResponseWriter, r *http.Request) {
			rejected++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/expenses", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first write: %d", rec.Code)
	}
	*now = now.Add(30*time.Second + 500*time.Millisecond)
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second write: %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After = %q, want 30", got)
	}
	if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
		t.Fatalf("reads are not limited: %d", rec.Code)
	}
	if rejected != 1 {
		t.Fatalf("Reject called %d times", rejected)
	}
}

func TestHandlerDefaultReject(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	h := l.Handler(Rule{Key: func(*http.Request) string { return "k" }})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != want {
			t.Fatalf("request %d: status %d, want %d", i, rec.Code, want)
		}
	}
}
