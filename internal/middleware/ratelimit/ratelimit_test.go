package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	clock := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestAllowWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	steps := []struct {
		key     string
		advance time.Duration
		want    bool
	}{
		{"a", 0, true},
		{"a", time.Second, true},
		{"a", time.Second, false},
		{"b", 0, true},
		{"a", time.Minute, true},
		{"a", 0, true},
		{"a", 0, false},
	}
	for i, s := range steps {
		*clock = clock.Add(s.advance)
		if got := rl.Allow(s.key); got != s.want {
			t.Fatalf("step %d: Allow(%s) = %v, want %v", i, s.key, got, s.want)
		}
	}
	if n := rl.ActiveClients(); n != 2 {
		t.Fatalf("active clients = %d", n)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)
	rl.Allow("old")
	*clock = clock.Add(11 * time.Minute)
	rl.Allow("fresh")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if n := rl.ActiveClients(); n != 1 {
		t.Fatalf("active clients = %d", n)
	}
}

func TestMiddlewareLimitsOnlyListedMethods(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := rl.Middleware(func(*http.Request) string { return "client" }, nil, http.MethodPost)(ok)

	codes := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
	}
	for i, c := range codes {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(c.method, "/api/home/expenses", nil))
		if rr.Code != c.want {
			t.Fatalf("case %d: status = %d, want %d", i, rr.Code, c.want)
		}
		if c.want == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Fatalf("case %d: missing Retry-After", i)
		}
	}
}
