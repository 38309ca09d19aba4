package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dompet/internal/log"
)

func TestMiddlewareRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	cases := []struct {
		incoming string
		reuse    bool
	}{
		{"", false},
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for i, tc := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
		if tc.incoming != "" {
			req.Header.Set(HeaderRequestID, tc.incoming)
		}
		h.ServeHTTP(rr, req)

		got := rr.Header().Get(HeaderRequestID)
		if got != seen {
			t.Fatalf("case %d: header %q != context %q", i, got, seen)
		}
		if tc.reuse && got != tc.incoming {
			t.Fatalf("case %d: id %q, want %q", i, got, tc.incoming)
		}
		if !tc.reuse && !strings.HasPrefix(got, "req_") {
			t.Fatalf("case %d: generated id %q", i, got)
		}
	}
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	h := log.Middleware(logger)(NewMiddleware(func(*http.Request) string { return "1.2.3.4" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusOK)
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/transactions/x", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "HTTP request completed", "status_code=404", "client_ip=1.2.3.4", "request_id=req_"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}
