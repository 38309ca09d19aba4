package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	c := NewClientIPResolver()
	if err := c.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("add proxy: %v", err)
	}
	if err := c.AddTrustedProxy("nope"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}

	cases := []struct {
		remote, xff, xri string
		want             string
	}{
		{"198.51.100.7:5000", "", "", "198.51.100.7"},
		{"198.51.100.7:5000", "1.2.3.4", "", "198.51.100.7"}, // untrusted peer
		{"10.0.0.2:80", "1.2.3.4, 10.0.0.1", "", "1.2.3.4"},
		{"10.0.0.2:80", "garbage", "5.6.7.8", "5.6.7.8"},
		{"203.0.113.9:80", "", "", "203.0.113.9"},
		{"[::1]:80", "9.9.9.9", "", "9.9.9.9"},
		{"unix", "", "", "unix"},
	}
	for i, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.xri != "" {
			r.Header.Set("X-Real-IP", tc.xri)
		}
		if got := c.ClientIP(r); got != tc.want {
			t.Fatalf("case %d: ClientIP = %q, want %q", i, got, tc.want)
		}
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/home", nil))
	for name, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	} {
		if got := rr.Header().Get(name); got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
