package storage

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"dompet/internal/core"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("store handle closed")

// Opener connects to a backend.
type Opener func(ctx context.Context) (Store, error)

// Handle connects lazily and shares one connection across callers.
// Concurrent first calls trigger a single connection attempt. A failed
// attempt is not cached, so the next Get tries again.
type Handle struct {
	backend string
	open    Opener

	group  singleflight.Group
	mu     sync.RWMutex
	store  Store
	closed bool
}

func NewHandle(backend string, open Opener) *Handle {
	return &Handle{backend: backend, open: open}
}

// Get returns the connected store, connecting first if needed. Connection
// failures are reported as *core.StoreUnavailableError.
func (h *Handle) Get(ctx context.Context) (Store, error) {
	h.mu.RLock()
	s, closed := h.store, h.closed
	h.mu.RUnlock()
	if s != nil {
		return s, nil
	}
	if closed {
		return nil, ErrClosed
	}

	v, err, _ := h.group.Do("connect", func() (any, error) {
		h.mu.RLock()
		existing := h.store
		h.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := h.open(ctx)
		if err != nil {
			return nil, Unavailable(h.backend, err)
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			_ = opened.Close()
			return nil, ErrClosed
		}
		h.store = opened
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Store), nil
}

// Ping connects if needed and checks the store is reachable.
func (h *Handle) Ping(ctx context.Context) error {
	s, err := h.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.Ping(ctx); err != nil {
		return Unavailable(h.backend, err)
	}
	return nil
}

// Close releases the connection. Later Get calls fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	return err
}

// Unavailable wraps a connection failure with a hint telling TLS problems
// apart from network ones.
func Unavailable(backend string, err error) error {
	var sue *core.StoreUnavailableError
	if errors.As(err, &sue) {
		return err
	}
	return &core.StoreUnavailableError{Backend: backend, Hint: connectionHint(err), Err: err}
}

func connectionHint(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "tls", "x509", "certificate", "handshake", "ssl"):
		return "TLS negotiation failed, check the certificate and sslmode settings in STORE_URI"
	case containsAny(msg, "connection refused", "no such host", "i/o timeout", "network is unreachable", "dial", "deadline exceeded"):
		return "store host unreachable, check the host and port in STORE_URI and network access"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
