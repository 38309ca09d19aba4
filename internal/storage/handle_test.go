package storage_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
)

func TestHandleConnectsOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	h := storage.NewHandle("memory", func(context.Context) (storage.Store, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return memory.New(), nil
	})

	var wg sync.WaitGroup
	stores := make([]storage.Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := h.Get(context.Background())
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			stores[i] = s
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("opener called %d times, want 1", n)
	}
	for i := 1; i < len(stores); i++ {
		if stores[i] != stores[0] {
			t.Fatal("callers received different stores")
		}
	}
}

func TestHandleRetriesAfterFailure(t *testing.T) {
	var calls int32
	h := storage.NewHandle("postgres", func(context.Context) (storage.Store, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")
		}
		return memory.New(), nil
	})

	_, err := h.Get(context.Background())
	var sue *core.StoreUnavailableError
	if !errors.As(err, &sue) {
		t.Fatalf("first get err = %v, want StoreUnavailableError", err)
	}
	if sue.Backend != "postgres" || sue.Hint == "" {
		t.Fatalf("unexpected error detail: %+v", sue)
	}

	if _, err := h.Get(context.Background()); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if err := h.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestHandleHints(t *testing.T) {
	cases := []struct {
		err     string
		wantTLS bool
	}{
		{"tls: failed to verify certificate: x509: certificate signed by unknown authority", true},
		{"dial tcp: lookup db.internal: no such host", false},
	}
	for i, tc := range cases {
		var sue *core.StoreUnavailableError
		if !errors.As(storage.Unavailable("postgres", errors.New(tc.err)), &sue) {
			t.Fatalf("case %d: not a StoreUnavailableError", i)
		}
		isTLS := sue.Hint != "" && sue.Hint[:3] == "TLS"
		if isTLS != tc.wantTLS {
			t.Fatalf("case %d: hint %q", i, sue.Hint)
		}
	}
}

func TestHandleClose(t *testing.T) {
	h := storage.NewHandle("memory", func(context.Context) (storage.Store, error) { return memory.New(), nil })
	if _, err := h.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := h.Get(context.Background()); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("get after close err = %v", err)
	}
}
