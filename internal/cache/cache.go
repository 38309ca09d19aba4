// Package cache provides a generic TTL LRU and a manager that sweeps
// expired entries in the background.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"dompet/internal/log"
)

// Cache is what services depend on; LRUCache is the only implementation.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// DeletePrefix drops every key that starts with prefix.
	DeletePrefix(prefix string) int
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is swept by Manager.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on an interval until stopped.
type Manager struct {
	mu      sync.Mutex
	caches  []Cleaner
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

func NewManager() *Manager {
	return &Manager{stop: make(chan struct{})}
}

// Register adds c to every following sweep.
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	m.caches = append(m.caches, c)
	m.mu.Unlock()
}

// StartCleanup launches the sweeper. Calling it twice has no effect.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	m.done = make(chan struct{})
	go m.loop(interval, m.done)
}

func (m *Manager) loop(interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.Debug("Expired cache entries removed", log.FieldComponent, log.ComponentCache, "count", n)
			}
		case <-m.stop:
			return
		}
	}
}

// CleanNow sweeps every registered cache once.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweeper and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopped.Do(func() {
		close(m.stop)
		m.mu.Lock()
		done := m.done
		m.mu.Unlock()
		if done != nil {
			<-done
		}
	})
}
