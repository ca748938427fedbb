package workout

import (
	"log/slog"
	"sync"
	"time"
)

// Manager owns one Store per user plus the shared ticker that drives every
// store's rest timer. The tick interval is explicit so tests can run a
// manager without real one-second waits (or skip the ticker entirely and
// call TickRestTimer themselves).
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	state *StateDB
	clock Clock
	log   *slog.Logger
	done  chan struct{}
}

// NewManager creates a manager over the given state database and starts
// the rest-timer driver at tickInterval (1s in production).
func NewManager(state *StateDB, clock Clock, tickInterval time.Duration, log *slog.Logger) *Manager {
	m := &Manager{
		stores: make(map[string]*Store),
		state:  state,
		clock:  clock,
		log:    log,
		done:   make(chan struct{}),
	}
	go m.runTicker(tickInterval)
	return m
}

func (m *Manager) runTicker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for _, s := range m.stores {
				s.TickRestTimer()
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// StoreFor returns the user's store, creating and rehydrating it on first
// use.
func (m *Manager) StoreFor(userID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[userID]; ok {
		return s, nil
	}
	s, err := NewStore(m.clock, m.state.ForUser(userID), m.log)
	if err != nil {
		return nil, err
	}
	m.stores[userID] = s
	return s, nil
}

// Close stops the ticker. The state database is owned by the caller.
func (m *Manager) Close() {
	close(m.done)
}
