package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"teaboard/internal/domain"
	"teaboard/internal/metrics"
)

// Listener observes every new state produced by a dispatch. Listeners
// are called synchronously with dispatch order and must not call back
// into Dispatch; inbound documents are delivered from their own
// goroutines instead.
type Listener func(state domain.AppState)

// Store owns the application state and serializes all mutations through
// the reducer, one action at a time to completion. Construct one per
// process and hand it to consumers by reference.
type Store struct {
	mu        sync.Mutex
	state     domain.AppState
	listeners map[int]Listener
	nextID    int
	now       func() int64
	log       *zap.SugaredLogger
}

type Option func(*Store)

// WithClock overrides the epoch-millis clock, used by tests.
func WithClock(now func() int64) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(lg *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = lg }
}

func New(initial domain.AppState, opts ...Option) *Store {
	s := &Store{
		state:     initial,
		listeners: make(map[int]Listener),
		now:       func() int64 { return time.Now().UnixMilli() },
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch runs one action through the reducer and notifies listeners
// with the resulting state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Reduce(s.state, a, s.now())
	s.state = next

	name := Name(a)
	metrics.ActionsTotal.WithLabelValues(name).Inc()
	metrics.OpenTables.Set(float64(countOpen(next.Tables)))
	s.log.Debugw("action_dispatched", "action", name)

	for _, l := range s.listeners {
		l(next)
	}
}

// State returns the current state snapshot. Callers must treat the
// contained maps and slices as read-only; the reducer never mutates
// them in place.
func (s *Store) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TableIDs returns the ordered list of table ids "1".."N".
func (s *Store) TableIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TableIDs(s.state.Shop.TotalTables)
}

// Subscribe registers a listener and returns its cancel func.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func countOpen(tables map[string]domain.Table) int {
	n := 0
	for _, t := range tables {
		if t.Status != domain.StatusEmpty {
			n++
		}
	}
	return n
}
