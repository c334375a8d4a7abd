package persist

import (
	"sync"

	"go.uber.org/zap"

	"teaboard/internal/domain"
	"teaboard/internal/metrics"
	"teaboard/internal/store"
)

// DefaultKey is the storage key the board state lives under.
const DefaultKey = "teaboard_state_v1"

// Mirror keeps a durable local copy of the persisted state subset and
// feeds cross-process changes back into the store. Both directions are
// echo-suppressed against the last raw value this process wrote or
// applied, so a write never bounces back as a change notification.
type Mirror struct {
	store LocalStore
	key   string
	log   *zap.SugaredLogger

	mu   sync.Mutex
	last string
}

func NewMirror(ls LocalStore, key string, lg *zap.SugaredLogger) *Mirror {
	if key == "" {
		key = DefaultKey
	}
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Mirror{store: ls, key: key, log: lg}
}

// Load reads and normalizes the persisted document. Missing, unreadable
// or unparsable data returns ok=false and the caller falls back to the
// default state.
func (m *Mirror) Load() (domain.PersistedState, bool) {
	raw, ok, err := m.store.Read(m.key)
	if err != nil {
		m.log.Warnw("mirror_read_failed", "key", m.key, "error", err)
		return domain.PersistedState{}, false
	}
	if !ok {
		return domain.PersistedState{}, false
	}
	p, err := domain.DecodePersisted([]byte(raw))
	if err != nil {
		m.log.Warnw("mirror_decode_failed", "key", m.key, "error", err)
		return domain.PersistedState{}, false
	}
	m.mu.Lock()
	m.last = raw
	m.mu.Unlock()
	return p, true
}

// Attach wires the mirror to a store: every new state is written
// through (deduplicated), and external changes re-enter as
// ReplaceFromStorage. Returns a detach func.
func (m *Mirror) Attach(st *store.Store) func() {
	unsub := st.Subscribe(func(state domain.AppState) {
		m.persist(state)
	})
	stop, err := m.store.OnExternalChange(m.key, func(raw string) {
		m.external(raw, st)
	})
	if err != nil {
		m.log.Warnw("mirror_watch_failed", "key", m.key, "error", err)
	}
	return func() {
		unsub()
		if stop != nil {
			stop()
		}
	}
}

func (m *Mirror) persist(state domain.AppState) {
	raw, err := domain.EncodePersisted(state.Persisted())
	if err != nil {
		// in-memory state stays correct even when durability fails
		m.log.Warnw("mirror_encode_failed", "error", err)
		return
	}
	m.mu.Lock()
	if raw == m.last {
		m.mu.Unlock()
		return
	}
	m.last = raw
	m.mu.Unlock()

	if err := m.store.Write(m.key, raw); err != nil {
		metrics.SyncFailures.WithLabelValues("local").Inc()
		m.log.Warnw("mirror_write_failed", "key", m.key, "error", err)
		return
	}
	metrics.MirrorWrites.Inc()
}

func (m *Mirror) external(raw string, st *store.Store) {
	m.mu.Lock()
	if raw == m.last {
		m.mu.Unlock()
		metrics.EchoesSuppressed.WithLabelValues("local").Inc()
		return
	}
	m.mu.Unlock()

	p, err := domain.DecodePersisted([]byte(raw))
	if err != nil {
		m.log.Warnw("mirror_inbound_decode_failed", "key", m.key, "error", err)
		return
	}
	m.mu.Lock()
	m.last = raw
	m.mu.Unlock()
	st.Dispatch(store.ReplaceFromStorage{Persisted: p})
}
