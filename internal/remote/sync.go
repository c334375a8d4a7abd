package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teaboard/internal/domain"
	"teaboard/internal/metrics"
	"teaboard/internal/store"
)

// DefaultDebounce is the quiet period before a local change is pushed
// remotely; bursts of edits within it coalesce into one upsert.
const DefaultDebounce = 250 * time.Millisecond

// Adapter replicates the board state against a shared remote document,
// last-write-wins. Outbound: every local change arms a cancellable
// debounce timer and only the latest pending snapshot is sent, skipped
// when it matches what this client already sent or applied. Inbound:
// change events are applied only when both the writer id differs from
// this client's and the payload differs from what was last applied —
// the double check that keeps a client from reacting to its own write
// echoed back by the feed.
//
// All remote failures degrade to local-only operation; they are logged,
// never raised.
type Adapter struct {
	docs     DocumentStore
	st       *store.Store
	shopID   string
	clientID string
	debounce time.Duration
	log      *zap.SugaredLogger

	mu          sync.Mutex
	lastSent    string
	lastApplied string
	lastRemote  string
	pending     string
	timer       *time.Timer
	closed      bool

	unsub    func()
	stopFeed func()
}

type AdapterOption func(*Adapter)

func WithDebounce(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.debounce = d }
}

func WithClientID(id string) AdapterOption {
	return func(a *Adapter) { a.clientID = id }
}

func WithSyncLogger(lg *zap.SugaredLogger) AdapterOption {
	return func(a *Adapter) { a.log = lg }
}

func NewAdapter(docs DocumentStore, shopID string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		docs:     docs,
		shopID:   shopID,
		clientID: uuid.NewString(),
		debounce: DefaultDebounce,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ClientID returns the writer identity this adapter tags its upserts with.
func (a *Adapter) ClientID() string { return a.clientID }

// Mount attaches the adapter to a store. The current remote document,
// if any, is authoritative and is applied immediately; otherwise the
// remote is seeded with the local state. Then the adapter starts
// observing local changes and the remote change feed.
func (a *Adapter) Mount(ctx context.Context, st *store.Store) {
	a.st = st

	doc, ok, err := a.docs.Fetch(ctx, a.shopID)
	switch {
	case err != nil:
		metrics.SyncFailures.WithLabelValues("remote").Inc()
		a.log.Warnw("remote_fetch_failed", "shop_id", a.shopID, "error", err)
	case ok:
		p, derr := domain.DecodePersisted([]byte(doc.Payload))
		if derr != nil {
			a.log.Warnw("remote_decode_failed", "shop_id", a.shopID, "error", derr)
			break
		}
		a.mu.Lock()
		a.lastRemote = doc.Payload
		a.lastApplied = doc.Payload
		a.mu.Unlock()
		st.Dispatch(store.ReplaceFromStorage{Persisted: p})
	default:
		// first client for this shop id seeds the document
		raw, eerr := domain.EncodePersisted(st.State().Persisted())
		if eerr != nil {
			a.log.Warnw("remote_seed_encode_failed", "error", eerr)
			break
		}
		a.mu.Lock()
		a.lastSent = raw
		a.mu.Unlock()
		if uerr := a.docs.Upsert(ctx, Document{ShopID: a.shopID, Payload: raw, WriterID: a.clientID}); uerr != nil {
			metrics.SyncFailures.WithLabelValues("remote").Inc()
			a.log.Warnw("remote_seed_failed", "shop_id", a.shopID, "error", uerr)
		}
	}

	a.unsub = st.Subscribe(a.onState)

	stop, serr := a.docs.SubscribeToChanges(ctx, a.shopID, a.onRemote)
	if serr != nil {
		metrics.SyncFailures.WithLabelValues("remote").Inc()
		a.log.Warnw("remote_subscribe_failed", "shop_id", a.shopID, "error", serr)
		return
	}
	a.stopFeed = stop
}

// Close detaches from the store, cancels any pending debounced write
// and stops the change feed. No writes happen after Close returns.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if a.unsub != nil {
		a.unsub()
	}
	if a.stopFeed != nil {
		a.stopFeed()
	}
}

func (a *Adapter) onState(state domain.AppState) {
	raw, err := domain.EncodePersisted(state.Persisted())
	if err != nil {
		a.log.Warnw("remote_encode_failed", "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = raw
	// re-arming cancels the pending write; only the latest snapshot is sent
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.flush)
}

func (a *Adapter) flush() {
	a.mu.Lock()
	raw := a.pending
	if a.closed || raw == "" || raw == a.lastSent || raw == a.lastApplied {
		a.mu.Unlock()
		return
	}
	a.lastSent = raw
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.docs.Upsert(ctx, Document{ShopID: a.shopID, Payload: raw, WriterID: a.clientID}); err != nil {
		metrics.SyncFailures.WithLabelValues("remote").Inc()
		a.log.Warnw("remote_push_failed", "shop_id", a.shopID, "error", err)
		return
	}
	metrics.RemotePushes.Inc()
}

func (a *Adapter) onRemote(doc Document) {
	a.mu.Lock()
	a.lastRemote = doc.Payload
	if a.closed {
		a.mu.Unlock()
		return
	}
	if doc.WriterID == a.clientID || doc.Payload == a.lastApplied {
		a.mu.Unlock()
		metrics.EchoesSuppressed.WithLabelValues("remote").Inc()
		return
	}
	a.lastApplied = doc.Payload
	a.mu.Unlock()

	p, err := domain.DecodePersisted([]byte(doc.Payload))
	if err != nil {
		a.log.Warnw("remote_inbound_decode_failed", "shop_id", a.shopID, "error", err)
		return
	}
	a.st.Dispatch(store.ReplaceFromStorage{Persisted: p})
}
