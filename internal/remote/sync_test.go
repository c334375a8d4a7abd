package remote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

// fakeDocs is an in-memory DocumentStore whose change feed echoes every
// upsert to all subscribers, the writer included, the way a real feed
// does.
type fakeDocs struct {
	mu      sync.Mutex
	doc     Document
	exists  bool
	upserts int
	subs    []func(Document)
}

func (f *fakeDocs) Fetch(ctx context.Context, shopID string) (Document, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, f.exists, nil
}

func (f *fakeDocs) Upsert(ctx context.Context, doc Document) error {
	f.mu.Lock()
	f.doc = doc
	f.exists = true
	f.upserts++
	subs := append([]func(Document){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
	return nil
}

func (f *fakeDocs) SubscribeToChanges(ctx context.Context, shopID string, fn func(Document)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}, nil
}

func (f *fakeDocs) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func (f *fakeDocs) payload() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Payload
}

func newBoard(tables int) *store.Store {
	return store.New(domain.FromPersisted(domain.PersistedState{
		Shop:   domain.Shop{Name: "Roadside Tea Shop", TotalTables: tables},
		Tables: domain.EnsureTables(tables, nil),
	}), store.WithClock(func() int64 { return 1700000000000 }))
}

func encodeState(t *testing.T, st *store.Store) string {
	t.Helper()
	raw, err := domain.EncodePersisted(st.State().Persisted())
	require.NoError(t, err)
	return raw
}

const testDebounce = 20 * time.Millisecond

func TestMountSeedsEmptyRemote(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	defer a.Close()

	a.Mount(context.Background(), st)

	assert.Equal(t, 1, docs.upsertCount())
	assert.Equal(t, encodeState(t, st), docs.payload())
}

func TestMountAppliesExistingDocument(t *testing.T) {
	docs := &fakeDocs{
		exists: true,
		doc: Document{
			ShopID:   "shop-1",
			WriterID: "other",
			Payload:  `{"shop":{"name":"Chai Point","totalTables":3},"tables":{}}`,
		},
	}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	defer a.Close()

	a.Mount(context.Background(), st)

	assert.Equal(t, "Chai Point", st.State().Shop.Name)
	assert.Len(t, st.State().Tables, 3)
	// applying the remote document must not push it straight back
	time.Sleep(4 * testDebounce)
	assert.Zero(t, docs.upsertCount())
}

func TestDebounceCoalescesBursts(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(3)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	defer a.Close()
	a.Mount(context.Background(), st)
	seed := docs.upsertCount()

	for i := 0; i < 5; i++ {
		st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	}

	require.Eventually(t, func() bool {
		return docs.upsertCount() == seed+1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, docs.payload(), `"qty":5`)

	// no trailing extra pushes
	time.Sleep(4 * testDebounce)
	assert.Equal(t, seed+1, docs.upsertCount())
}

func TestUIOnlyChangesAreNotPushed(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	defer a.Close()
	a.Mount(context.Background(), st)
	seed := docs.upsertCount()

	st.Dispatch(store.SelectTable{TableID: "1"})
	st.Dispatch(store.OpenModal{Modal: domain.ModalOrder})

	time.Sleep(4 * testDebounce)
	assert.Equal(t, seed, docs.upsertCount())
}

func TestInboundChangeFromOtherWriterApplies(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	defer a.Close()
	a.Mount(context.Background(), st)

	other := newBoard(2)
	other.Dispatch(store.AddItem{TableID: "2", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	require.NoError(t, docs.Upsert(context.Background(), Document{
		ShopID: "shop-1", WriterID: "other", Payload: encodeState(t, other),
	}))

	tbl := st.State().Tables["2"]
	assert.Equal(t, domain.StatusOrdered, tbl.Status)
	assert.Equal(t, 10.0, tbl.Amount)

	// applying it must not bounce a write back to the feed
	time.Sleep(4 * testDebounce)
	assert.Equal(t, 2, docs.upsertCount()) // seed + the other writer's
}

func TestOwnEchoFromFeedIsSuppressed(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce), WithClientID("me"))
	defer a.Close()
	a.Mount(context.Background(), st)

	st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	require.Eventually(t, func() bool {
		return docs.upsertCount() == 2
	}, time.Second, 5*time.Millisecond)

	// the fake feed already echoed the write back during Upsert; if it
	// had been applied, the table would have bounced through the reducer
	// again and nothing would differ anyway — so assert on traffic: no
	// further pushes follow the echo.
	time.Sleep(4 * testDebounce)
	assert.Equal(t, 2, docs.upsertCount())
	assert.Len(t, st.State().Tables["1"].Items, 1)
}

func TestTwoClientsConverge(t *testing.T) {
	docs := &fakeDocs{}

	stA := newBoard(4)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce), WithClientID("client-a"))
	defer a.Close()
	a.Mount(context.Background(), stA)

	stB := newBoard(4)
	b := NewAdapter(docs, "shop-1", WithDebounce(testDebounce), WithClientID("client-b"))
	defer b.Close()
	b.Mount(context.Background(), stB)

	stA.Dispatch(store.AddItem{TableID: "3", Item: domain.OrderItem{ID: "chai", Name: "Chai", Price: 12}, Qty: 2})

	require.Eventually(t, func() bool {
		return stB.State().Tables["3"].Amount == 24.0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, stA.State().Persisted(), stB.State().Persisted())

	// B applied A's write; B must not re-publish it
	count := docs.upsertCount()
	time.Sleep(4 * testDebounce)
	assert.Equal(t, count, docs.upsertCount())

	// and an edit from B flows back to A
	stB.Dispatch(store.MarkPaid{TableID: "3"})
	require.Eventually(t, func() bool {
		return len(stA.State().Tables["3"].BillLog) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, stB.State().Persisted(), stA.State().Persisted())
}

func TestCloseCancelsPendingPush(t *testing.T) {
	docs := &fakeDocs{}
	st := newBoard(2)
	a := NewAdapter(docs, "shop-1", WithDebounce(testDebounce))
	a.Mount(context.Background(), st)
	seed := docs.upsertCount()

	st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	a.Close()

	time.Sleep(4 * testDebounce)
	assert.Equal(t, seed, docs.upsertCount())
}
