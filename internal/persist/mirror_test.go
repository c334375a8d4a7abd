package persist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

// fakeLocal is an in-memory LocalStore that records writes and lets
// tests inject external changes by hand.
type fakeLocal struct {
	data     map[string]string
	writes   []string
	writeErr error
	external func(raw string)
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: map[string]string{}}
}

func (f *fakeLocal) Read(key string) (string, bool, error) {
	raw, ok := f.data[key]
	return raw, ok, nil
}

func (f *fakeLocal) Write(key, raw string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.data[key] = raw
	f.writes = append(f.writes, raw)
	return nil
}

func (f *fakeLocal) OnExternalChange(key string, fn func(raw string)) (func(), error) {
	f.external = fn
	return func() { f.external = nil }, nil
}

func newBoard(tables int) *store.Store {
	return store.New(domain.FromPersisted(domain.PersistedState{
		Shop:   domain.Shop{Name: "Roadside Tea Shop", TotalTables: tables},
		Tables: domain.EnsureTables(tables, nil),
	}), store.WithClock(func() int64 { return 1700000000000 }))
}

func chai() domain.OrderItem {
	return domain.OrderItem{ID: "chai", Name: "Chai", Price: 12}
}

func TestLoadMissingKey(t *testing.T) {
	m := NewMirror(newFakeLocal(), "", nil)
	_, ok := m.Load()
	assert.False(t, ok)
}

func TestLoadNormalizesStoredDocument(t *testing.T) {
	local := newFakeLocal()
	local.data[DefaultKey] = `{"shop":{"name":"Chai Point","totalTables":2},"tables":{"1":{"status":"ORDERED","items":[{"id":"chai","name":"Chai","price":12,"qty":2}],"amount":1}}}`

	m := NewMirror(local, "", nil)
	p, ok := m.Load()
	require.True(t, ok)
	assert.Equal(t, "Chai Point", p.Shop.Name)
	assert.Len(t, p.Tables, 2)
	assert.Equal(t, 24.0, p.Tables["1"].Amount)
}

func TestLoadUnparsableFallsBack(t *testing.T) {
	local := newFakeLocal()
	local.data[DefaultKey] = `[1,2,3]`
	m := NewMirror(local, "", nil)
	_, ok := m.Load()
	assert.False(t, ok)
}

func TestAttachPersistsEveryStateChangeOnce(t *testing.T) {
	local := newFakeLocal()
	st := newBoard(2)
	m := NewMirror(local, "", nil)
	detach := m.Attach(st)
	defer detach()

	st.Dispatch(store.AddItem{TableID: "1", Item: chai()})
	require.Len(t, local.writes, 1)
	assert.Contains(t, local.writes[0], `"chai"`)

	// UI-only actions leave the persisted subset unchanged; no write
	st.Dispatch(store.SelectTable{TableID: "1"})
	st.Dispatch(store.OpenModal{Modal: domain.ModalOrder})
	assert.Len(t, local.writes, 1)

	st.Dispatch(store.SetNotes{TableID: "1", Notes: "strong"})
	assert.Len(t, local.writes, 2)
}

func TestWriteFailureKeepsStoreWorking(t *testing.T) {
	local := newFakeLocal()
	local.writeErr = errors.New("disk full")
	st := newBoard(2)
	m := NewMirror(local, "", nil)
	defer m.Attach(st)()

	st.Dispatch(store.AddItem{TableID: "1", Item: chai()})
	assert.Empty(t, local.writes)
	assert.Len(t, st.State().Tables["1"].Items, 1)
}

func TestExternalChangeReplacesState(t *testing.T) {
	local := newFakeLocal()
	st := newBoard(2)
	m := NewMirror(local, "", nil)
	defer m.Attach(st)()

	require.NotNil(t, local.external)
	local.external(`{"shop":{"name":"Roadside Tea Shop","totalTables":2},"tables":{"2":{"status":"ORDERED","items":[{"id":"chai","name":"Chai","price":12,"qty":1}]}}}`)

	tbl := st.State().Tables["2"]
	assert.Equal(t, domain.StatusOrdered, tbl.Status)
	assert.Equal(t, 12.0, tbl.Amount)
}

func TestExternalEchoOfOwnWriteIsSuppressed(t *testing.T) {
	local := newFakeLocal()
	st := newBoard(2)
	m := NewMirror(local, "", nil)
	defer m.Attach(st)()

	st.Dispatch(store.AddItem{TableID: "1", Item: chai()})
	require.Len(t, local.writes, 1)

	dispatched := 0
	unsub := st.Subscribe(func(domain.AppState) { dispatched++ })
	defer unsub()

	// the watcher reporting back our own write must not loop
	local.external(local.writes[0])
	assert.Zero(t, dispatched)
}

func TestExternalGarbageIsIgnored(t *testing.T) {
	local := newFakeLocal()
	st := newBoard(2)
	m := NewMirror(local, "", nil)
	defer m.Attach(st)()

	before := st.State()
	local.external(`"nope"`)
	assert.Equal(t, before, st.State())
}
