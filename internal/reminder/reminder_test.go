package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teaboard/internal/domain"
	"teaboard/internal/store"
)

func boardWithClock(tables int, now func() int64) *store.Store {
	return store.New(domain.FromPersisted(domain.PersistedState{
		Shop:   domain.Shop{Name: "Roadside Tea Shop", TotalTables: tables},
		Tables: domain.EnsureTables(tables, nil),
	}), store.WithClock(now))
}

func TestSweepRemindsOncePerOrder(t *testing.T) {
	// orders started 20 minutes ago
	started := time.Now().Add(-20 * time.Minute).UnixMilli()
	st := boardWithClock(3, func() int64 { return started })
	st.Dispatch(store.AddItem{TableID: "2", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})

	s := New(st, 10*time.Minute, nil)
	s.Sweep()

	notifs := st.State().UI.Notifications
	require.Len(t, notifs, 1)
	assert.Equal(t, domain.NoteInfo, notifs[0].Kind)
	assert.Contains(t, notifs[0].Message, "Table 2")

	// same order, no second reminder
	s.Sweep()
	assert.Len(t, st.State().UI.Notifications, 1)
}

func TestSweepSkipsFreshAndNonOrderedTables(t *testing.T) {
	now := time.Now().UnixMilli()
	st := boardWithClock(3, func() int64 { return now })
	st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	st.Dispatch(store.AddItem{TableID: "2", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})
	st.Dispatch(store.UpdateTableStatus{TableID: "2", Status: domain.StatusPreparing})

	s := New(st, 10*time.Minute, nil)
	s.Sweep()
	assert.Empty(t, st.State().UI.Notifications)
}

func TestSweepRemindsAgainForNextOrder(t *testing.T) {
	started := time.Now().Add(-30 * time.Minute).UnixMilli()
	clock := started
	st := boardWithClock(2, func() int64 { return clock })
	st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})

	s := New(st, 10*time.Minute, nil)
	s.Sweep()
	require.Len(t, st.State().UI.Notifications, 1)

	// table turns over; the next order gets its own reminder
	st.Dispatch(store.MarkPaid{TableID: "1"})
	clock = time.Now().Add(-15 * time.Minute).UnixMilli()
	st.Dispatch(store.AddItem{TableID: "1", Item: domain.OrderItem{ID: "tea", Name: "Tea", Price: 10}})

	s.Sweep()
	assert.Len(t, st.State().UI.Notifications, 2)
}
