package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teaboard/internal/domain"
)

func testStore(tables int) *Store {
	return New(freshState(tables), WithClock(func() int64 { return testNow }))
}

func TestDispatchUsesInjectedClock(t *testing.T) {
	st := testStore(3)
	st.Dispatch(AddItem{TableID: "1", Item: tea()})

	tbl := st.State().Tables["1"]
	require.NotNil(t, tbl.StartedAt)
	assert.Equal(t, testNow, *tbl.StartedAt)
}

func TestSubscribeSeesEveryDispatch(t *testing.T) {
	st := testStore(3)

	var seen []domain.AppState
	cancel := st.Subscribe(func(s domain.AppState) { seen = append(seen, s) })

	st.Dispatch(AddItem{TableID: "1", Item: tea()})
	st.Dispatch(SetNotes{TableID: "1", Notes: "no milk"})
	require.Len(t, seen, 2)
	assert.Equal(t, "no milk", seen[1].Tables["1"].Notes)

	cancel()
	st.Dispatch(ClearTable{TableID: "1"})
	assert.Len(t, seen, 2)
}

func TestSubscribersAreIndependent(t *testing.T) {
	st := testStore(2)

	a, b := 0, 0
	cancelA := st.Subscribe(func(domain.AppState) { a++ })
	st.Subscribe(func(domain.AppState) { b++ })

	st.Dispatch(SelectTable{TableID: "1"})
	cancelA()
	st.Dispatch(SelectTable{TableID: "2"})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestTableIDsFollowShopSize(t *testing.T) {
	st := testStore(3)
	assert.Equal(t, []string{"1", "2", "3"}, st.TableIDs())

	st.Dispatch(ReplaceFromStorage{Persisted: domain.PersistedState{
		Shop: domain.Shop{Name: "Roadside Tea Shop", TotalTables: 2},
	}})
	assert.Equal(t, []string{"1", "2"}, st.TableIDs())
}

func TestStateSnapshotIsStable(t *testing.T) {
	st := testStore(2)
	st.Dispatch(AddItem{TableID: "1", Item: tea()})

	before := st.State()
	st.Dispatch(AddItem{TableID: "1", Item: tea()})

	// the earlier snapshot must not see the later mutation
	assert.Equal(t, 1, before.Tables["1"].Items[0].Qty)
	assert.Equal(t, 2, st.State().Tables["1"].Items[0].Qty)
}
