package domain

// NotificationKind tags the two notification variants.
type NotificationKind string

const (
	NoteInfo     NotificationKind = "INFO"
	NoteNewOrder NotificationKind = "NEW_ORDER"
)

// MaxNotifications caps the retained notification list; oldest entries
// are dropped first.
const MaxNotifications = 20

// Notification is an ephemeral UI notification. INFO carries Message;
// NEW_ORDER carries TableID and Amount. Never persisted.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message,omitempty"`
	TableID   string           `json:"tableId,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
	CreatedAt int64            `json:"createdAt"`
}

// ModalOrder is the only modal the board knows about.
const ModalOrder = "ORDER"

// UIState is session-local and reconstructed empty on every load/merge.
type UIState struct {
	ActiveModal     string         `json:"activeModal,omitempty"`
	Notifications   []Notification `json:"notifications"`
	SelectedTableID string         `json:"selectedTableId,omitempty"`
}

// AppState is the full application state. Only Shop and Tables are
// persisted and synced.
type AppState struct {
	Shop   Shop             `json:"shop"`
	Tables map[string]Table `json:"tables"`
	UI     UIState          `json:"ui"`
}

// Persisted extracts the durable subset of the state.
func (s AppState) Persisted() PersistedState {
	return PersistedState{Shop: s.Shop, Tables: s.Tables}
}

// FromPersisted builds a full state around a persisted document with
// fresh, empty UI state.
func FromPersisted(p PersistedState) AppState {
	return AppState{Shop: p.Shop, Tables: p.Tables, UI: UIState{Notifications: []Notification{}}}
}

// DefaultState is the state used when nothing usable was persisted: the
// default shop, fully populated with empty tables.
func DefaultState() AppState {
	return FromPersisted(PersistedState{
		Shop:   Shop{Name: DefaultShopName, TotalTables: DefaultTotalTables},
		Tables: EnsureTables(DefaultTotalTables, nil),
	})
}
