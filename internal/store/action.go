package store

import "teaboard/internal/domain"

// Action is the closed set of commands the reducer understands. Every
// state mutation in the system, local or inbound from another process,
// goes through one of these.
type Action interface {
	isAction()
}

// UI-only actions; no table mutation.
type (
	SelectTable struct{ TableID string } // empty id clears the selection
	OpenModal   struct{ Modal string }
	CloseModal  struct{}
)

// Staff actions; valid against any occupied or empty table.
type (
	UpdateTableStatus struct {
		TableID string
		Status  domain.TableStatus
	}
	AddItem struct {
		TableID string
		Item    domain.OrderItem // Qty on the item is ignored
		Qty     int              // <=0 means 1
	}
	DecrementItem struct{ TableID, ItemID string }
	RemoveItem    struct{ TableID, ItemID string }
	SetNotes      struct{ TableID, Notes string }
	MarkPaid      struct{ TableID string }
	ClearTable    struct{ TableID string }
)

// Customer self-service actions; only valid while the table is still
// EMPTY (cart being built), and the cart becomes an order only through
// PlaceOrder.
type (
	CustomerAddItem struct {
		TableID string
		Item    domain.OrderItem
		Qty     int
	}
	CustomerDecrementItem struct{ TableID, ItemID string }
	CustomerRemoveItem    struct{ TableID, ItemID string }
	PlaceOrder            struct{ TableID string }
)

// Notification actions.
type (
	PushNotification    struct{ Notification domain.Notification }
	DismissNotification struct{ ID string }
)

// ReplaceFromStorage re-enters a document received from the local
// mirror or the remote feed through the reducer.
type ReplaceFromStorage struct{ Persisted domain.PersistedState }

func (SelectTable) isAction()           {}
func (OpenModal) isAction()             {}
func (CloseModal) isAction()            {}
func (UpdateTableStatus) isAction()     {}
func (AddItem) isAction()               {}
func (DecrementItem) isAction()         {}
func (RemoveItem) isAction()            {}
func (SetNotes) isAction()              {}
func (MarkPaid) isAction()              {}
func (ClearTable) isAction()            {}
func (CustomerAddItem) isAction()       {}
func (CustomerDecrementItem) isAction() {}
func (CustomerRemoveItem) isAction()    {}
func (PlaceOrder) isAction()            {}
func (PushNotification) isAction()      {}
func (DismissNotification) isAction()   {}
func (ReplaceFromStorage) isAction()    {}

// Name returns the wire/metrics label of an action.
func Name(a Action) string {
	switch a.(type) {
	case SelectTable:
		return "SELECT_TABLE"
	case OpenModal:
		return "OPEN_MODAL"
	case CloseModal:
		return "CLOSE_MODAL"
	case UpdateTableStatus:
		return "UPDATE_TABLE_STATUS"
	case AddItem:
		return "ADD_ITEM"
	case DecrementItem:
		return "DECREMENT_ITEM"
	case RemoveItem:
		return "REMOVE_ITEM"
	case SetNotes:
		return "SET_NOTES"
	case MarkPaid:
		return "MARK_PAID"
	case ClearTable:
		return "CLEAR_TABLE"
	case CustomerAddItem:
		return "CUSTOMER_ADD_ITEM"
	case CustomerDecrementItem:
		return "CUSTOMER_DECREMENT_ITEM"
	case CustomerRemoveItem:
		return "CUSTOMER_REMOVE_ITEM"
	case PlaceOrder:
		return "PLACE_ORDER"
	case PushNotification:
		return "PUSH_NOTIFICATION"
	case DismissNotification:
		return "DISMISS_NOTIFICATION"
	case ReplaceFromStorage:
		return "REPLACE_FROM_STORAGE"
	}
	return "UNKNOWN"
}
