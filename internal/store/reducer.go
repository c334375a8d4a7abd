package store

import "teaboard/internal/domain"

// Reduce applies one action to the state and returns the next state.
// Pure and total: it never fails, and an action referencing a table id
// that does not exist returns the state unchanged. now is the current
// time in epoch millis; the caller injects it so the reducer stays
// deterministic under test.
func Reduce(s domain.AppState, a Action, now int64) domain.AppState {
	switch act := a.(type) {
	case SelectTable:
		s.UI.SelectedTableID = act.TableID
		return s

	case OpenModal:
		s.UI.ActiveModal = act.Modal
		return s

	case CloseModal:
		s.UI.ActiveModal = ""
		return s

	case UpdateTableStatus:
		prev, ok := s.Tables[act.TableID]
		if !ok {
			return s
		}
		next := prev
		next.Status = act.Status
		switch {
		case act.Status == domain.StatusEmpty:
			next.StartedAt = nil
		case prev.StartedAt == nil && len(prev.Items) > 0:
			next.StartedAt = ptr(now)
		}
		s = withTable(s, act.TableID, next)
		// a table leaving ORDERED no longer has a pending new-order toast
		if act.Status != domain.StatusOrdered {
			s.UI.Notifications = pruneNewOrder(s.UI.Notifications, act.TableID)
		}
		return s

	case AddItem:
		prev, ok := s.Tables[act.TableID]
		if !ok {
			return s
		}
		next := prev
		next.Items = mergeItem(prev.Items, act.Item, act.Qty)
		next.Amount = domain.CalculateAmount(next.Items)
		if prev.Status == domain.StatusEmpty {
			// staff typing a walk-in order; no separate place-order step
			next.Status = domain.StatusOrdered
		}
		if prev.StartedAt == nil {
			next.StartedAt = ptr(now)
		}
		return withTable(s, act.TableID, next)

	case DecrementItem:
		prev, ok := s.Tables[act.TableID]
		if !ok {
			return s
		}
		items, found := decrementItem(prev.Items, act.ItemID)
		if !found {
			return s
		}
		return withTable(s, act.TableID, afterStaffItemEdit(prev, items, now))

	case RemoveItem:
		prev, ok := s.Tables[act.TableID]
		if !ok {
			return s
		}
		items, changed := removeItem(prev.Items, act.ItemID)
		if !changed {
			return s
		}
		return withTable(s, act.TableID, afterStaffItemEdit(prev, items, now))

	case SetNotes:
		prev, ok := s.Tables[act.TableID]
		if !ok {
			return s
		}
		next := prev
		next.Notes = act.Notes
		return withTable(s, act.TableID, next)

	case MarkPaid:
		prev, ok := s.Tables[act.TableID]
		if !ok || prev.Amount <= 0 {
			return s
		}
		paid := domain.PaidBill{
			PaidAt: now,
			Amount: prev.Amount,
			Items:  domain.CloneItems(prev.Items),
			Notes:  prev.Notes,
		}
		next := domain.NewEmptyTable()
		next.LastPaidBill = &paid
		next.BillLog = append(append([]domain.PaidBill{}, prev.BillLog...), paid)
		return withTable(s, act.TableID, next)

	case ClearTable:
		if _, ok := s.Tables[act.TableID]; !ok {
			return s
		}
		s = withTable(s, act.TableID, domain.NewEmptyTable())
		s.UI.Notifications = pruneNewOrder(s.UI.Notifications, act.TableID)
		return s

	case CustomerAddItem:
		prev, ok := s.Tables[act.TableID]
		if !ok || prev.Status != domain.StatusEmpty {
			return s
		}
		next := prev
		next.Items = mergeItem(prev.Items, act.Item, act.Qty)
		next.Amount = domain.CalculateAmount(next.Items)
		// still browsing: status and timer untouched until PlaceOrder
		return withTable(s, act.TableID, next)

	case CustomerDecrementItem:
		prev, ok := s.Tables[act.TableID]
		if !ok || prev.Status != domain.StatusEmpty {
			return s
		}
		items, found := decrementItem(prev.Items, act.ItemID)
		if !found {
			return s
		}
		next := prev
		next.Items = items
		next.Amount = domain.CalculateAmount(items)
		return withTable(s, act.TableID, next)

	case CustomerRemoveItem:
		prev, ok := s.Tables[act.TableID]
		if !ok || prev.Status != domain.StatusEmpty {
			return s
		}
		items, changed := removeItem(prev.Items, act.ItemID)
		if !changed {
			return s
		}
		next := prev
		next.Items = items
		next.Amount = domain.CalculateAmount(items)
		return withTable(s, act.TableID, next)

	case PlaceOrder:
		prev, ok := s.Tables[act.TableID]
		if !ok || prev.Status != domain.StatusEmpty || len(prev.Items) == 0 {
			return s
		}
		next := prev
		next.Status = domain.StatusOrdered
		next.StartedAt = ptr(now)
		return withTable(s, act.TableID, next)

	case PushNotification:
		notifs := append(append([]domain.Notification{}, s.UI.Notifications...), act.Notification)
		if len(notifs) > domain.MaxNotifications {
			notifs = notifs[len(notifs)-domain.MaxNotifications:]
		}
		s.UI.Notifications = notifs
		return s

	case DismissNotification:
		notifs := make([]domain.Notification, 0, len(s.UI.Notifications))
		for _, n := range s.UI.Notifications {
			if n.ID != act.ID {
				notifs = append(notifs, n)
			}
		}
		s.UI.Notifications = notifs
		return s

	case ReplaceFromStorage:
		normalized := domain.NormalizePersisted(act.Persisted)
		// keep a NEW_ORDER toast only while the incoming document still
		// shows that table as ORDERED
		notifs := make([]domain.Notification, 0, len(s.UI.Notifications))
		for _, n := range s.UI.Notifications {
			if n.Kind == domain.NoteNewOrder {
				if t, ok := normalized.Tables[n.TableID]; !ok || t.Status != domain.StatusOrdered {
					continue
				}
			}
			notifs = append(notifs, n)
		}
		s.Shop = normalized.Shop
		s.Tables = normalized.Tables
		s.UI.Notifications = notifs
		return s
	}

	return s
}

// afterStaffItemEdit applies the shared rules for staff item removal:
// an emptied table falls back to EMPTY with no timer, while any
// remaining items imply an active order (a table being edited by staff
// is never a half-built cart).
func afterStaffItemEdit(prev domain.Table, items []domain.OrderItem, now int64) domain.Table {
	next := prev
	next.Items = items
	next.Amount = domain.CalculateAmount(items)
	if len(items) == 0 {
		next.Status = domain.StatusEmpty
		next.StartedAt = nil
		return next
	}
	if prev.Status == domain.StatusEmpty {
		next.Status = domain.StatusOrdered
	}
	if prev.StartedAt == nil {
		next.StartedAt = ptr(now)
	}
	return next
}

func withTable(s domain.AppState, id string, t domain.Table) domain.AppState {
	tables := make(map[string]domain.Table, len(s.Tables))
	for k, v := range s.Tables {
		tables[k] = v
	}
	tables[id] = t
	s.Tables = tables
	return s
}

func mergeItem(items []domain.OrderItem, item domain.OrderItem, qty int) []domain.OrderItem {
	if qty <= 0 {
		qty = 1
	}
	next := domain.CloneItems(items)
	for i, it := range next {
		if it.ID == item.ID {
			next[i].Qty += qty
			return next
		}
	}
	item.Qty = qty
	return append(next, item)
}

func decrementItem(items []domain.OrderItem, itemID string) ([]domain.OrderItem, bool) {
	for i, it := range items {
		if it.ID != itemID {
			continue
		}
		next := domain.CloneItems(items)
		if it.Qty <= 1 {
			return append(next[:i], next[i+1:]...), true
		}
		next[i].Qty--
		return next, true
	}
	return items, false
}

func removeItem(items []domain.OrderItem, itemID string) ([]domain.OrderItem, bool) {
	next := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		if it.ID != itemID {
			next = append(next, it)
		}
	}
	return next, len(next) != len(items)
}

func pruneNewOrder(notifs []domain.Notification, tableID string) []domain.Notification {
	next := make([]domain.Notification, 0, len(notifs))
	for _, n := range notifs {
		if n.Kind == domain.NoteNewOrder && n.TableID == tableID {
			continue
		}
		next = append(next, n)
	}
	return next
}

func ptr(ms int64) *int64 { return &ms }
