package domain

import "encoding/json"

// NormalizePersisted defensively reconstructs a persisted document:
// every table slot 1..totalTables exists, amounts are recomputed from
// items, lastPaidBill is derived from the bill log tail when absent, and
// a table with no items is forced back to EMPTY with no timer. Safe to
// call on any input shape; degrades to defaults.
func NormalizePersisted(p PersistedState) PersistedState {
	total := p.Shop.TotalTables
	if total < 1 {
		total = DefaultTotalTables
	}
	name := p.Shop.Name
	if name == "" {
		name = DefaultShopName
	}

	tables := EnsureTables(total, p.Tables)
	for id, t := range tables {
		if t.Items == nil {
			t.Items = []OrderItem{}
		}
		if t.BillLog == nil {
			t.BillLog = []PaidBill{}
		}
		t.Amount = CalculateAmount(t.Items)
		if t.LastPaidBill == nil && len(t.BillLog) > 0 {
			last := t.BillLog[len(t.BillLog)-1]
			t.LastPaidBill = &last
		}
		if len(t.Items) == 0 {
			t.Status = StatusEmpty
			t.StartedAt = nil
		} else if !t.Status.Valid() {
			// unknown status with items present: treat as an active order
			t.Status = StatusOrdered
		}
		tables[id] = t
	}

	return PersistedState{Shop: Shop{Name: name, TotalTables: total}, Tables: tables}
}

// EncodePersisted serializes a persisted document. Map keys marshal in
// sorted order, so equal states always produce equal bytes; the mirror
// and the sync adapter rely on that for echo suppression.
func EncodePersisted(p PersistedState) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePersisted parses a raw document without trusting its shape.
// Wrong-typed fields are coerced to safe defaults rather than failing;
// only input that is not a JSON object at the top level returns an
// error. The result is already normalized. Documents that accidentally
// include a ui section (old full-state dumps) decode fine since unknown
// keys are ignored.
func DecodePersisted(raw []byte) (PersistedState, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return PersistedState{}, err
	}

	var p PersistedState
	if shopRaw, ok := doc["shop"]; ok {
		var shop map[string]any
		if json.Unmarshal(shopRaw, &shop) == nil {
			p.Shop.Name = asString(shop["name"])
			p.Shop.TotalTables = int(asNumber(shop["totalTables"]))
		}
	}
	if tablesRaw, ok := doc["tables"]; ok {
		var tables map[string]json.RawMessage
		if json.Unmarshal(tablesRaw, &tables) == nil {
			p.Tables = make(map[string]Table, len(tables))
			for id, tv := range tables {
				p.Tables[id] = decodeTable(tv)
			}
		}
	}
	return NormalizePersisted(p), nil
}

func decodeTable(raw json.RawMessage) Table {
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return NewEmptyTable()
	}
	t := NewEmptyTable()
	t.Status = TableStatus(asString(m["status"]))
	t.Items = asItems(m["items"])
	t.Notes = asString(m["notes"])
	if n, ok := m["startedAt"].(float64); ok {
		ms := int64(n)
		t.StartedAt = &ms
	}
	if bills, ok := m["billLog"].([]any); ok {
		for _, bv := range bills {
			if b, ok := asBill(bv); ok {
				t.BillLog = append(t.BillLog, b)
			}
		}
	}
	if b, ok := asBill(m["lastPaidBill"]); ok {
		t.LastPaidBill = &b
	}
	return t
}

func asBill(v any) (PaidBill, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return PaidBill{}, false
	}
	return PaidBill{
		PaidAt: int64(asNumber(m["paidAt"])),
		Amount: asNumber(m["amount"]),
		Items:  asItems(m["items"]),
		Notes:  asString(m["notes"]),
	}, true
}

func asItems(v any) []OrderItem {
	arr, ok := v.([]any)
	if !ok {
		return []OrderItem{}
	}
	items := make([]OrderItem, 0, len(arr))
	for _, iv := range arr {
		m, ok := iv.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, OrderItem{
			ID:       asString(m["id"]),
			Name:     asString(m["name"]),
			Price:    asNumber(m["price"]),
			Qty:      int(asNumber(m["qty"])),
			Category: asString(m["category"]),
		})
	}
	return items
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNumber(v any) float64 {
	n, _ := v.(float64)
	return n
}
