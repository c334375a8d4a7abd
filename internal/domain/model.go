package domain

import "strconv"

// TableStatus is the lifecycle state of a table slot.
type TableStatus string

const (
	StatusEmpty     TableStatus = "EMPTY"
	StatusOrdered   TableStatus = "ORDERED"
	StatusPreparing TableStatus = "PREPARING"
	StatusServed    TableStatus = "SERVED"
)

// Valid reports whether s is one of the four known statuses.
func (s TableStatus) Valid() bool {
	switch s {
	case StatusEmpty, StatusOrdered, StatusPreparing, StatusServed:
		return true
	}
	return false
}

const (
	DefaultShopName    = "Roadside Tea Shop"
	DefaultTotalTables = 20
)

// OrderItem is one line of an order. Identity is ID; adding the same
// id again merges by quantity.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Qty      int     `json:"qty"`
	Category string  `json:"category,omitempty"`
}

// PaidBill is an immutable snapshot of an order taken at payment time.
type PaidBill struct {
	PaidAt int64       `json:"paidAt"`
	Amount float64     `json:"amount"`
	Items  []OrderItem `json:"items"`
	Notes  string      `json:"notes"`
}

// Table is one numbered ordering slot. Amount is derived from Items and
// recomputed on every mutation; StartedAt is epoch millis, nil while the
// table is idle.
type Table struct {
	Status       TableStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	Notes        string      `json:"notes"`
	Amount       float64     `json:"amount"`
	StartedAt    *int64      `json:"startedAt"`
	LastPaidBill *PaidBill   `json:"lastPaidBill"`
	BillLog      []PaidBill  `json:"billLog"`
}

type Shop struct {
	Name        string `json:"name"`
	TotalTables int    `json:"totalTables"`
}

// PersistedState is the subset of the application state that is written
// to the local mirror and the remote document. UI state never leaves the
// process.
type PersistedState struct {
	Shop   Shop             `json:"shop"`
	Tables map[string]Table `json:"tables"`
}

// NewEmptyTable returns the canonical zero value of a table. Slices are
// allocated so the table serializes as [] rather than null.
func NewEmptyTable() Table {
	return Table{
		Status:  StatusEmpty,
		Items:   []OrderItem{},
		Notes:   "",
		Amount:  0,
		BillLog: []PaidBill{},
	}
}

// CalculateAmount sums price*qty over items. Stored amounts are never
// trusted; this is the only source of truth.
func CalculateAmount(items []OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Qty)
	}
	return sum
}

// EnsureTables returns a map holding exactly one table per id 1..total,
// reusing in-range entries from existing, synthesizing empty tables for
// missing ids and dropping ids outside the range. Idempotent.
func EnsureTables(total int, existing map[string]Table) map[string]Table {
	next := make(map[string]Table, total)
	for i := 1; i <= total; i++ {
		id := strconv.Itoa(i)
		if t, ok := existing[id]; ok {
			next[id] = t
		} else {
			next[id] = NewEmptyTable()
		}
	}
	return next
}

// TableIDs returns the ordered list of table ids "1".."total".
func TableIDs(total int) []string {
	ids := make([]string, total)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
	}
	return ids
}

// CloneItems deep-copies an item slice.
func CloneItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	copy(out, items)
	return out
}
