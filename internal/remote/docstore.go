package remote

import "context"

// Document is one shop's replicated board state: the serialized
// persisted subset plus the identity of the client that wrote it.
type Document struct {
	ShopID   string `json:"shop_id"`
	Payload  string `json:"payload"`
	WriterID string `json:"writer_id"`
}

// DocumentStore is the remote collaborator contract: a generic document
// store with a change feed. Any backend satisfying it is
// interchangeable; the board treats it purely through these three
// operations.
type DocumentStore interface {
	Fetch(ctx context.Context, shopID string) (Document, bool, error)
	Upsert(ctx context.Context, doc Document) error
	SubscribeToChanges(ctx context.Context, shopID string, fn func(Document)) (stop func(), err error)
}
