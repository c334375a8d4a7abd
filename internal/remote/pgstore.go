package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"teaboard/internal/connections/database"
	"teaboard/internal/connections/rabbitmq"
)

// SyncExchange carries change events, routed by shop id so unrelated
// shops sharing the broker never see each other's documents.
const SyncExchange = "board_sync_topic"

func routingKey(shopID string) string { return "board." + shopID }

// PGStore is the DocumentStore backend in use: the document lives in a
// Postgres row (last write wins at the row level) and every upsert is
// announced on a RabbitMQ topic exchange as the change feed.
type PGStore struct {
	db  *database.Conn
	mq  *rabbitmq.Client
	log *zap.SugaredLogger
}

func NewPGStore(db *database.Conn, mq *rabbitmq.Client, lg *zap.SugaredLogger) *PGStore {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &PGStore{db: db, mq: mq, log: lg}
}

// EnsureSchema creates the document table and the sync exchange.
func (p *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS shop_documents (
			shop_id    TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			writer_id  TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create shop_documents: %w", err)
	}
	if err := p.mq.DeclareTopic(SyncExchange); err != nil {
		return fmt.Errorf("failed to declare sync exchange: %w", err)
	}
	return nil
}

func (p *PGStore) Fetch(ctx context.Context, shopID string) (Document, bool, error) {
	var doc Document
	doc.ShopID = shopID
	err := p.db.QueryRow(ctx,
		`SELECT payload, writer_id FROM shop_documents WHERE shop_id = $1`, shopID).
		Scan(&doc.Payload, &doc.WriterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("failed to fetch document: %w", err)
	}
	return doc, true, nil
}

func (p *PGStore) Upsert(ctx context.Context, doc Document) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO shop_documents (shop_id, payload, writer_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (shop_id) DO UPDATE
		SET payload = EXCLUDED.payload, writer_id = EXCLUDED.writer_id, updated_at = NOW()`,
		doc.ShopID, doc.Payload, doc.WriterID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := p.mq.Publish(ctx, SyncExchange, routingKey(doc.ShopID), body); err != nil {
		// the row is stored; only the announcement was lost
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (p *PGStore) SubscribeToChanges(ctx context.Context, shopID string, fn func(Document)) (func(), error) {
	deliveries, cancel, err := p.mq.Subscribe(SyncExchange, routingKey(shopID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var doc Document
				if err := json.Unmarshal(d.Body, &doc); err != nil {
					p.log.Warnw("change_event_unmarshal_failed", "error", err)
					continue
				}
				if doc.ShopID != shopID {
					continue
				}
				fn(doc)
			}
		}
	}()
	return cancel, nil
}
