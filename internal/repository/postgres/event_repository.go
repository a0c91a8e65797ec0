// internal/repository/postgres/event_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS inventory_events (
	id          BIGSERIAL PRIMARY KEY,
	event_date  DATE NOT NULL,
	item        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	quantity    DOUBLE PRECISION NOT NULL CHECK (quantity >= 0),
	unit        TEXT NOT NULL DEFAULT '',
	unit_price  NUMERIC(14, 4),
	total_cost  NUMERIC(14, 4),
	kind        TEXT NOT NULL CHECK (kind IN ('purchase', 'remainder')),
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_inventory_events_item_date ON inventory_events (item, event_date);

CREATE TABLE IF NOT EXISTS inventory_items (
	name      TEXT PRIMARY KEY,
	category  TEXT NOT NULL DEFAULT '',
	unit      TEXT NOT NULL DEFAULT '',
	tracking  TEXT NOT NULL DEFAULT '',
	notes     TEXT NOT NULL DEFAULT ''
);
`

const insertEventQuery = `
	INSERT INTO inventory_events (
		event_date, item, category, quantity, unit,
		unit_price, total_cost, kind, notes
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type eventRepository struct {
	db *DB
}

// NewEventRepository returns a postgres-backed event store.
func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Name() string { return "postgres" }

// Migrate creates the tables when they do not exist yet.
func (r *eventRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate inventory schema: %w", err)
	}
	return nil
}

// ListRecords returns all events in insertion order.
func (r *eventRepository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	query := `
		SELECT item, event_date, kind, quantity, unit, unit_price, total_cost, category, notes
		FROM inventory_events
		ORDER BY id
	`

	records := []domain.Record{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory events: %w", err)
	}
	return records, nil
}

func (r *eventRepository) AppendRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertEventQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, insertArgs(rec)...); err != nil {
				return fmt.Errorf("failed to insert event for %s: %w", rec.Item, err)
			}
		}
		return nil
	})
}

// ListCatalog returns the item list kept next to the events.
func (r *eventRepository) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	items := []domain.CatalogItem{}
	query := `SELECT name, category, unit, tracking, notes FROM inventory_items ORDER BY name`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

// UpsertCatalog writes catalog entries, replacing existing ones by name.
func (r *eventRepository) UpsertCatalog(ctx context.Context, items []domain.CatalogItem) error {
	query := `
		INSERT INTO inventory_items (name, category, unit, tracking, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name)
		DO UPDATE SET
			category = EXCLUDED.category,
			unit = EXCLUDED.unit,
			tracking = EXCLUDED.tracking,
			notes = EXCLUDED.notes
	`
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, query, item.Name, item.Category, item.Unit, string(item.Tracking), item.Notes); err != nil {
				return fmt.Errorf("failed to upsert item %s: %w", item.Name, err)
			}
		}
		return nil
	})
}

func insertArgs(rec domain.Record) []interface{} {
	var quantity interface{}
	if rec.Quantity != nil {
		quantity = *rec.Quantity
	}
	var unitPrice, totalCost interface{}
	if rec.UnitPrice != nil {
		unitPrice = rec.UnitPrice.String()
	}
	if rec.TotalCost != nil {
		totalCost = rec.TotalCost.String()
	}

	return []interface{}{
		rec.Date,
		rec.Item,
		rec.Category,
		quantity,
		rec.Unit,
		unitPrice,
		totalCost,
		string(rec.Kind),
		rec.Notes,
	}
}
