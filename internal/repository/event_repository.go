// internal/repository/event_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
)

// ErrReadOnly is returned by stores that cannot append events.
var ErrReadOnly = errors.New("event store is read-only")

// EventSource delivers the full event table in arrival order.
type EventSource interface {
	ListRecords(ctx context.Context) ([]domain.Record, error)
}

// EventSink durably appends new events after the existing ones.
type EventSink interface {
	AppendRecords(ctx context.Context, records []domain.Record) error
}

// EventStore is a source that can also be appended to.
type EventStore interface {
	EventSource
	EventSink
	// Name identifies the backend in logs, metrics and cache keys.
	Name() string
}

// CatalogSource is implemented by stores that keep an item list next to the
// event table.
type CatalogSource interface {
	ListCatalog(ctx context.Context) ([]domain.CatalogItem, error)
}
