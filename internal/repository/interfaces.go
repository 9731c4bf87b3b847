package repository

import (
	"context"
	"time"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
)

// LogEventRepository is the append-only event store. Insert is the only way
// an event's core fields ever reach the database; the consequence transition
// is the only permitted mutation afterwards.
type LogEventRepository interface {
	Insert(ctx context.Context, e *logevent.LogEvent) error
	GetByID(ctx context.Context, id string) (*logevent.LogEvent, error)
	Query(ctx context.Context, f logevent.Filter) ([]logevent.LogEvent, int64, error)

	// TriggerConsequence performs the one-time awaiting_trigger -> triggered
	// transition on the event's consequence slot, stamping the triggering
	// event id. Returns ErrNotFound if the event does not exist and
	// ErrConflict if the slot is absent or already triggered.
	TriggerConsequence(ctx context.Context, eventID, triggeredByEventID string, at time.Time) error
}

// OrderStateRepository holds the order current-state aggregates.
type OrderStateRepository interface {
	Get(ctx context.Context, orderID string) (*state.Order, error)
	Upsert(ctx context.Context, o *state.Order) error
}

// InventoryStateRepository holds the inventory current-state aggregates.
type InventoryStateRepository interface {
	Get(ctx context.Context, produtoID string) (*state.InventoryItem, error)
	Upsert(ctx context.Context, i *state.InventoryItem) error

	// AdjustStock atomically adds delta to the item's stock, creating the
	// aggregate on first reference and bumping its causal pointers.
	AdjustStock(ctx context.Context, produtoID, nome string, delta int, eventID string, at time.Time) error
}
