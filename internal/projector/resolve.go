package projector

import (
	"context"
	"errors"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// Aggregate kinds a dispute can land on.
const (
	aggregateOrder     = "order"
	aggregateInventory = "inventory"
)

// targetResolver maps a foreign event id onto the aggregate that event
// belongs to. Disputes reference an event id, not a business key, so the
// target event must be re-read to find its owning aggregate.
type targetResolver struct {
	events repository.LogEventRepository
	log    *logger.Logger
}

// resolve returns the aggregate kind and natural key for the target event.
// An unresolvable target (missing event, unknown owning aggregate) returns
// empty values with no error; only storage failures are errors.
func (r *targetResolver) resolve(ctx context.Context, targetLogID string) (string, string, error) {
	target, err := r.events.GetByID(ctx, targetLogID)
	if err != nil {
		if errors.Is(err, fusion_errors.ErrNotFound) {
			r.log.Logger.Warn("dispute target event not found",
				zap.String("target_log_id", targetLogID))
			return "", "", nil
		}
		return "", "", err
	}

	switch target.Type {
	case logevent.TypeRegistrarVenda:
		if id, ok := target.Data["order_id"].(string); ok && id != "" {
			return aggregateOrder, id, nil
		}
		return aggregateOrder, OrderIDForEvent(target.ID), nil
	case logevent.TypeEntradaEstoque:
		if id, ok := target.Data["produto_id"].(string); ok && id != "" {
			return aggregateInventory, id, nil
		}
	default:
		// Fall back on explicit keys in the target payload.
		if id, ok := target.Data["order_id"].(string); ok && id != "" {
			return aggregateOrder, id, nil
		}
		if id, ok := target.Data["produto_id"].(string); ok && id != "" {
			return aggregateInventory, id, nil
		}
	}

	r.log.Logger.Warn("dispute target event has no resolvable aggregate",
		zap.String("target_log_id", targetLogID),
		zap.String("target_type", target.Type))
	return "", "", nil
}
