package projector

import (
	"context"
	"errors"
	"fmt"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

type despachoCriadoData struct {
	AcionamentoEventID string `json:"acionamento_event_id"`
	TargetLogID        string `json:"target_log_id"`
	AggregateKind      string `json:"aggregate_kind"`
	AggregateKey       string `json:"aggregate_key"`
}

// despachoCriadoHandler records the system-issued despacho back onto the
// aggregate the originating dispute landed on.
type despachoCriadoHandler struct {
	orders repository.OrderStateRepository
	log    *logger.Logger
}

func (h *despachoCriadoHandler) Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error {
	var data despachoCriadoData
	if err := decodeData(e, &data); err != nil {
		return err
	}
	if data.AcionamentoEventID == "" {
		return fmt.Errorf("%w: despacho_criado requires acionamento_event_id", fusion_errors.ErrInvalidInput)
	}
	if data.AggregateKind != aggregateOrder || data.AggregateKey == "" {
		// Despachos only annotate order aggregates today.
		return nil
	}

	order, err := h.orders.Get(ctx, data.AggregateKey)
	if err != nil {
		if errors.Is(err, fusion_errors.ErrNotFound) {
			h.log.Logger.Warn("despacho target order aggregate not found",
				zap.String("event_id", e.ID), zap.String("order_id", data.AggregateKey))
			return nil
		}
		return err
	}
	if order.Meta == nil {
		order.Meta = make(map[string]interface{})
	}
	order.Meta[state.MetaLastDespachoEventID] = e.ID
	order.Touch(e.ID, e.Timestamp)
	return h.orders.Upsert(ctx, order)
}
