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

type logAcionadoData struct {
	TargetLogID     string                 `json:"target_log_id"`
	AcionamentoType string                 `json:"acionamento_type"`
	Motivo          string                 `json:"motivo"`
	Detalhes        map[string]interface{} `json:"detalhes"`
}

type logAcionadoHandler struct {
	resolver  *targetResolver
	orders    repository.OrderStateRepository
	inventory repository.InventoryStateRepository
	log       *logger.Logger
}

func (h *logAcionadoHandler) Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error {
	var data logAcionadoData
	if err := decodeData(e, &data); err != nil {
		return err
	}
	if data.TargetLogID == "" {
		return fmt.Errorf("%w: log_acionado requires target_log_id", fusion_errors.ErrInvalidInput)
	}

	kind, key, err := h.resolver.resolve(ctx, data.TargetLogID)
	if err != nil {
		return err
	}
	if kind == "" {
		// Missing cross-reference: tolerated as a no-op.
		return nil
	}

	info := state.AcionamentoInfo{
		LogAcionamentoEventID: e.ID,
		AcionamentoType:       data.AcionamentoType,
		Author:                e.Author,
		Timestamp:             e.Timestamp,
		Motivo:                data.Motivo,
		Status:                state.AcionamentoPendente,
	}

	switch kind {
	case aggregateOrder:
		order, err := h.orders.Get(ctx, key)
		if err != nil {
			if errors.Is(err, fusion_errors.ErrNotFound) {
				h.log.Logger.Warn("dispute target order aggregate not found",
					zap.String("event_id", e.ID), zap.String("order_id", key))
				return nil
			}
			return err
		}
		if order.LastLogEventID == e.ID {
			// Already folded by an earlier apply of this event.
			return nil
		}
		order.RegisterAcionamento(info, e.ID, e.Timestamp)
		if err := h.orders.Upsert(ctx, order); err != nil {
			return err
		}
	case aggregateInventory:
		item, err := h.inventory.Get(ctx, key)
		if err != nil {
			if errors.Is(err, fusion_errors.ErrNotFound) {
				h.log.Logger.Warn("dispute target inventory aggregate not found",
					zap.String("event_id", e.ID), zap.String("produto_id", key))
				return nil
			}
			return err
		}
		if item.LastLogEventID == e.ID {
			return nil
		}
		item.RegisterAcionamento(info, e.ID, e.Timestamp)
		if err := h.inventory.Upsert(ctx, item); err != nil {
			return err
		}
	}

	out.suggest(logevent.TypeDespachoCriado, map[string]interface{}{
		"acionamento_event_id": e.ID,
		"target_log_id":        data.TargetLogID,
		"aggregate_kind":       kind,
		"aggregate_key":        key,
	})
	return nil
}
