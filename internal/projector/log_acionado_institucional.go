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

type logAcionadoInstitucionalData struct {
	TargetLogID      string              `json:"target_log_id"`
	AcionamentoType  string              `json:"acionamento_type"`
	MotivoDetalhado  string              `json:"motivo_detalhado"`
	EvidenciasAnexas []map[string]string `json:"evidencias_anexas"`
}

type logAcionadoInstitucionalHandler struct {
	resolver  *targetResolver
	orders    repository.OrderStateRepository
	inventory repository.InventoryStateRepository
	log       *logger.Logger
}

func (h *logAcionadoInstitucionalHandler) Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error {
	var data logAcionadoInstitucionalData
	if err := decodeData(e, &data); err != nil {
		return err
	}
	if data.TargetLogID == "" {
		return fmt.Errorf("%w: log_acionado_institucionalmente requires target_log_id", fusion_errors.ErrInvalidInput)
	}
	if !state.IsAcionamentoInstitucionalType(data.AcionamentoType) {
		return fmt.Errorf("%w: unknown acionamento_type %q", fusion_errors.ErrInvalidInput, data.AcionamentoType)
	}

	kind, key, err := h.resolver.resolve(ctx, data.TargetLogID)
	if err != nil {
		return err
	}
	if kind == "" {
		return nil
	}

	info := state.LitigioInstitucionalInfo{
		LogAcionamentoEventID: e.ID,
		AcionamentoType:       data.AcionamentoType,
		AuthorAcionamento:     e.Author,
		TimestampAcionamento:  e.Timestamp,
		Motivo:                data.MotivoDetalhado,
		StatusLitigio:         state.LitigioAberto,
	}

	switch kind {
	case aggregateOrder:
		order, err := h.orders.Get(ctx, key)
		if err != nil {
			if errors.Is(err, fusion_errors.ErrNotFound) {
				h.log.Logger.Warn("litigio target order aggregate not found",
					zap.String("event_id", e.ID), zap.String("order_id", key))
				return nil
			}
			return err
		}
		if order.LastLogEventID == e.ID {
			// Already folded by an earlier apply of this event.
			return nil
		}
		order.RegisterLitigio(info, e.ID, e.Timestamp)
		return h.orders.Upsert(ctx, order)
	case aggregateInventory:
		item, err := h.inventory.Get(ctx, key)
		if err != nil {
			if errors.Is(err, fusion_errors.ErrNotFound) {
				h.log.Logger.Warn("litigio target inventory aggregate not found",
					zap.String("event_id", e.ID), zap.String("produto_id", key))
				return nil
			}
			return err
		}
		if item.LastLogEventID == e.ID {
			return nil
		}
		item.RegisterLitigio(info, e.ID, e.Timestamp)
		return h.inventory.Upsert(ctx, item)
	}
	return nil
}
