package projector

import (
	"context"
	"fmt"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
)

type entradaEstoqueData struct {
	ProdutoID  string `json:"produto_id"`
	Nome       string `json:"nome"`
	Quantidade int    `json:"quantidade"`
	Origem     string `json:"origem"`
}

type entradaEstoqueHandler struct {
	inventory repository.InventoryStateRepository
}

func (h *entradaEstoqueHandler) Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error {
	var data entradaEstoqueData
	if err := decodeData(e, &data); err != nil {
		return err
	}
	if data.ProdutoID == "" {
		return fmt.Errorf("%w: entrada_estoque requires produto_id", fusion_errors.ErrInvalidInput)
	}
	if data.Quantidade <= 0 {
		return fmt.Errorf("%w: entrada_estoque requires a positive quantidade", fusion_errors.ErrInvalidInput)
	}
	applied, err := stockAlreadyAdjusted(ctx, h.inventory, data.ProdutoID, e.ID)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	return h.inventory.AdjustStock(ctx, data.ProdutoID, data.Nome, data.Quantidade, e.ID, e.Timestamp)
}
