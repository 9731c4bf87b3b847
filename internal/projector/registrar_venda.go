package projector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
)

type vendaItem struct {
	ProdutoID     string  `json:"produto_id"`
	Nome          string  `json:"nome"`
	Quantidade    int     `json:"quantidade"`
	PrecoUnitario float64 `json:"preco_unitario"`
}

type vendaData struct {
	OrderID    string      `json:"order_id"`
	Cliente    string      `json:"cliente"`
	Itens      []vendaItem `json:"itens"`
	ValorTotal *float64    `json:"valor_total"`
}

type registrarVendaHandler struct {
	orders    repository.OrderStateRepository
	inventory repository.InventoryStateRepository
}

func (h *registrarVendaHandler) Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error {
	var data vendaData
	if err := decodeData(e, &data); err != nil {
		return err
	}
	if len(data.Itens) == 0 {
		return fmt.Errorf("%w: registrar_venda requires at least one item", fusion_errors.ErrInvalidInput)
	}
	for _, item := range data.Itens {
		if item.ProdutoID == "" {
			return fmt.Errorf("%w: registrar_venda item missing produto_id", fusion_errors.ErrInvalidInput)
		}
	}

	orderID := data.OrderID
	if orderID == "" {
		orderID = OrderIDForEvent(e.ID)
	}

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		if !errors.Is(err, fusion_errors.ErrNotFound) {
			return err
		}
		order = &state.Order{OrderID: orderID}
	}

	order.Status = state.OrderRegistrada
	if data.Cliente != "" {
		order.Cliente = data.Cliente
	}
	order.Itens = make([]state.OrderItem, 0, len(data.Itens))
	total := 0.0
	for _, item := range data.Itens {
		order.Itens = append(order.Itens, state.OrderItem{
			ProdutoID:     item.ProdutoID,
			Nome:          item.Nome,
			Quantidade:    item.Quantidade,
			PrecoUnitario: item.PrecoUnitario,
		})
		total += float64(item.Quantidade) * item.PrecoUnitario
	}
	order.ItemCount = len(data.Itens)
	if data.ValorTotal != nil {
		order.ValorTotal = *data.ValorTotal
	} else {
		order.ValorTotal = total
	}
	order.Touch(e.ID, e.Timestamp)

	if err := h.orders.Upsert(ctx, order); err != nil {
		return err
	}

	// Stock may go negative; the core does not enforce non-negativity.
	// Deltas are aggregated per product and skipped when this event already
	// touched the aggregate, so a replayed projection never double-counts.
	deltas := make(map[string]int, len(data.Itens))
	nomes := make(map[string]string, len(data.Itens))
	produtos := make([]string, 0, len(data.Itens))
	for _, item := range data.Itens {
		if _, seen := deltas[item.ProdutoID]; !seen {
			produtos = append(produtos, item.ProdutoID)
		}
		deltas[item.ProdutoID] -= item.Quantidade
		if item.Nome != "" {
			nomes[item.ProdutoID] = item.Nome
		}
	}
	for _, produtoID := range produtos {
		applied, err := stockAlreadyAdjusted(ctx, h.inventory, produtoID, e.ID)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := h.inventory.AdjustStock(ctx, produtoID, nomes[produtoID], deltas[produtoID], e.ID, e.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

// OrderIDForEvent derives a deterministic order key from the sale event id so
// re-applying the projection resolves the same aggregate.
func OrderIDForEvent(eventID string) string {
	return "ord_" + strings.TrimPrefix(eventID, "evt_")
}
