package projector

import (
	"context"
	"sync"
	"testing"
	"time"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]logevent.LogEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]logevent.LogEvent)}
}

func (r *fakeEventRepo) Insert(_ context.Context, e *logevent.LogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; ok {
		return fusion_errors.ErrAlreadyExists
	}
	r.events[e.ID] = *e
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*logevent.LogEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, fusion_errors.ErrNotFound
	}
	cp := e
	return &cp, nil
}

func (r *fakeEventRepo) Query(_ context.Context, f logevent.Filter) ([]logevent.LogEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []logevent.LogEvent
	for _, e := range r.events {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEventRepo) TriggerConsequence(_ context.Context, eventID, triggeredByEventID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return fusion_errors.ErrNotFound
	}
	if e.Consequence.Type == "" || e.Consequence.Status != logevent.ConsequenceAwaitingTrigger {
		return fusion_errors.ErrConflict
	}
	e.Consequence.Status = logevent.ConsequenceTriggered
	e.Consequence.TriggeredByLogEventID = triggeredByEventID
	e.Consequence.TriggeredAt = &at
	r.events[eventID] = e
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]state.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]state.Order)}
}

func (r *fakeOrderRepo) Get(_ context.Context, orderID string) (*state.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, fusion_errors.ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (r *fakeOrderRepo) Upsert(_ context.Context, o *state.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.OrderID] = *o
	return nil
}

type fakeInventoryRepo struct {
	mu    sync.Mutex
	items map[string]state.InventoryItem
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: make(map[string]state.InventoryItem)}
}

func (r *fakeInventoryRepo) Get(_ context.Context, produtoID string) (*state.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[produtoID]
	if !ok {
		return nil, fusion_errors.ErrNotFound
	}
	cp := i
	return &cp, nil
}

func (r *fakeInventoryRepo) Upsert(_ context.Context, i *state.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[i.ProdutoID] = *i
	return nil
}

func (r *fakeInventoryRepo) AdjustStock(_ context.Context, produtoID, nome string, delta int, eventID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := r.items[produtoID]
	item.ProdutoID = produtoID
	if nome != "" {
		item.Nome = nome
	}
	item.Stock += delta
	item.LastLogEventID = eventID
	item.LastUpdatedAt = at
	r.items[produtoID] = item
	return nil
}

type fixture struct {
	projector *Projector
	events    *fakeEventRepo
	orders    *fakeOrderRepo
	inventory *fakeInventoryRepo
}

func newFixture() *fixture {
	events := newFakeEventRepo()
	orders := newFakeOrderRepo()
	inventory := newFakeInventoryRepo()
	return &fixture{
		projector: New(events, orders, inventory, logger.NewNop()),
		events:    events,
		orders:    orders,
		inventory: inventory,
	}
}

func eventAt(id, eventType string, data map[string]interface{}) *logevent.LogEvent {
	return &logevent.LogEvent{
		ID:        id,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Type:      eventType,
		Author:    "user:maria",
		Witness:   "api_endpoint:/api/v1/logs",
		Data:      data,
	}
}

func TestRegistrarVendaProjectsOrderAndStock(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda1", logevent.TypeRegistrarVenda, map[string]interface{}{
		"cliente": "Maria",
		"itens": []interface{}{
			map[string]interface{}{"produto_id": "prod_a", "nome": "Bolo", "quantidade": 2, "preco_unitario": 10.0},
			map[string]interface{}{"produto_id": "prod_b", "nome": "Suco", "quantidade": 3, "preco_unitario": 5.0},
		},
	})

	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)

	order, err := f.orders.Get(context.Background(), OrderIDForEvent("evt_venda1"))
	require.NoError(t, err)
	assert.Equal(t, state.OrderRegistrada, order.Status)
	assert.Equal(t, "Maria", order.Cliente)
	assert.Equal(t, 2, order.ItemCount)
	assert.Equal(t, 35.0, order.ValorTotal)
	assert.Equal(t, "evt_venda1", order.LastLogEventID)
	assert.Equal(t, e.Timestamp, order.LastUpdatedAt)

	a, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	assert.Equal(t, -2, a.Stock)
	b, err := f.inventory.Get(context.Background(), "prod_b")
	require.NoError(t, err)
	assert.Equal(t, -3, b.Stock)
}

func TestRegistrarVendaHonorsExplicitOrderIDAndTotal(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda2", logevent.TypeRegistrarVenda, map[string]interface{}{
		"order_id":    "ord_custom",
		"valor_total": 99.9,
		"itens": []interface{}{
			map[string]interface{}{"produto_id": "prod_a", "quantidade": 1, "preco_unitario": 10.0},
		},
	})

	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	order, err := f.orders.Get(context.Background(), "ord_custom")
	require.NoError(t, err)
	assert.Equal(t, 99.9, order.ValorTotal)
	assert.Equal(t, 1, order.ItemCount)
}

func TestRegistrarVendaRejectsEmptyItens(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda3", logevent.TypeRegistrarVenda, map[string]interface{}{
		"itens": []interface{}{},
	})
	_, err := f.projector.Apply(context.Background(), e)
	assert.ErrorIs(t, err, fusion_errors.ErrInvalidInput)
}

func TestRegistrarVendaRejectsMalformedData(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda4", logevent.TypeRegistrarVenda, map[string]interface{}{
		"itens": "not a list",
	})
	_, err := f.projector.Apply(context.Background(), e)
	assert.ErrorIs(t, err, fusion_errors.ErrInvalidInput)
}

func TestEntradaEstoqueIncrementsStock(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_est1", logevent.TypeEntradaEstoque, map[string]interface{}{
		"produto_id": "prod_a",
		"nome":       "Bolo",
		"quantidade": 10,
	})
	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	item, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	assert.Equal(t, 10, item.Stock)
	assert.Equal(t, "evt_est1", item.LastLogEventID)
}

func TestEntradaEstoqueRejectsNonPositiveQuantidade(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_est2", logevent.TypeEntradaEstoque, map[string]interface{}{
		"produto_id": "prod_a",
		"quantidade": 0,
	})
	_, err := f.projector.Apply(context.Background(), e)
	assert.ErrorIs(t, err, fusion_errors.ErrInvalidInput)
}

func TestUnknownEventTypeIsNoOp(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_x1", "nota_fiscal_emitida", map[string]interface{}{"n": 1.0})
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.inventory.items)
}

func seedVenda(t *testing.T, f *fixture, eventID string) string {
	t.Helper()
	venda := eventAt(eventID, logevent.TypeRegistrarVenda, map[string]interface{}{
		"itens": []interface{}{
			map[string]interface{}{"produto_id": "prod_a", "quantidade": 1, "preco_unitario": 10.0},
		},
	})
	require.NoError(t, f.events.Insert(context.Background(), venda))
	_, err := f.projector.Apply(context.Background(), venda)
	require.NoError(t, err)
	return OrderIDForEvent(eventID)
}

func TestLogAcionadoRecordsDisputeAndSuggestsDespacho(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_ac1", logevent.TypeLogAcionado, map[string]interface{}{
		"target_log_id":    "evt_venda1",
		"acionamento_type": "confirmar_entrega",
		"motivo":           "entrega não confirmada pelo cliente",
	})
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.Acionamentos, 1)
	assert.Equal(t, "evt_ac1", order.Acionamentos[0].LogAcionamentoEventID)
	assert.Equal(t, state.AcionamentoPendente, order.Acionamentos[0].Status)
	assert.Equal(t, true, order.Meta[state.MetaHasPendingAcionamentos])
	assert.Equal(t, "evt_ac1", order.LastLogEventID)

	require.Len(t, out.Suggestions, 1)
	s := out.Suggestions[0]
	assert.Equal(t, logevent.TypeDespachoCriado, s.EventType)
	assert.Equal(t, "evt_ac1", s.Data["acionamento_event_id"])
	assert.Equal(t, "evt_venda1", s.Data["target_log_id"])
	assert.Equal(t, aggregateOrder, s.Data["aggregate_kind"])
	assert.Equal(t, orderID, s.Data["aggregate_key"])
}

func TestLogAcionadoMissingTargetIsNoOp(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_ac1", logevent.TypeLogAcionado, map[string]interface{}{
		"target_log_id": "evt_missing",
	})
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)
	assert.Empty(t, f.orders.orders)
}

func TestLogAcionadoRequiresTargetLogID(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_ac1", logevent.TypeLogAcionado, map[string]interface{}{
		"motivo": "sem alvo",
	})
	_, err := f.projector.Apply(context.Background(), e)
	assert.ErrorIs(t, err, fusion_errors.ErrInvalidInput)
}

func TestLogAcionadoOnInventoryTarget(t *testing.T) {
	f := newFixture()
	entrada := eventAt("evt_est1", logevent.TypeEntradaEstoque, map[string]interface{}{
		"produto_id": "prod_a",
		"quantidade": 5,
	})
	require.NoError(t, f.events.Insert(context.Background(), entrada))
	_, err := f.projector.Apply(context.Background(), entrada)
	require.NoError(t, err)

	e := eventAt("evt_ac1", logevent.TypeLogAcionado, map[string]interface{}{
		"target_log_id": "evt_est1",
		"motivo":        "quantidade divergente da nota",
	})
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	item, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	require.Len(t, item.Acionamentos, 1)
	assert.Equal(t, true, item.Meta[state.MetaHasPendingAcionamentos])

	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, aggregateInventory, out.Suggestions[0].Data["aggregate_kind"])
}

func TestDisputeHistoryEvictsOldestAtCap(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	for i := 0; i < state.DisputeHistoryCap+2; i++ {
		e := eventAt(
			"evt_ac"+string(rune('a'+i)),
			logevent.TypeLogAcionado,
			map[string]interface{}{"target_log_id": "evt_venda1"},
		)
		_, err := f.projector.Apply(context.Background(), e)
		require.NoError(t, err)
	}

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.Acionamentos, state.DisputeHistoryCap)
	assert.Equal(t, "evt_acc", order.Acionamentos[0].LogAcionamentoEventID)
}

func TestLogAcionadoInstitucionalOpensLitigio(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_lit1", logevent.TypeLogAcionadoInstitucional, map[string]interface{}{
		"target_log_id":    "evt_venda1",
		"acionamento_type": "contestar_fato",
		"motivo_detalhado": "o valor registrado diverge do efetivamente pago",
	})
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.LitigiosInstitucionais, 1)
	lit := order.LitigiosInstitucionais[0]
	assert.Equal(t, "evt_lit1", lit.LogAcionamentoEventID)
	assert.Equal(t, "contestar_fato", lit.AcionamentoType)
	assert.Equal(t, state.LitigioAberto, lit.StatusLitigio)
	assert.Equal(t, true, order.Meta[state.MetaHasActiveLitigio])
}

func TestLogAcionadoInstitucionalRejectsUnknownType(t *testing.T) {
	f := newFixture()
	seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_lit1", logevent.TypeLogAcionadoInstitucional, map[string]interface{}{
		"target_log_id":    "evt_venda1",
		"acionamento_type": "gritar_no_balcao",
		"motivo_detalhado": "motivo qualquer com tamanho suficiente",
	})
	_, err := f.projector.Apply(context.Background(), e)
	assert.ErrorIs(t, err, fusion_errors.ErrInvalidInput)
}

func TestDespachoCriadoStampsOrderMeta(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_desp1", logevent.TypeDespachoCriado, map[string]interface{}{
		"acionamento_event_id": "evt_ac1",
		"target_log_id":        "evt_venda1",
		"aggregate_kind":       aggregateOrder,
		"aggregate_key":        orderID,
	})
	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "evt_desp1", order.Meta[state.MetaLastDespachoEventID])
	assert.Equal(t, "evt_desp1", order.LastLogEventID)
}

func TestRegistrarVendaReapplyDoesNotDoubleCountStock(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda1", logevent.TypeRegistrarVenda, map[string]interface{}{
		"itens": []interface{}{
			map[string]interface{}{"produto_id": "prod_a", "quantidade": 2, "preco_unitario": 10.0},
		},
	})

	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	_, err = f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	item, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	assert.Equal(t, -2, item.Stock)

	order, err := f.orders.Get(context.Background(), OrderIDForEvent("evt_venda1"))
	require.NoError(t, err)
	assert.Equal(t, 1, order.ItemCount)
	assert.Equal(t, 20.0, order.ValorTotal)
}

func TestRegistrarVendaAggregatesDuplicateProductLines(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_venda1", logevent.TypeRegistrarVenda, map[string]interface{}{
		"itens": []interface{}{
			map[string]interface{}{"produto_id": "prod_a", "quantidade": 2, "preco_unitario": 10.0},
			map[string]interface{}{"produto_id": "prod_a", "quantidade": 3, "preco_unitario": 10.0},
		},
	})

	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	item, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	assert.Equal(t, -5, item.Stock)
}

func TestEntradaEstoqueReapplyIsIdempotent(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_est1", logevent.TypeEntradaEstoque, map[string]interface{}{
		"produto_id": "prod_a",
		"quantidade": 10,
	})

	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	_, err = f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	item, err := f.inventory.Get(context.Background(), "prod_a")
	require.NoError(t, err)
	assert.Equal(t, 10, item.Stock)
}

func TestLogAcionadoReapplyDoesNotDuplicateDispute(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_ac1", logevent.TypeLogAcionado, map[string]interface{}{
		"target_log_id": "evt_venda1",
	})
	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	out, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, order.Acionamentos, 1)
	assert.Empty(t, out.Suggestions)
}

func TestLogAcionadoInstitucionalReapplyDoesNotDuplicateLitigio(t *testing.T) {
	f := newFixture()
	orderID := seedVenda(t, f, "evt_venda1")

	e := eventAt("evt_lit1", logevent.TypeLogAcionadoInstitucional, map[string]interface{}{
		"target_log_id":    "evt_venda1",
		"acionamento_type": "contestar_fato",
		"motivo_detalhado": "o valor registrado diverge do efetivamente pago",
	})
	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	_, err = f.projector.Apply(context.Background(), e)
	require.NoError(t, err)

	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, order.LitigiosInstitucionais, 1)
}

func TestDespachoCriadoOnInventoryKindIsNoOp(t *testing.T) {
	f := newFixture()
	e := eventAt("evt_desp1", logevent.TypeDespachoCriado, map[string]interface{}{
		"acionamento_event_id": "evt_ac1",
		"aggregate_kind":       aggregateInventory,
		"aggregate_key":        "prod_a",
	})
	_, err := f.projector.Apply(context.Background(), e)
	require.NoError(t, err)
	assert.Empty(t, f.orders.orders)
}
