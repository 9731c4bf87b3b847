package projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// Outcome is what projecting one event produced, beyond the aggregate
// mutations themselves.
type Outcome struct {
	Suggestions []logevent.ConsequenceSuggestion
}

func (o *Outcome) suggest(eventType string, data map[string]interface{}) {
	o.Suggestions = append(o.Suggestions, logevent.ConsequenceSuggestion{
		EventType: eventType,
		Data:      data,
	})
}

// Handler folds one event type into current state. Implementations must be
// safe to re-apply so a repair job can replay projection for an orphaned
// event.
type Handler interface {
	Apply(ctx context.Context, e *logevent.LogEvent, out *Outcome) error
}

// Projector dispatches appended events to type-keyed handlers. Events with no
// registered handler project as a no-op.
type Projector struct {
	handlers map[string]Handler
	log      *logger.Logger
}

func New(events repository.LogEventRepository, orders repository.OrderStateRepository, inventory repository.InventoryStateRepository, log *logger.Logger) *Projector {
	p := &Projector{
		handlers: make(map[string]Handler),
		log:      log,
	}
	resolver := &targetResolver{events: events, log: log}
	p.Register(logevent.TypeRegistrarVenda, &registrarVendaHandler{orders: orders, inventory: inventory})
	p.Register(logevent.TypeEntradaEstoque, &entradaEstoqueHandler{inventory: inventory})
	p.Register(logevent.TypeLogAcionado, &logAcionadoHandler{resolver: resolver, orders: orders, inventory: inventory, log: log})
	p.Register(logevent.TypeLogAcionadoInstitucional, &logAcionadoInstitucionalHandler{resolver: resolver, orders: orders, inventory: inventory, log: log})
	p.Register(logevent.TypeDespachoCriado, &despachoCriadoHandler{orders: orders, log: log})
	return p
}

// Register binds a handler to an event type. Called at startup only.
func (p *Projector) Register(eventType string, h Handler) {
	p.handlers[eventType] = h
}

// Apply folds the event into its aggregates and returns any suggested
// consequence events. A missing handler is a logged no-op; a handler error is
// fatal to the caller.
func (p *Projector) Apply(ctx context.Context, e *logevent.LogEvent) (*Outcome, error) {
	out := &Outcome{}
	h, ok := p.handlers[e.Type]
	if !ok {
		p.log.Logger.Debug("no projection handler for event type",
			zap.String("event_id", e.ID),
			zap.String("event_type", e.Type))
		return out, nil
	}
	if err := h.Apply(ctx, e, out); err != nil {
		return nil, err
	}
	return out, nil
}

// stockAlreadyAdjusted reports whether this event already moved the product's
// stock, so a replayed projection does not count the delta twice.
func stockAlreadyAdjusted(ctx context.Context, inventory repository.InventoryStateRepository, produtoID, eventID string) (bool, error) {
	item, err := inventory.Get(ctx, produtoID)
	if err != nil {
		if errors.Is(err, fusion_errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return item.LastLogEventID == eventID, nil
}

// decodeData parses the event's opaque data payload into the handler's typed
// shape. A failure here is a validation error attributable to the producer.
func decodeData(e *logevent.LogEvent, v interface{}) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("%w: malformed data for %s: %v", fusion_errors.ErrInvalidInput, e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed data for %s: %v", fusion_errors.ErrInvalidInput, e.Type, err)
	}
	return nil
}
