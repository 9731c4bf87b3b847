package services

import (
	"context"
	"time"

	"logline-fusion/internal/background"
	"logline-fusion/internal/consequence"
	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/projector"
	"logline-fusion/internal/repository"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// Notifier pushes committed events to realtime subscribers. Delivery is
// best-effort and must never fail the write path.
type Notifier interface {
	BroadcastEvent(e *logevent.LogEvent)
}

// Integration builds a fire-and-forget outbound task for a committed event
// (redis publish, archive export). Configured at startup.
type Integration func(e *logevent.LogEvent) background.Task

// LogService owns the append -> project -> notify pipeline. Append and
// projection are synchronous; notification, side effects and consequence
// emission are fire-and-forget.
type LogService struct {
	events       repository.LogEventRepository
	projector    *projector.Projector
	notifier     Notifier
	sink         *background.Sink
	engine       *consequence.Engine
	integrations []Integration
	log          *logger.Logger
	clock        func() time.Time
}

func NewLogService(
	events repository.LogEventRepository,
	proj *projector.Projector,
	notifier Notifier,
	sink *background.Sink,
	engine *consequence.Engine,
	log *logger.Logger,
) *LogService {
	return &LogService{
		events:    events,
		projector: proj,
		notifier:  notifier,
		sink:      sink,
		engine:    engine,
		log:       log,
		clock:     time.Now,
	}
}

// WithIntegrations registers outbound integrations enqueued for every
// committed event. Called once during wiring.
func (s *LogService) WithIntegrations(integrations ...Integration) *LogService {
	s.integrations = append(s.integrations, integrations...)
	return s
}

// RecordEvent is the primary append path for user and externally initiated
// events. Side effects are enqueued only after the event is durable and
// projected.
func (s *LogService) RecordEvent(ctx context.Context, draft *logevent.LogEvent, sideEffects ...background.Task) (*logevent.LogEvent, error) {
	return s.record(ctx, draft, 0, sideEffects)
}

// RecordConsequence re-enters the pipeline for a system consequence draft.
// Implements consequence.Recorder.
func (s *LogService) RecordConsequence(ctx context.Context, draft *logevent.LogEvent, depth int) (*logevent.LogEvent, error) {
	return s.record(ctx, draft, depth, nil)
}

func (s *LogService) record(ctx context.Context, draft *logevent.LogEvent, depth int, sideEffects []background.Task) (*logevent.LogEvent, error) {
	if draft == nil {
		return nil, fusion_errors.ErrInvalidInput
	}
	if err := draft.Prepare(s.clock()); err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx).With(
		zap.String("event_id", draft.ID),
		zap.String("event_type", draft.Type),
		zap.String("author", draft.Author),
	)

	// Durability first: nothing below runs unless the event is stored.
	if err := s.events.Insert(ctx, draft); err != nil {
		log.Error("event append failed", zap.Error(err))
		return nil, err
	}

	outcome, err := s.projector.Apply(ctx, draft)
	if err != nil {
		// The event is durable but state was not folded. Operators repair by
		// re-running projection for this id.
		log.Error("CRITICAL: projection failed after durable append, state may be inconsistent",
			zap.Error(err))
		return nil, fusion_errors.ProjectionFailure(draft.ID, err)
	}

	s.notifier.BroadcastEvent(draft)

	for _, task := range sideEffects {
		_ = s.sink.Enqueue(task)
	}
	for _, integration := range s.integrations {
		_ = s.sink.Enqueue(integration(draft))
	}

	for _, suggestion := range outcome.Suggestions {
		_ = s.engine.Schedule(draft, suggestion, depth)
	}

	return draft, nil
}

// GetEvent looks up one stored event by id.
func (s *LogService) GetEvent(ctx context.Context, id string) (*logevent.LogEvent, error) {
	return s.events.GetByID(ctx, id)
}

// QueryEvents runs a filtered timeline read.
func (s *LogService) QueryEvents(ctx context.Context, f logevent.Filter) ([]logevent.LogEvent, int64, error) {
	return s.events.Query(ctx, f)
}
