package consequence

import (
	"context"

	"logline-fusion/internal/domain/logevent"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// Recorder re-enters the event recording pipeline for a system consequence
// draft. Implemented by the log service; the indirection keeps the recursion
// off the original call stack.
type Recorder interface {
	RecordConsequence(ctx context.Context, draft *logevent.LogEvent, depth int) (*logevent.LogEvent, error)
}

type job struct {
	suggestion logevent.ConsequenceSuggestion
	trigger    *logevent.LogEvent
	depth      int
}

// Engine turns projection suggestions into system-authored events. Emission
// is queued and handled by a dedicated worker so a slow or failing
// consequence never blocks the primary caller.
type Engine struct {
	jobs     chan job
	maxDepth int
	log      *logger.Logger
}

func NewEngine(queueSize, maxDepth int, log *logger.Logger) *Engine {
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &Engine{
		jobs:     make(chan job, queueSize),
		maxDepth: maxDepth,
		log:      log,
	}
}

// Start runs the worker until the context is cancelled. Consequence events
// re-enter the recorder and may schedule further consequences, bounded by
// the depth cap.
func (e *Engine) Start(ctx context.Context, recorder Recorder) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-e.jobs:
				e.emit(ctx, recorder, j)
			}
		}
	}()
}

// Schedule queues one suggested consequence of the triggering event. Depth is
// how many system hops led here (0 for a user-authored trigger).
func (e *Engine) Schedule(trigger *logevent.LogEvent, s logevent.ConsequenceSuggestion, depth int) error {
	if depth >= e.maxDepth {
		e.log.Logger.Error("consequence chain depth cap reached, dropping",
			zap.String("trigger_event_id", trigger.ID),
			zap.String("consequence_type", s.EventType),
			zap.Int("depth", depth))
		return fusion_errors.ErrConsequenceDepth
	}
	select {
	case e.jobs <- job{suggestion: s, trigger: trigger, depth: depth}:
		return nil
	default:
		e.log.Logger.Error("consequence queue full, dropping",
			zap.String("trigger_event_id", trigger.ID),
			zap.String("consequence_type", s.EventType))
		return fusion_errors.ErrQueueFull
	}
}

func (e *Engine) emit(ctx context.Context, recorder Recorder, j job) {
	draft := BuildDraft(j.suggestion, j.trigger)
	if _, err := recorder.RecordConsequence(ctx, draft, j.depth+1); err != nil {
		// The primary event is already committed; this failure is isolated.
		e.log.Logger.Error("CRITICAL: failed to record consequence event",
			zap.String("trigger_event_id", j.trigger.ID),
			zap.String("consequence_type", j.suggestion.EventType),
			zap.Error(err))
	}
}

// BuildDraft assembles the system-authored consequence event, causally linked
// to its trigger through the witness and inheriting correlation meta.
func BuildDraft(s logevent.ConsequenceSuggestion, trigger *logevent.LogEvent) *logevent.LogEvent {
	meta := map[string]interface{}{
		logevent.MetaTriggeredByLog: trigger.ID,
	}
	if traceID := trigger.TraceID(); traceID != "" {
		meta[logevent.MetaTraceID] = traceID
	}
	if convID := trigger.ConversationID(); convID != "" {
		meta[logevent.MetaConversationID] = convID
	}
	return &logevent.LogEvent{
		Type:    s.EventType,
		Author:  logevent.SystemConsequenceAuthor,
		Witness: "log_event:" + trigger.ID,
		Channel: logevent.SystemInternalChannel,
		Origin:  "consequence_of:" + trigger.Type,
		Data:    s.Data,
		Meta:    meta,
	}
}
