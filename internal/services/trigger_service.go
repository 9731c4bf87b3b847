package services

import (
	"context"
	"fmt"

	"logline-fusion/internal/domain/logevent"
	fusion_errors "logline-fusion/pkg/errors"

	"go.uber.org/zap"
)

// TriggerConsequence resolves a pending consequence slot exactly once: it
// claims the awaiting_trigger -> triggered transition, then appends a
// triggered_consequence event naming the original. A second attempt on the
// same slot fails with ErrConflict.
func (s *LogService) TriggerConsequence(ctx context.Context, targetEventID, author, witness string, details map[string]interface{}) (*logevent.LogEvent, error) {
	target, err := s.events.GetByID(ctx, targetEventID)
	if err != nil {
		return nil, err
	}
	if target.Consequence.Type == "" {
		return nil, fmt.Errorf("%w: event %s has no consequence slot", fusion_errors.ErrInvalidInput, targetEventID)
	}
	if target.Consequence.Status != logevent.ConsequenceAwaitingTrigger {
		return nil, fusion_errors.ErrConflict
	}

	// Pre-assign the trigger event id so the slot can be claimed atomically
	// before the event exists; losing the race returns ErrConflict.
	draft := &logevent.LogEvent{
		ID:      logevent.NewEventID(),
		Type:    logevent.TypeTriggeredConsequence,
		Author:  author,
		Witness: witness,
		Channel: logevent.SystemInternalChannel,
		Origin:  "consequence_trigger:" + target.Consequence.Type,
		Data: map[string]interface{}{
			"source_event_id":  target.ID,
			"consequence_type": target.Consequence.Type,
			"details":          details,
		},
		Meta: map[string]interface{}{
			logevent.MetaTriggeredByLog: target.ID,
		},
	}

	if err := s.events.TriggerConsequence(ctx, target.ID, draft.ID, s.clock().UTC()); err != nil {
		return nil, err
	}

	recorded, err := s.RecordEvent(ctx, draft)
	if err != nil {
		// The slot is claimed but the trigger event is missing; this is the
		// same class of inconsistency as a post-append projection failure.
		s.log.WithContext(ctx).Error("CRITICAL: consequence slot claimed but trigger event not recorded",
			zap.String("target_event_id", target.ID),
			zap.String("trigger_event_id", draft.ID),
			zap.Error(err))
		return nil, err
	}
	return recorded, nil
}
