package consequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"logline-fusion/internal/domain/logevent"
	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, draft *logevent.LogEvent, depth int) (*logevent.LogEvent, error)

func (f recorderFunc) RecordConsequence(ctx context.Context, draft *logevent.LogEvent, depth int) (*logevent.LogEvent, error) {
	return f(ctx, draft, depth)
}

func trigger() *logevent.LogEvent {
	return &logevent.LogEvent{
		ID:        "evt_ac1",
		Type:      logevent.TypeLogAcionado,
		Author:    "user:maria",
		Witness:   "api_endpoint:/api/v1/logs",
		Timestamp: time.Now().UTC(),
		Meta: map[string]interface{}{
			logevent.MetaTraceID:        "trace-1",
			logevent.MetaConversationID: "conv-1",
		},
	}
}

func TestBuildDraftLinksToTrigger(t *testing.T) {
	s := logevent.ConsequenceSuggestion{
		EventType: logevent.TypeDespachoCriado,
		Data:      map[string]interface{}{"acionamento_event_id": "evt_ac1"},
	}
	draft := BuildDraft(s, trigger())

	assert.Equal(t, logevent.TypeDespachoCriado, draft.Type)
	assert.Equal(t, logevent.SystemConsequenceAuthor, draft.Author)
	assert.Equal(t, "log_event:evt_ac1", draft.Witness)
	assert.Equal(t, logevent.SystemInternalChannel, draft.Channel)
	assert.Equal(t, "consequence_of:"+logevent.TypeLogAcionado, draft.Origin)
	assert.Equal(t, "evt_ac1", draft.Meta[logevent.MetaTriggeredByLog])
	assert.Equal(t, "trace-1", draft.Meta[logevent.MetaTraceID])
	assert.Equal(t, "conv-1", draft.Meta[logevent.MetaConversationID])
}

func TestBuildDraftOmitsAbsentCorrelationMeta(t *testing.T) {
	trig := trigger()
	trig.Meta = nil
	draft := BuildDraft(logevent.ConsequenceSuggestion{EventType: "x"}, trig)

	assert.Equal(t, "evt_ac1", draft.Meta[logevent.MetaTriggeredByLog])
	assert.NotContains(t, draft.Meta, logevent.MetaTraceID)
	assert.NotContains(t, draft.Meta, logevent.MetaConversationID)
}

func TestScheduleDeliversToRecorder(t *testing.T) {
	engine := NewEngine(8, 5, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []*logevent.LogEvent
	var depths []int
	engine.Start(ctx, recorderFunc(func(_ context.Context, draft *logevent.LogEvent, depth int) (*logevent.LogEvent, error) {
		mu.Lock()
		got = append(got, draft)
		depths = append(depths, depth)
		mu.Unlock()
		return draft, nil
	}))

	s := logevent.ConsequenceSuggestion{EventType: logevent.TypeDespachoCriado}
	require.NoError(t, engine.Schedule(trigger(), s, 0))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, logevent.TypeDespachoCriado, got[0].Type)
	assert.Equal(t, 1, depths[0])
}

func TestScheduleRejectsAtDepthCap(t *testing.T) {
	engine := NewEngine(8, 3, logger.NewNop())
	s := logevent.ConsequenceSuggestion{EventType: "x"}

	assert.NoError(t, engine.Schedule(trigger(), s, 2))
	assert.ErrorIs(t, engine.Schedule(trigger(), s, 3), fusion_errors.ErrConsequenceDepth)
	assert.ErrorIs(t, engine.Schedule(trigger(), s, 7), fusion_errors.ErrConsequenceDepth)
}

func TestScheduleDropsWhenQueueFull(t *testing.T) {
	engine := NewEngine(1, 5, logger.NewNop())
	s := logevent.ConsequenceSuggestion{EventType: "x"}

	require.NoError(t, engine.Schedule(trigger(), s, 0))
	assert.ErrorIs(t, engine.Schedule(trigger(), s, 0), fusion_errors.ErrQueueFull)
}

func TestEmitFailureIsIsolated(t *testing.T) {
	engine := NewEngine(8, 5, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	engine.Start(ctx, recorderFunc(func(_ context.Context, draft *logevent.LogEvent, _ int) (*logevent.LogEvent, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return nil, fusion_errors.ErrServiceUnavailable
		}
		return draft, nil
	}))

	s := logevent.ConsequenceSuggestion{EventType: "x"}
	require.NoError(t, engine.Schedule(trigger(), s, 0))
	require.NoError(t, engine.Schedule(trigger(), s, 0))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)
}
