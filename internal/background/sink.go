package background

import (
	"context"

	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"go.uber.org/zap"
)

// Task is one fire-and-forget side effect. Tasks run after the primary
// operation has completed; their errors are logged, never surfaced.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sink queues side-effect tasks for a dedicated worker. Enqueue never blocks
// the write path: when the queue is full the task is dropped with a warning.
type Sink struct {
	tasks chan Task
	log   *logger.Logger
}

func NewSink(queueSize int, log *logger.Logger) *Sink {
	if queueSize <= 0 {
		queueSize = 512
	}
	return &Sink{
		tasks: make(chan Task, queueSize),
		log:   log,
	}
}

// Start runs the worker until the context is cancelled.
func (s *Sink) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-s.tasks:
				s.run(ctx, t)
			}
		}
	}()
}

// Enqueue schedules a task. Returns ErrQueueFull when the queue is saturated;
// callers treat that as a logged no-op.
func (s *Sink) Enqueue(t Task) error {
	select {
	case s.tasks <- t:
		return nil
	default:
		s.log.Logger.Warn("background queue full, task dropped",
			zap.String("task", t.Name))
		return fusion_errors.ErrQueueFull
	}
}

func (s *Sink) run(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Logger.Error("background task panicked",
				zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()
	if err := t.Run(ctx); err != nil {
		s.log.Logger.Error("background task failed",
			zap.String("task", t.Name), zap.Error(err))
	}
}
