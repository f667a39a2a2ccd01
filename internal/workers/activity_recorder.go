// Package workers holds the background consumers that run in the worker
// binary, off the request path.
package workers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yeojun7429/portfolio-api/internal/events"
	"go.uber.org/zap"
)

// ActivitySink records that a user wrote something. Satisfied by
// database.UserActivityRepository.
type ActivitySink interface {
	RecordWrite(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// ActivityRecorder consumes change events and keeps per-user write
// activity up to date. It runs in the worker so activity bookkeeping
// never competes with request handling.
type ActivityRecorder struct {
	bus    events.Bus
	sink   ActivitySink
	logger *zap.Logger
}

// NewActivityRecorder creates a new activity recorder
func NewActivityRecorder(bus events.Bus, sink ActivitySink, logger *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{bus: bus, sink: sink, logger: logger}
}

// Run consumes changes until the context is cancelled or the bus
// connection breaks. Changes without an owner (chat messages) are
// skipped.
func (r *ActivityRecorder) Run(ctx context.Context) error {
	changes, errs, err := r.bus.Consume(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("activity_recorder_started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			r.record(ctx, change)
		}
	}
}

func (r *ActivityRecorder) record(ctx context.Context, change *events.Change) {
	if change.Owner == uuid.Nil {
		return
	}

	recordCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r.sink.RecordWrite(recordCtx, change.Owner, change.OccurredAt); err != nil {
		// Activity is best-effort bookkeeping; log and move on.
		r.logger.Warn("activity_record_failed",
			zap.String("user_id", change.Owner.String()),
			zap.String("change_id", change.ID.String()),
			zap.Error(err))
		return
	}

	r.logger.Debug("activity_recorded",
		zap.String("user_id", change.Owner.String()),
		zap.String("entity", string(change.Entity)),
		zap.String("kind", string(change.Kind)))
}
