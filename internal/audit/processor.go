package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/jobboard-api/internal/audit/domain"
)

// processEvent writes one event to the change log. Duplicates count as
// success so a redelivery is simply acked.
func (w *Worker) processEvent(ctx context.Context, msg *domain.EventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, w.eventTimeout)
	defer cancel()

	err := w.store.InsertChangeLog(ctx, msg.Event)
	switch {
	case err == nil:
		w.logger.Info("Change event recorded",
			slog.String("resource", msg.Event.Resource),
			slog.String("action", msg.Event.Action),
			slog.String("record_id", msg.Event.RecordID),
		)
		return nil

	case errors.Is(err, domain.ErrDuplicateEvent):
		w.logger.Warn("Change event already recorded",
			slog.String("resource", msg.Event.Resource),
			slog.Time("occurred_at", msg.Event.OccurredAt),
		)
		return nil

	default:
		return domain.NewRetryableError(err)
	}
}
