package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard-api/internal/audit/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	// stopChan is not watched here; the dispatcher closes messages on stop
	// and the pool drains what was already handed over
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-w.messages:
			if !ok {
				return
			}

			err := w.processEvent(ctx, msg)
			w.settle(workerName, msg, err)
		}
	}
}

// settle acks or nacks the delivery depending on the processing result
func (w *Worker) settle(workerName string, msg *domain.EventMessage, err error) {
	if err == nil {
		if ackErr := msg.Delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("error", ackErr.Error()),
			)
		}
		return
	}

	requeue := shouldRequeue(err)

	w.logger.Error("Change event processing failed",
		slog.String("worker_name", workerName),
		slog.String("resource", msg.Event.Resource),
		slog.String("error", err.Error()),
		slog.Bool("requeue", requeue),
	)

	if nackErr := msg.Delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("error", nackErr.Error()),
		)
	}
}

// shouldRequeue requeues only transient failures
func shouldRequeue(err error) bool {
	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
