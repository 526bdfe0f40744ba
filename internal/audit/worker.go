package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard-api/internal/audit/domain"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker is the part of the RabbitMQ client the worker consumes from
type Broker interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// ChangeLogStore persists change events
type ChangeLogStore interface {
	InsertChangeLog(ctx context.Context, ev events.ChangeEvent) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Broker        Broker
	Store         ChangeLogStore
	Concurrency   int
	PrefetchCount int
	EventTimeout  time.Duration
	QueueName     string
}

// Worker consumes change events and writes them to the change log
type Worker struct {
	logger        *slog.Logger
	broker        Broker
	store         ChangeLogStore
	workerID      string
	concurrency   int
	prefetchCount int
	eventTimeout  time.Duration
	queueName     string

	messages chan *domain.EventMessage
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Worker{
		logger:        cfg.Logger,
		broker:        cfg.Broker,
		store:         cfg.Store,
		workerID:      "audit-" + uuid.NewString()[:8],
		concurrency:   concurrency,
		prefetchCount: prefetch,
		eventTimeout:  timeout,
		queueName:     cfg.QueueName,
		messages:      make(chan *domain.EventMessage, concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start subscribes to the queue and processes events until the context is
// canceled, Stop is called or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)
	close(w.messages)

	return nil
}

// Stop gracefully stops the worker and waits for in-flight events
func (w *Worker) Stop() {
	w.logger.Info("Stopping audit worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Audit worker stopped")
}
