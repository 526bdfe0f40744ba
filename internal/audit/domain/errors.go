package domain

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/jobboard-api/internal/events"
)

var (
	// ErrDuplicateEvent is returned when the change log already holds the event
	ErrDuplicateEvent = errors.New("change event already recorded")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// EventMessage is a decoded change event together with the delivery it came from
type EventMessage struct {
	Event    events.ChangeEvent
	Delivery amqp.Delivery
}
