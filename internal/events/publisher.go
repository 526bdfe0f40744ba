package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Publisher sends change events somewhere
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// MessageSender is the part of the RabbitMQ client the publisher needs
type MessageSender interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// BrokerPublisher publishes events as JSON through a message broker
type BrokerPublisher struct {
	sender MessageSender
	logger *slog.Logger
}

func NewBrokerPublisher(sender MessageSender, logger *slog.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		sender: sender,
		logger: logger,
	}
}

func (p *BrokerPublisher) Publish(ctx context.Context, ev ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := p.sender.PublishWithRetry(ctx, body, ContentType); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	p.logger.Debug("Change event published",
		slog.String("resource", ev.Resource),
		slog.String("action", ev.Action),
		slog.String("record_id", ev.RecordID),
	)

	return nil
}

// NopPublisher drops every event; used when publishing is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ChangeEvent) error { return nil }
