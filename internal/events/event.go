package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Change actions
const (
	ActionCreated  = "created"
	ActionReplaced = "replaced"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
)

// ContentType of published change events
const ContentType = "application/json"

// ErrInvalidEvent is returned when a message body is not a usable change event
var ErrInvalidEvent = errors.New("invalid change event")

// ChangeEvent describes one committed mutation of a resource.
// RecordID is empty for whole-collection changes.
type ChangeEvent struct {
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	RecordID   string    `json:"record_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent stamps an event with the current UTC time
func NewChangeEvent(resource, action, recordID string) ChangeEvent {
	return ChangeEvent{
		Resource:   resource,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// Decode parses and checks a message body
func Decode(body []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if ev.Resource == "" || ev.Action == "" {
		return ChangeEvent{}, fmt.Errorf("%w: resource and action are required", ErrInvalidEvent)
	}

	if ev.OccurredAt.IsZero() {
		return ChangeEvent{}, fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}

	return ev, nil
}
