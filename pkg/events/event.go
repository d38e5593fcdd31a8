package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "APP_CONFIG_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation used by event constructors below.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes.
const (
	TypeAppConfigChanged = "APP_CONFIG_CHANGED"
	TypeFixedQAEmbedded  = "FIXED_QA_EMBEDDED"
)

// NewAppConfigChanged signals that an application's mode or overrides were
// updated. Other nodes drop their cached pipeline config on receipt.
func NewAppConfigChanged(applicationId string) BaseEvent {
	return BaseEvent{
		Type: TypeAppConfigChanged,
		Data: map[string]interface{}{
			"application_id": applicationId,
		},
		OccurredAt: time.Now(),
	}
}

// NewFixedQAEmbedded signals that a curated entry's question embedding was
// recomputed and is fresh again.
func NewFixedQAEmbedded(applicationId, entryId string) BaseEvent {
	return BaseEvent{
		Type: TypeFixedQAEmbedded,
		Data: map[string]interface{}{
			"application_id": applicationId,
			"entry_id":       entryId,
		},
		OccurredAt: time.Now(),
	}
}
