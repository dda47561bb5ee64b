// Package notify fans reconciliation outcomes out to live subscribers.
// The engine returns pure outcome values; the dispatcher here decides
// which of them are worth publishing, so ingestion never depends on a
// live transport.
package notify

import (
	"context"
	"time"
)

const (
	EventNewMessage   = "new_message"
	EventStatusUpdate = "status_update"
)

// Event is the wire payload delivered to subscribers of a conversation.
type Event struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"wa_id"`
	ExternalID     string    `json:"meta_msg_id"`
	Status         string    `json:"status"`
	Text           string    `json:"text,omitempty"`
	Direction      string    `json:"direction,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notifier delivers one event to the subscribers of a conversation.
// Best effort: the dispatcher never awaits more than the publish call
// itself and never surfaces its failure to ingestion.
type Notifier interface {
	Publish(ctx context.Context, conversationID string, ev Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, conversationID string, ev Event) error

func (f NotifierFunc) Publish(ctx context.Context, conversationID string, ev Event) error {
	return f(ctx, conversationID, ev)
}
