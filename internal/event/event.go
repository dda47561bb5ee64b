// Package event defines the canonical inbound event variants and the
// normalizer that maps raw provider payloads onto them.
package event

import "time"

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// Event is the closed set of canonical events: MessageEvent or StatusEvent.
type Event interface {
	isEvent()
}

// MessageEvent describes the creation of one chat message.
type MessageEvent struct {
	ConversationID string
	ExternalID     string
	Body           string
	Direction      Direction
	Status         Status // zero value means "use the direction default"
	Timestamp      time.Time
}

// StatusEvent describes a delivery-status change for an existing (or
// not-yet-seen) message, addressed by its provider id.
type StatusEvent struct {
	ExternalID     string
	Status         Status
	ConversationID string // optional, providers rarely echo it
	Timestamp      time.Time
}

func (MessageEvent) isEvent() {}
func (StatusEvent) isEvent()  {}
