package message

import (
	"time"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
)

type OutcomeKind string

const (
	// OutcomeInserted: a new message record was created.
	OutcomeInserted OutcomeKind = "inserted"
	// OutcomeDuplicate: the message already existed; nothing about the
	// record body changed.
	OutcomeDuplicate OutcomeKind = "duplicate"
	// OutcomeStatusApplied: a legal status transition was persisted.
	OutcomeStatusApplied OutcomeKind = "status_applied"
	// OutcomeStatusBuffered: the status named an unseen message and was
	// parked in the pending buffer.
	OutcomeStatusBuffered OutcomeKind = "status_buffered"
	// OutcomeStatusIgnored: an illegal or stale transition was absorbed.
	OutcomeStatusIgnored OutcomeKind = "status_ignored"
	// OutcomeRejected: the event was structurally unusable (no id).
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is the engine's structured result: what, if anything,
// changed. It is a pure value; whether and how to notify subscribers is
// the dispatcher's decision.
type Outcome struct {
	Kind           OutcomeKind
	ExternalID     string
	ConversationID string

	// Status is the message's status after the ingest, including any
	// drained pending update.
	Status event.Status

	// OccurredAt is when the engine reconciled the event. Notifications
	// carry it so subscribers see the same time across redeliveries.
	OccurredAt time.Time

	// Record is set for OutcomeInserted.
	Record *Message

	// DrainedStatus is set when a buffered status was applied as part
	// of handling a message event (the combined insert+drain and
	// duplicate+drain outcomes).
	DrainedStatus *event.Status

	// Reason explains ignored or rejected outcomes for operator logs.
	Reason string
}

// StateChanged reports whether durable message state changed: an
// insert, an applied status, or a drain applied on a duplicate
// delivery. These are the outcomes worth telling subscribers about.
func (o Outcome) StateChanged() bool {
	switch o.Kind {
	case OutcomeInserted, OutcomeStatusApplied:
		return true
	case OutcomeDuplicate:
		return o.DrainedStatus != nil
	}
	return false
}
