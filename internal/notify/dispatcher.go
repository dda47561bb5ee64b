package notify

import (
	"context"
	"log"
	"time"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

// Invalidator drops cached reporting views when durable state changed.
// Implemented by the redis chats cache; nil-safe in the dispatcher.
type Invalidator interface {
	InvalidateChats(ctx context.Context) error
}

// Dispatcher maps engine outcomes to subscriber notifications.
// Inserted and StatusApplied outcomes notify; so does a duplicate
// delivery whose pending drain applied a status. Duplicates without new
// information, buffered and ignored statuses stay silent. A combined
// insert+drain notifies once, with the final post-drain state.
type Dispatcher struct {
	notifier Notifier
	cache    Invalidator
}

func NewDispatcher(notifier Notifier, cache Invalidator) *Dispatcher {
	return &Dispatcher{notifier: notifier, cache: cache}
}

// Dispatch publishes an outcome if it carries new information. Notifier
// failures are logged and swallowed: ingestion results are determined
// purely by durable-store state.
func (d *Dispatcher) Dispatch(ctx context.Context, out message.Outcome) {
	if !out.StateChanged() {
		return
	}

	// Outlive the request: a cancelled webhook delivery must not lose
	// the notification for state that already committed.
	ctx = context.WithoutCancel(ctx)

	if d.cache != nil {
		if err := d.cache.InvalidateChats(ctx); err != nil {
			log.Printf("chats cache invalidate failed: %v", err)
		}
	}

	if d.notifier == nil {
		return
	}
	ev := eventFor(out)
	if err := d.notifier.Publish(ctx, out.ConversationID, ev); err != nil {
		log.Printf("notify %s for %s failed: %v", ev.Type, out.ExternalID, err)
	}
}

func eventFor(out message.Outcome) Event {
	ts := out.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	ev := Event{
		ConversationID: out.ConversationID,
		ExternalID:     out.ExternalID,
		Status:         string(out.Status),
		Timestamp:      ts,
	}
	switch out.Kind {
	case message.OutcomeInserted:
		ev.Type = EventNewMessage
		if out.Record != nil {
			ev.Text = out.Record.Body
			ev.Direction = string(out.Record.Direction)
			ev.Timestamp = out.Record.CreatedAt
		}
	default:
		// StatusApplied, or a duplicate whose drain applied a status.
		ev.Type = EventStatusUpdate
	}
	return ev
}
