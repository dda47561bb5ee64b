package message

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
)

const lockStripes = 64

// Engine reconciles canonical events into durable state: it
// deduplicates redelivered messages, enforces the status state machine
// and parks early status updates until their message arrives. Ingest
// never blocks waiting for missing data and never retries internally;
// store errors propagate to the caller, which owns retry policy.
//
// Events for one external id are serialized through striped locks so
// the lookup-then-mutate sequence cannot interleave with another
// operation on the same id. Events for distinct ids run concurrently.
type Engine struct {
	store Store
	now   func() time.Time
	locks [lockStripes]sync.Mutex
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the engine's time source. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Ingest merges one canonical event into the store and reports what
// changed. The returned outcome is a pure value; publishing it to
// subscribers is the dispatcher's job.
func (e *Engine) Ingest(ctx context.Context, ev event.Event) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	switch ev := ev.(type) {
	case event.MessageEvent:
		out, err = e.ingestMessage(ctx, ev)
	case event.StatusEvent:
		out, err = e.ingestStatus(ctx, ev)
	default:
		out = Outcome{Kind: OutcomeRejected, Reason: "unsupported event"}
	}
	if err == nil {
		out.OccurredAt = e.now().UTC()
	}
	return out, err
}

func (e *Engine) ingestMessage(ctx context.Context, ev event.MessageEvent) (Outcome, error) {
	if ev.ExternalID == "" {
		return Outcome{Kind: OutcomeRejected, Reason: "message without external id"}, nil
	}

	mu := e.lockFor(ev.ExternalID)
	mu.Lock()
	defer mu.Unlock()

	record, err := e.store.FindMessage(ctx, ev.ExternalID)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{ExternalID: ev.ExternalID}

	if record == nil {
		record = e.newRecord(ev)
		err = e.store.InsertMessage(ctx, record)
		switch {
		case err == nil:
			out.Kind = OutcomeInserted
			out.Record = record
		case errors.Is(err, ErrAlreadyExists):
			// Lost a race with a concurrent insert for the same id.
			record, err = e.store.FindMessage(ctx, ev.ExternalID)
			if err != nil {
				return Outcome{}, err
			}
			if record == nil {
				return Outcome{}, fmt.Errorf("message %s: insert conflict but record absent", ev.ExternalID)
			}
			out.Kind = OutcomeDuplicate
		default:
			return Outcome{}, err
		}
	} else {
		out.Kind = OutcomeDuplicate
	}

	out.ConversationID = record.ConversationID
	out.Status = record.Status

	// Pending-status drain runs on duplicates too: a redelivered
	// message must not block reconciliation of a status that was
	// buffered in the meantime.
	if err := e.drainPending(ctx, record, &out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (e *Engine) ingestStatus(ctx context.Context, ev event.StatusEvent) (Outcome, error) {
	if ev.ExternalID == "" {
		return Outcome{Kind: OutcomeRejected, Reason: "status without external id"}, nil
	}
	if !ev.Status.Valid() {
		return Outcome{
			Kind:       OutcomeRejected,
			ExternalID: ev.ExternalID,
			Reason:     fmt.Sprintf("unknown status %q", ev.Status),
		}, nil
	}

	mu := e.lockFor(ev.ExternalID)
	mu.Lock()
	defer mu.Unlock()

	record, err := e.store.FindMessage(ctx, ev.ExternalID)
	if err != nil {
		return Outcome{}, err
	}

	if record == nil {
		// Park the update until its message arrives; no timers, no
		// retries. A newer buffered status overwrites the older one.
		if err := e.store.PutPending(ctx, ev.ExternalID, ev.Status, e.now().UTC()); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Kind:           OutcomeStatusBuffered,
			ExternalID:     ev.ExternalID,
			ConversationID: ev.ConversationID,
			Status:         ev.Status,
		}, nil
	}

	if !IsLegalTransition(record.Status, ev.Status) {
		return Outcome{
			Kind:           OutcomeStatusIgnored,
			ExternalID:     ev.ExternalID,
			ConversationID: record.ConversationID,
			Status:         record.Status,
			Reason:         fmt.Sprintf("illegal transition %s -> %s", record.Status, ev.Status),
		}, nil
	}

	if _, err := e.store.UpdateMessageStatus(ctx, ev.ExternalID, ev.Status); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Kind:           OutcomeStatusApplied,
		ExternalID:     ev.ExternalID,
		ConversationID: record.ConversationID,
		Status:         ev.Status,
	}, nil
}

// drainPending consumes a buffered status for the record, applying it
// when the transition is legal and discarding it otherwise. Either way
// the entry is deleted: a stale buffered status is never retried.
func (e *Engine) drainPending(ctx context.Context, record *Message, out *Outcome) error {
	pending, err := e.store.GetPending(ctx, record.ExternalID)
	if err != nil {
		return err
	}
	if pending == nil {
		return nil
	}

	if IsLegalTransition(record.Status, pending.Status) {
		if _, err := e.store.UpdateMessageStatus(ctx, record.ExternalID, pending.Status); err != nil {
			return err
		}
		record.Status = pending.Status
		out.Status = pending.Status
		drained := pending.Status
		out.DrainedStatus = &drained
	}
	return e.store.DeletePending(ctx, record.ExternalID)
}

func (e *Engine) newRecord(ev event.MessageEvent) *Message {
	status := ev.Status
	if !status.Valid() {
		if ev.Direction == event.DirectionOutbound {
			status = event.StatusSent
		} else {
			status = event.StatusDelivered
		}
	}
	createdAt := ev.Timestamp
	if createdAt.IsZero() {
		createdAt = e.now()
	}
	return &Message{
		ConversationID: ev.ConversationID,
		ExternalID:     ev.ExternalID,
		Body:           ev.Body,
		Direction:      ev.Direction,
		Status:         status,
		CreatedAt:      createdAt.UTC(),
	}
}

func (e *Engine) lockFor(externalID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(externalID))
	return &e.locks[h.Sum32()%lockStripes]
}
