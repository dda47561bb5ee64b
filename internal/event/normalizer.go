package event

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrUnrecognized reports a payload that is neither a canonical event
// nor a known provider webhook envelope. Callers log and skip; a bad
// payload must never abort a batch.
var ErrUnrecognized = errors.New("unrecognized payload")

// Normalizer converts raw webhook payloads into canonical events. It is
// a pure function of its input except for the ingestion-time fallback
// used when a payload carries no usable timestamp.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithClock overrides the ingestion-time source. Test hook.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// NormalizeJSON decodes raw JSON bytes and normalizes the result.
func (n *Normalizer) NormalizeJSON(data []byte) (Event, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrUnrecognized
	}
	return n.Normalize(raw)
}

// Normalize maps a decoded payload onto MessageEvent or StatusEvent,
// or returns ErrUnrecognized. Payloads already carrying a canonical
// "type" field pass through on the fast path; otherwise the provider
// envelope entry[0].changes[0].value is probed.
func (n *Normalizer) Normalize(raw map[string]any) (Event, error) {
	if raw == nil {
		return nil, ErrUnrecognized
	}

	switch asString(raw["type"]) {
	case "message":
		return n.canonicalMessage(raw), nil
	case "status":
		return n.canonicalStatus(raw)
	}

	value, ok := envelopeValue(raw)
	if !ok {
		return nil, ErrUnrecognized
	}

	if msgs := asSlice(value["messages"]); len(msgs) > 0 {
		msg, ok := msgs[0].(map[string]any)
		if !ok {
			return nil, ErrUnrecognized
		}
		return n.envelopeMessage(value, msg), nil
	}

	if sts := asSlice(value["statuses"]); len(sts) > 0 {
		st, ok := sts[0].(map[string]any)
		if !ok {
			return nil, ErrUnrecognized
		}
		return n.envelopeStatus(st)
	}

	return nil, ErrUnrecognized
}

func (n *Normalizer) canonicalMessage(raw map[string]any) MessageEvent {
	dir := Direction(asString(raw["direction"]))
	if dir != DirectionOutbound {
		dir = DirectionInbound
	}
	return MessageEvent{
		ConversationID: asString(raw["wa_id"]),
		ExternalID:     asString(raw["meta_msg_id"]),
		Body:           asString(raw["text"]),
		Direction:      dir,
		Status:         Status(asString(raw["status"])),
		Timestamp:      n.timestamp(raw["timestamp"]),
	}
}

func (n *Normalizer) canonicalStatus(raw map[string]any) (Event, error) {
	status := asString(raw["status"])
	if status == "" {
		return nil, ErrUnrecognized
	}
	return StatusEvent{
		ExternalID:     asString(raw["meta_msg_id"]),
		Status:         Status(status),
		ConversationID: asString(raw["wa_id"]),
		Timestamp:      n.timestamp(raw["timestamp"]),
	}, nil
}

func (n *Normalizer) envelopeMessage(value, msg map[string]any) MessageEvent {
	body := ""
	if text, ok := msg["text"].(map[string]any); ok {
		body = asString(text["body"])
	} else if legacy, ok := msg["message"].(map[string]any); ok {
		body = asString(legacy["body"])
	}

	waID := ""
	if contacts := asSlice(value["contacts"]); len(contacts) > 0 {
		if c, ok := contacts[0].(map[string]any); ok {
			waID = asString(c["wa_id"])
			if waID == "" {
				waID = asString(c["waId"])
			}
		}
	}

	id := asString(msg["id"])
	if id == "" {
		id = asString(msg["mid"])
	}

	ts := msg["timestamp"]
	if ts == nil {
		ts = msg["ts"]
	}

	status := StatusDelivered
	if s := asString(msg["status"]); s != "" {
		status = Status(s)
	}

	return MessageEvent{
		ConversationID: waID,
		ExternalID:     id,
		Body:           body,
		Direction:      DirectionInbound,
		Status:         status,
		Timestamp:      n.timestamp(ts),
	}
}

func (n *Normalizer) envelopeStatus(st map[string]any) (Event, error) {
	status := asString(st["status"])
	if status == "" {
		return nil, ErrUnrecognized
	}
	return StatusEvent{
		ExternalID: asString(st["id"]),
		Status:     Status(status),
		Timestamp:  n.timestamp(st["timestamp"]),
	}, nil
}

// envelopeValue digs out entry[0].changes[0].value, looking under the
// metaData wrapper used by the provider's payload dumps first and then
// at the top level.
func envelopeValue(raw map[string]any) (map[string]any, bool) {
	root := raw
	if meta, ok := raw["metaData"].(map[string]any); ok {
		root = meta
	} else if meta, ok := raw["meta_data"].(map[string]any); ok {
		root = meta
	}

	entries := asSlice(root["entry"])
	if len(entries) == 0 {
		return nil, false
	}
	entry, ok := entries[0].(map[string]any)
	if !ok {
		return nil, false
	}
	changes := asSlice(entry["changes"])
	if len(changes) == 0 {
		return nil, false
	}
	change, ok := changes[0].(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := change["value"].(map[string]any)
	return value, ok
}

// timestamp interprets epoch seconds (number or numeric string) or an
// RFC 3339 string, substituting the current ingestion time when the
// field is absent or unparseable.
func (n *Normalizer) timestamp(v any) time.Time {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case json.Number:
		if sec, err := t.Int64(); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	case string:
		if sec, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UTC()
		}
	}
	return n.now().UTC()
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
