package message

import "github.com/darapanenichandrika7/whatsapp-clone/internal/event"

// legalTransitions is the delivery-status state machine: sent may move
// to delivered or read, delivered only to read, read is terminal.
// No self-loops; a repeated status is treated like any other illegal
// transition and ignored.
var legalTransitions = map[event.Status][]event.Status{
	event.StatusSent:      {event.StatusDelivered, event.StatusRead},
	event.StatusDelivered: {event.StatusRead},
	event.StatusRead:      {},
}

// IsLegalTransition reports whether a message at current may move to
// next. Rejection means "ignore", not "error": out-of-order and
// duplicate status replays are expected and harmless when they go
// backward.
func IsLegalTransition(current, next event.Status) bool {
	for _, s := range legalTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}
