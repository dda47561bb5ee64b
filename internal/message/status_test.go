package message

import (
	"testing"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
)

func TestIsLegalTransition(t *testing.T) {
	cases := []struct {
		current, next event.Status
		want          bool
	}{
		{event.StatusSent, event.StatusDelivered, true},
		{event.StatusSent, event.StatusRead, true},
		{event.StatusDelivered, event.StatusRead, true},

		// regressions
		{event.StatusDelivered, event.StatusSent, false},
		{event.StatusRead, event.StatusDelivered, false},
		{event.StatusRead, event.StatusSent, false},

		// no self-loops
		{event.StatusSent, event.StatusSent, false},
		{event.StatusDelivered, event.StatusDelivered, false},
		{event.StatusRead, event.StatusRead, false},

		// unknown values
		{event.StatusSent, event.Status("failed"), false},
		{event.Status(""), event.StatusDelivered, false},
	}

	for _, tc := range cases {
		if got := IsLegalTransition(tc.current, tc.next); got != tc.want {
			t.Errorf("IsLegalTransition(%q, %q) = %v, want %v", tc.current, tc.next, got, tc.want)
		}
	}
}
