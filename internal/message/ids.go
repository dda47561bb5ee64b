package message

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewExternalID generates a ULID for outbound messages created locally,
// where no provider id exists yet. Lexicographic order follows creation
// time, which keeps index locality on the unique external_id index.
func NewExternalID() (string, error) {
	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
