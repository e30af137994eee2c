package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. The 80 random bits come from crypto/rand,
// so the result is safe to use as an emailed verification token id.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
