// Package id issues ULID identifiers for orders and journaled trades.
package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

var epoch = time.Unix(0, 0)

// New returns a ULID stamped with the wall clock.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t, so identifiers minted during a replay
// sort with the samples that caused them. IDs sharing a millisecond stay
// increasing. A t before the Unix epoch falls back to the wall clock.
func At(t time.Time) string {
	if t.Before(epoch) {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
