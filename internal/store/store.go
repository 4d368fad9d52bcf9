package store

import (
	"context"
	"time"
)

// CodeStore holds one-time authorization codes mapped to the
// subscription expiry reported by the provider at mint time. Entries
// vanish on their own once the TTL lapses; Get reports absence and
// package callers must treat any error as "no valid grant".
//
// Get does not consume the code: a code stays redeemable until its TTL
// lapses. See DESIGN.md for the one-time-use decision.
type CodeStore interface {
	Put(ctx context.Context, code string, expiresIn int, ttl time.Duration) error
	Get(ctx context.Context, code string) (int, bool, error)
}
