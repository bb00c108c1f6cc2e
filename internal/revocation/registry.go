// Package revocation tracks token identifiers that were invalidated before
// their natural expiry (logout). The registry is consulted on every token
// validation, so implementations must be safe for concurrent readers and
// writers.
package revocation

import (
	"context"
	"time"
)

// Registry is a set of revoked token identifiers. Revoke is idempotent.
// The ttl passed to Revoke is the remaining lifetime of the underlying
// token; after that the entry may be dropped, since the token would be
// rejected as expired anyway.
type Registry interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
