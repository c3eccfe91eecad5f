package ports

import (
	"context"
	"time"
)

// StateStore holds short-lived OAuth state nonces for CSRF protection
// during the install flow.
type StateStore interface {
	SaveState(ctx context.Context, state string, shop string, ttl time.Duration) error

	// ConsumeState returns the shop the state was issued for and deletes
	// it. Returns ("", nil) for an unknown or expired state.
	ConsumeState(ctx context.Context, state string) (string, error)
}
