// Package revocations is the denylist of session tokens that were logged out
// before they expired. Entries only need to outlive the token itself.
package revocations

import (
	"context"
	"time"
)

type Store interface {
	// Revoke returns common.ErrAlreadyRevoked when the token is already listed.
	// A token whose expiresAt has passed is accepted and not stored.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
