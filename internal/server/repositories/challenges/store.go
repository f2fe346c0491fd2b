// Package challenges keeps the pending 2FA challenge for each email.
// At most one challenge is live per email; issuing again replaces it.
package challenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/domain"
)

type Challenge struct {
	AttemptID domain.LoginAttemptID
	Code      domain.TwoFACode
	ExpiresAt time.Time
}

// Store errors are common.ErrNotFound for an absent, expired or already
// consumed challenge and common.ErrMismatch for a wrong attempt id or code.
type Store interface {
	Issue(ctx context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error
	VerifyAndConsume(ctx context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error
	Remove(ctx context.Context, email domain.Email) error
	Get(ctx context.Context, email domain.Email) (Challenge, error)
}

func matches(c Challenge, attemptID domain.LoginAttemptID, code domain.TwoFACode) bool {
	// evaluate both so the result does not depend on which one differs
	idOK := c.AttemptID.Equal(attemptID)
	codeOK := c.Code.Equal(code)
	return idOK && codeOK
}
