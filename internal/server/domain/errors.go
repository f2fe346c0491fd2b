package domain

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Parse errors wrap common.ErrValidation so callers can collapse them into a
// single "invalid input" outcome.
var (
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", common.ErrValidation)
	ErrInvalidPassword  = fmt.Errorf("%w: invalid password", common.ErrValidation)
	ErrInvalidAttemptID = fmt.Errorf("%w: invalid login attempt id", common.ErrValidation)
	ErrInvalidCode      = fmt.Errorf("%w: invalid 2FA code", common.ErrValidation)
)

// ErrInvalidHash reports a persisted password hash that cannot be trusted.
// It is not a validation error: it means storage holds something we did not write.
var ErrInvalidHash = errors.New("invalid password hash")
