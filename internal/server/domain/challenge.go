package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// LoginAttemptID correlates a verify-2fa call with the login that issued the challenge.
type LoginAttemptID struct {
	value string
}

func NewLoginAttemptID() (LoginAttemptID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return LoginAttemptID{}, fmt.Errorf("generate login attempt id: %w", err)
	}
	return LoginAttemptID{value: id.String()}, nil
}

func ParseLoginAttemptID(s string) (LoginAttemptID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return LoginAttemptID{}, ErrInvalidAttemptID
	}
	return LoginAttemptID{value: id.String()}, nil
}

func (id LoginAttemptID) String() string { return id.value }

// Equal compares in constant time.
func (id LoginAttemptID) Equal(other LoginAttemptID) bool {
	return subtle.ConstantTimeCompare([]byte(id.value), []byte(other.value)) == 1
}

const codeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// TwoFACode is a six digit second-factor code.
type TwoFACode struct {
	value string
}

// NewTwoFACode draws a uniformly distributed code from crypto/rand.
func NewTwoFACode() (TwoFACode, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return TwoFACode{}, fmt.Errorf("generate 2FA code: %w", err)
	}
	return TwoFACode{value: fmt.Sprintf("%06d", n.Int64())}, nil
}

func ParseTwoFACode(s string) (TwoFACode, error) {
	if len(s) != codeDigits {
		return TwoFACode{}, ErrInvalidCode
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return TwoFACode{}, ErrInvalidCode
		}
	}
	return TwoFACode{value: s}, nil
}

func (c TwoFACode) String() string { return c.value }

// Equal compares in constant time.
func (c TwoFACode) Equal(other TwoFACode) bool {
	return subtle.ConstantTimeCompare([]byte(c.value), []byte(other.value)) == 1
}
