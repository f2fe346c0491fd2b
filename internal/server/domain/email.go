package domain

import (
	"net/mail"
	"strings"
)

const maxEmailLength = 254

// Email is a normalized, syntactically valid e-mail address.
type Email struct {
	value string
}

// ParseEmail accepts a bare address ("user@example.com"); display names,
// angle brackets and surrounding garbage are rejected. The result is
// lower-cased so that equality does not depend on the caller's casing.
func ParseEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxEmailLength {
		return Email{}, ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return Email{}, ErrInvalidEmail
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" || domain == "" || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return Email{}, ErrInvalidEmail
	}

	return Email{value: strings.ToLower(addr.Address)}, nil
}

func (e Email) String() string { return e.value }

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool { return e.value == "" }
