package common

import "time"

// AuthCookieName is the cookie that carries the session token over HTTP.
const AuthCookieName = "jwt"

const (
	// DefaultTokenTTL is the lifetime of a freshly minted session token.
	DefaultTokenTTL = 10 * time.Minute

	// ChallengeTTL bounds how long an issued 2FA challenge stays verifiable.
	ChallengeTTL = 600 * time.Second
)
