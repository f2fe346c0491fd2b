// Package auth mints and validates HS256 session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the registered claims carried by a session token.
// Subject holds the normalized email of the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
}

// Email returns the subject claim.
func (c *Claims) Email() string { return c.Subject }

// Token is a signed session token and the instant it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer holds the process-wide signing secret and token lifetime.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = common.DefaultTokenTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a token for email. The jti claim keeps two tokens issued for the
// same user within one second distinct.
func (i *Issuer) Issue(email string) (Token, error) {
	now := i.now()
	exp := now.Add(i.ttl)

	jti, err := uuid.NewRandom()
	if err != nil {
		return Token{}, fmt.Errorf("token id: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti.String(),
		},
	})

	s, err := token.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	// exp is serialized with second precision
	return Token{Value: s, ExpiresAt: time.Unix(exp.Unix(), 0)}, nil
}

// Validate checks signature, algorithm and expiry. It does not consult the
// revocation list, which is keyed on the exact token string, so segments must
// be canonical base64: strict decoding rejects the re-encoded signatures a
// lenient decoder would accept.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
