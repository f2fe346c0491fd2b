// Package users stores user credential records and checks passwords against them.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
)

// Repository is the credential store.
type Repository interface {
	// AddUser returns common.ErrAlreadyExists when the email is taken.
	AddUser(ctx context.Context, user domain.User) error

	// GetUser returns common.ErrNotFound when no record exists.
	GetUser(ctx context.Context, email domain.Email) (*domain.User, error)

	// ValidateUser returns the matching record, or common.ErrNotFound or
	// common.ErrInvalidCredentials on failure. Both paths run one full hash
	// verification.
	ValidateUser(ctx context.Context, email domain.Email, password string) (*domain.User, error)
}

// Verifier runs password verification, usually on a hasher.Pool.
type Verifier interface {
	Verify(ctx context.Context, hash domain.HashedPassword, candidate string) (bool, error)
	Params() domain.HashParams
}

// inlineVerifier verifies on the calling goroutine.
type inlineVerifier struct {
	params domain.HashParams
}

func (v inlineVerifier) Verify(_ context.Context, hash domain.HashedPassword, candidate string) (bool, error) {
	return hash.Verify(candidate), nil
}

func (v inlineVerifier) Params() domain.HashParams { return v.params }

// InlineVerifier returns a Verifier that does not go through a pool.
func InlineVerifier(params domain.HashParams) Verifier {
	return inlineVerifier{params: params}
}

// validator owns the dummy hash checked when a user does not exist, so that
// a lookup miss costs as much as a wrong password.
type validator struct {
	verifier Verifier

	once  sync.Once
	dummy domain.HashedPassword
	err   error
}

func newValidator(v Verifier) *validator {
	if v == nil {
		v = InlineVerifier(domain.DefaultHashParams())
	}
	return &validator{verifier: v}
}

func (v *validator) dummyHash() (domain.HashedPassword, error) {
	v.once.Do(func() {
		raw, err := common.MakeRandHexString(16)
		if err != nil {
			v.err = err
			return
		}
		p, err := domain.ParsePassword(raw)
		if err != nil {
			v.err = err
			return
		}
		v.dummy, v.err = domain.HashPassword(p, v.verifier.Params())
	})
	return v.dummy, v.err
}

func (v *validator) validate(ctx context.Context, user *domain.User, lookupErr error, password string) (*domain.User, error) {
	if lookupErr != nil && !errors.Is(lookupErr, common.ErrNotFound) {
		return nil, lookupErr
	}

	hash := domain.HashedPassword{}
	if user != nil {
		hash = user.Password
	} else {
		var err error
		if hash, err = v.dummyHash(); err != nil {
			return nil, fmt.Errorf("dummy hash: %w", err)
		}
	}

	ok, err := v.verifier.Verify(ctx, hash, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrNotFound
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}
