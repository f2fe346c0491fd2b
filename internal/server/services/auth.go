// Package services contains server-side business logic. AuthService runs
// the signup, login, 2FA, logout and token verification protocols over the
// credential, challenge and revocation stores.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// LoginState is the last state a login attempt reached.
type LoginState string

const (
	StateReceived                 LoginState = "received"
	StateCredentialsChecked       LoginState = "credentials_checked"
	StateAuthenticatedNoChallenge LoginState = "authenticated_no_challenge"
	StateChallengeIssued          LoginState = "challenge_issued"
	StateChallengeVerified        LoginState = "challenge_verified"
	StateSessionIssued            LoginState = "session_issued"
)

// LoginResult carries either a session token or, when 2FA is required,
// the attempt id the client must echo back. The code itself is never returned.
type LoginResult struct {
	State     LoginState
	Token     *auth.Token
	AttemptID domain.LoginAttemptID
}

func (r *LoginResult) Requires2FA() bool { return r.State == StateChallengeIssued }

// Hasher derives password hashes off the request path.
type Hasher interface {
	Hash(ctx context.Context, p domain.Password) (domain.HashedPassword, error)
}

// IDGenerator produces login attempt ids and 2FA codes.
type IDGenerator interface {
	NewLoginAttemptID() (domain.LoginAttemptID, error)
	NewTwoFACode() (domain.TwoFACode, error)
}

// RandomIDs is the production IDGenerator.
type RandomIDs struct{}

func (RandomIDs) NewLoginAttemptID() (domain.LoginAttemptID, error) { return domain.NewLoginAttemptID() }
func (RandomIDs) NewTwoFACode() (domain.TwoFACode, error)           { return domain.NewTwoFACode() }

const twoFASubject = "2FA Code"

type AuthServiceDeps struct {
	Users       users.Repository
	Challenges  challenges.Store
	Revocations revocations.Store
	Issuer      *auth.Issuer
	Hasher      Hasher
	Notifier    notify.Notifier
	IDs         IDGenerator
	Logger      logging.Logger
	Metrics     *metrics.Metrics
}

type AuthService struct {
	users       users.Repository
	challenges  challenges.Store
	revocations revocations.Store
	issuer      *auth.Issuer
	hasher      Hasher
	notifier    notify.Notifier
	ids         IDGenerator
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewAuthService(d AuthServiceDeps) *AuthService {
	if d.IDs == nil {
		d.IDs = RandomIDs{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	return &AuthService{
		users:       d.Users,
		challenges:  d.Challenges,
		revocations: d.Revocations,
		issuer:      d.Issuer,
		hasher:      d.Hasher,
		notifier:    d.Notifier,
		ids:         d.IDs,
		log:         d.Logger.With("module", "auth"),
		metrics:     d.Metrics,
	}
}

// Signup returns a validation error for a malformed email or short password
// and common.ErrAlreadyExists when the email is taken.
func (s *AuthService) Signup(ctx context.Context, email, password string, requires2FA bool) (err error) {
	defer func() { s.observe("signup", err) }()

	e, err := domain.ParseEmail(email)
	if err != nil {
		return err
	}
	p, err := domain.ParsePassword(password)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, p)
	if err != nil {
		return internal("hash password", err)
	}

	if err := s.users.AddUser(ctx, domain.NewUser(e, hash, requires2FA)); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return common.ErrAlreadyExists
		}
		return internal("add user", err)
	}

	s.log.Info(ctx, "user created", "email", e.String(), "requires_2fa", requires2FA)
	return nil
}

// Login checks credentials. Unknown user and wrong password both come back
// as common.ErrIncorrectCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { s.observe("login", err) }()

	e, err := domain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	log := s.log.With("email", e.String())
	log.Debug(ctx, "login received", "state", StateReceived)

	// only the length policy applies, so any short input is simply invalid
	if _, err := domain.ParsePassword(password); err != nil {
		return nil, err
	}

	user, err := s.users.ValidateUser(ctx, e, password)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidCredentials) {
			log.Info(ctx, "login rejected")
			return nil, common.ErrIncorrectCredentials
		}
		return nil, internal("validate user", err)
	}
	log.Debug(ctx, "credentials checked", "state", StateCredentialsChecked)

	if !user.Requires2FA {
		tok, err := s.issue(e)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "login succeeded", "state", StateAuthenticatedNoChallenge)
		return &LoginResult{State: StateAuthenticatedNoChallenge, Token: tok}, nil
	}

	attemptID, err := s.ids.NewLoginAttemptID()
	if err != nil {
		return nil, internal("attempt id", err)
	}
	code, err := s.ids.NewTwoFACode()
	if err != nil {
		return nil, internal("2fa code", err)
	}

	if err := s.challenges.Issue(ctx, e, attemptID, code); err != nil {
		return nil, internal("issue challenge", err)
	}
	if err := s.notifier.Send(ctx, e.String(), twoFASubject, code.String()); err != nil {
		return nil, internal("send 2fa code", err)
	}

	log.Info(ctx, "2fa challenge issued", "state", StateChallengeIssued, "login_attempt_id", attemptID.String())
	return &LoginResult{State: StateChallengeIssued, AttemptID: attemptID}, nil
}

// Verify2FA consumes the pending challenge and issues a session token.
func (s *AuthService) Verify2FA(ctx context.Context, email, attemptID, code string) (tok *auth.Token, err error) {
	defer func() { s.observe("verify_2fa", err) }()

	e, err := domain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseLoginAttemptID(attemptID)
	if err != nil {
		return nil, err
	}
	c, err := domain.ParseTwoFACode(code)
	if err != nil {
		return nil, err
	}

	if err := s.challenges.VerifyAndConsume(ctx, e, id, c); err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrMismatch) {
			s.log.Info(ctx, "2fa rejected", "email", e.String())
			return nil, common.ErrIncorrectCredentials
		}
		return nil, internal("verify challenge", err)
	}
	s.log.Debug(ctx, "2fa verified", "email", e.String(), "state", StateChallengeVerified)

	tok, err = s.issue(e)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "login succeeded", "email", e.String(), "state", StateSessionIssued)
	return tok, nil
}

// Logout revokes token. A token that is already revoked is reported as
// common.ErrInvalidToken like any other dead token.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.observe("logout", err) }()

	if token == "" {
		return common.ErrMissingToken
	}

	claims, err := s.issuer.Validate(token)
	if err != nil {
		return common.ErrInvalidToken
	}

	if err := s.revocations.Revoke(ctx, token, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, common.ErrAlreadyRevoked) {
			return common.ErrInvalidToken
		}
		return internal("revoke token", err)
	}

	s.log.Info(ctx, "logged out", "email", claims.Email())
	return nil
}

// VerifyToken checks the denylist first, then signature and expiry.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (claims *auth.Claims, err error) {
	defer func() { s.observe("verify_token", err) }()

	if token == "" {
		return nil, common.ErrMissingToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, internal("check revocation", err)
	}
	if revoked {
		return nil, common.ErrInvalidToken
	}

	return s.issuer.Validate(token)
}

func (s *AuthService) issue(e domain.Email) (*auth.Token, error) {
	tok, err := s.issuer.Issue(e.String())
	if err != nil {
		return nil, internal("issue token", err)
	}
	return &tok, nil
}

func (s *AuthService) observe(op string, err error) {
	s.metrics.ObserveOperation(op, Outcome(err))
}

// Outcome maps a service error onto a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrMissingToken):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, common.ErrInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrInternal, op, err)
}
