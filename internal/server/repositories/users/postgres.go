package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
)

type PostgresRepository struct {
	db dbx.DBTX

	*validator
}

func NewPostgresRepository(db dbx.DBTX, v Verifier) *PostgresRepository {
	return &PostgresRepository{db: db, validator: newValidator(v)}
}

func (r *PostgresRepository) AddUser(ctx context.Context, user domain.User) error {
	query :=
		`INSERT INTO users (email, password_hash, requires_2fa)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.Email.String(), user.Password.String(), user.Requires2FA)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, email domain.Email) (*domain.User, error) {
	query :=
		`SELECT email, password_hash, requires_2fa FROM users
		 WHERE email = $1
		 `

	var (
		rawEmail, rawHash string
		requires2FA       bool
	)
	err := r.db.QueryRowContext(ctx, query, email.String()).Scan(&rawEmail, &rawHash, &requires2FA)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	storedEmail, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("stored email for %s: %w", email, err)
	}
	hash, err := domain.ParseHashedPassword(rawHash)
	if err != nil {
		return nil, fmt.Errorf("stored hash for %s: %w", email, err)
	}

	u := domain.NewUser(storedEmail, hash, requires2FA)
	return &u, nil
}

func (r *PostgresRepository) ValidateUser(ctx context.Context, email domain.Email, password string) (*domain.User, error) {
	u, err := r.GetUser(ctx, email)
	return r.validate(ctx, u, err, password)
}
