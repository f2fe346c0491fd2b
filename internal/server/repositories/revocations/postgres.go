package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// PostgresRepository keeps revoked tokens in the revoked_tokens table.
// Rows past expires_at are ignored on lookup and removed by DeleteExpired.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	now := r.now()
	if !now.Before(expiresAt) {
		return nil
	}

	// a stale row for the same token would block the insert below
	query := `
		INSERT INTO revoked_tokens (token, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE
		SET expires_at = EXCLUDED.expires_at
		WHERE revoked_tokens.expires_at <= $3
	`
	res, err := r.db.ExecContext(ctx, query, token, expiresAt.UTC(), now.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyRevoked
	}
	return nil
}

func (r *PostgresRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token = $1 AND expires_at > $2
		)
	`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, token, r.now().UTC()).Scan(&revoked); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

// DeleteExpired prunes rows for tokens that can no longer validate.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int, error) {
	query := `
		DELETE FROM revoked_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(n), nil
}

// Sweep satisfies the background sweeper.
func (r *PostgresRepository) Sweep(ctx context.Context) (int, error) {
	return r.DeleteExpired(ctx)
}
