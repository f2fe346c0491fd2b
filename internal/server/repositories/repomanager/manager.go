// Package repomanager opens the store backends selected in config and owns
// their connections.
package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"
)

// Sweeper drops expired entries from a store.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RepositoryManager vends repositories bound to a database handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX, v users.Verifier) users.Repository
	Revocations(db dbx.DBTX) revocations.Store
}

// Stores is the set of opened backends.
type Stores struct {
	Users       users.Repository
	Challenges  challenges.Store
	Revocations revocations.Store

	// Sweepers lists the stores that need periodic pruning.
	Sweepers map[string]Sweeper

	db    *sql.DB
	redis redis.UniversalClient
}

// seams for tests
var (
	sqlOpen        = sql.Open
	newRedisClient = func(url string) (redis.UniversalClient, error) {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
)

// Open connects whatever backends cfg selects, runs migrations when PostgreSQL
// is in use, and returns the stores. Call Close when done.
func Open(ctx context.Context, cfg *config.Config, v users.Verifier, log logging.Logger) (*Stores, error) {
	s := &Stores{Sweepers: make(map[string]Sweeper)}
	m := NewPostgresRepositoryManager()

	if cfg.UsesPostgres() {
		db, err := sqlOpen("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.db = db
		if err := db.PingContext(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info(ctx, "database ready")
	}

	if cfg.UsesRedis() {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		s.redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info(ctx, "redis ready")
	}

	switch cfg.UserStore {
	case config.BackendPostgres:
		s.Users = m.Users(s.db, v)
	case config.BackendMemory:
		s.Users = users.NewMemoryRepository(v)
	default:
		_ = s.Close()
		return nil, fmt.Errorf("user store %q: %w", cfg.UserStore, config.ErrInvalidConfig)
	}

	switch cfg.ChallengeStore {
	case config.BackendRedis:
		s.Challenges = challenges.NewRedisStore(s.redis, cfg.ChallengeTTL)
	case config.BackendMemory:
		ms := challenges.NewMemoryStore(cfg.ChallengeTTL, nil)
		s.Challenges = ms
		s.Sweepers["challenges"] = ms
	default:
		_ = s.Close()
		return nil, fmt.Errorf("challenge store %q: %w", cfg.ChallengeStore, config.ErrInvalidConfig)
	}

	switch cfg.RevocationStore {
	case config.BackendRedis:
		s.Revocations = revocations.NewRedisStore(s.redis)
	case config.BackendPostgres:
		pr := m.Revocations(s.db)
		s.Revocations = pr
		if sw, ok := pr.(Sweeper); ok {
			s.Sweepers["revocations"] = sw
		}
	case config.BackendMemory:
		ms := revocations.NewMemoryStore(nil)
		s.Revocations = ms
		s.Sweepers["revocations"] = ms
	default:
		_ = s.Close()
		return nil, fmt.Errorf("revocation store %q: %w", cfg.RevocationStore, config.ErrInvalidConfig)
	}

	log.Info(ctx, "stores opened",
		"users", cfg.UserStore,
		"challenges", cfg.ChallengeStore,
		"revocations", cfg.RevocationStore,
	)
	return s, nil
}

// Close releases the database and Redis connections.
func (s *Stores) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}
