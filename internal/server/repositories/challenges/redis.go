package challenges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "two_fa_code:"
	maxRetries = 5
)

type redisValue struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Code           string `json:"code"`
}

type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = common.ChallengeTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(email domain.Email) string {
	return keyPrefix + email.String()
}

func (s *RedisStore) Issue(ctx context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error {
	raw, err := json.Marshal(redisValue{LoginAttemptID: attemptID.String(), Code: code.String()})
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.client.Set(ctx, s.key(email), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// VerifyAndConsume compares and deletes inside a WATCH transaction, so two
// concurrent calls with the right code cannot both succeed.
func (s *RedisStore) VerifyAndConsume(ctx context.Context, email domain.Email, attemptID domain.LoginAttemptID, code domain.TwoFACode) error {
	key := s.key(email)

	txf := func(tx *redis.Tx) error {
		c, err := s.read(ctx, tx, key)
		if err != nil {
			return err
		}
		if !matches(c, attemptID, code) {
			return common.ErrMismatch
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrMismatch) {
			return fmt.Errorf("redis verify: %w", err)
		}
		return err
	}
	return fmt.Errorf("redis verify: %w", redis.TxFailedErr)
}

func (s *RedisStore) Remove(ctx context.Context, email domain.Email) error {
	n, err := s.client.Del(ctx, s.key(email)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email domain.Email) (Challenge, error) {
	key := s.key(email)

	c, err := s.read(ctx, s.client, key)
	if err != nil {
		return Challenge{}, err
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return Challenge{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl > 0 {
		c.ExpiresAt = time.Now().Add(ttl)
	}
	return c, nil
}

// getter is satisfied by both the client and a *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, cmd getter, key string) (Challenge, error) {
	raw, err := cmd.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, common.ErrNotFound
		}
		return Challenge{}, fmt.Errorf("redis get: %w", err)
	}

	var v redisValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return Challenge{}, fmt.Errorf("decode challenge: %w", err)
	}
	id, err := domain.ParseLoginAttemptID(v.LoginAttemptID)
	if err != nil {
		return Challenge{}, fmt.Errorf("stored attempt id: %w", err)
	}
	code, err := domain.ParseTwoFACode(v.Code)
	if err != nil {
		return Challenge{}, fmt.Errorf("stored code: %w", err)
	}
	return Challenge{AttemptID: id, Code: code}, nil
}
