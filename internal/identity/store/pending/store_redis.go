package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentmeroom/internal/identity/models"
	"rentmeroom/pkg/platform/sentinel"
)

const (
	keyPrefix = "rmr:pending:"
	// Keys outlive the code so confirmation can still report expiry.
	retentionGrace = 10 * time.Minute
)

// RedisStore keeps each registration as a JSON value under its email key.
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, clock: time.Now}
}

func (s *RedisStore) Upsert(ctx context.Context, p *models.PendingRegistration) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}
	ttl := p.ExpiresAt.Sub(s.clock()) + retentionGrace
	if ttl <= 0 {
		ttl = retentionGrace
	}
	if err := s.client.Set(ctx, keyPrefix+p.Email, body, ttl).Err(); err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, email string) (*models.PendingRegistration, error) {
	body, err := s.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending registration: %w", err)
	}
	var p models.PendingRegistration
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode pending registration: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}
