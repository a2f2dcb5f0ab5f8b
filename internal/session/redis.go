package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

const DefaultTTL = 12 * time.Hour

func NewRedisStore(client *redis.Client, baseTTL time.Duration) *RedisStore {
	if baseTTL <= 0 {
		baseTTL = DefaultTTL
	}
	return &RedisStore{
		client:  client,
		baseTTL: baseTTL,
	}
}

// RedisStore keeps terminal sessions as JSON with a sliding TTL. An idle terminal's
// session expires, which is the only persistence a session gets.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisStore) Get(ctx context.Context, terminalID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(terminalID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &sess, nil
}

func (r *RedisStore) Set(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, sessionKey(sess.TerminalID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, terminalID string) error {
	if err := r.client.Del(ctx, sessionKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(terminalID string) string {
	return fmt.Sprintf("caja:session:%s", terminalID)
}
