package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

// RedisStore keeps each session as a JSON string under Prefix+id with the
// session lifetime as key TTL, so expiry needs no sweeper.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client, Prefix: "sess:"}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.Client.Get(ctx, r.Prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Wrapf(err, "session get")
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Wrapf(err, "session decode")
	}
	s.ID = id
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return apperr.Wrapf(err, "session encode")
	}
	if err := r.Client.Set(ctx, r.Prefix+s.ID, raw, ttl).Err(); err != nil {
		return apperr.Wrapf(err, "session save")
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.Client.Del(ctx, r.Prefix+id).Err(); err != nil {
		return apperr.Wrapf(err, "session delete")
	}
	return nil
}
