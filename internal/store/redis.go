package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

const keyPrefix = "game:"

// Redis stores each session as a JSON blob under game:<code>. Every write
// refreshes the key's expiry, so idle sessions vanish on their own.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	target string
}

// NewRedis wraps client. target is the scrubbed connection string reported
// in storage errors.
func NewRedis(client *redis.Client, ttl time.Duration, target string) *Redis {
	if ttl <= 0 {
		ttl = game.DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, target: target}
}

func key(code string) string { return keyPrefix + code }

func (r *Redis) unavailable(err error) error {
	return &UnavailableError{Target: r.target, Err: err}
}

func (r *Redis) Get(ctx context.Context, code string) (*game.Session, error) {
	data, err := r.client.Get(ctx, key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.unavailable(err)
	}
	return decode(data)
}

func (r *Redis) Insert(ctx context.Context, s *game.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, key(s.Code), data, r.ttl).Result()
	if err != nil {
		return r.unavailable(err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *Redis) Put(ctx context.Context, s *game.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(s.Code), data, r.ttl).Err(); err != nil {
		return r.unavailable(err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, code string) error {
	n, err := r.client.Del(ctx, key(code)).Result()
	if err != nil {
		return r.unavailable(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List scans every game:* key. Keys that expire mid-scan are skipped.
func (r *Redis) List(ctx context.Context) ([]*game.Session, error) {
	var out []*game.Session
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		code := strings.TrimPrefix(iter.Val(), keyPrefix)
		s, err := r.Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := iter.Err(); err != nil {
		return nil, r.unavailable(fmt.Errorf("scanning sessions: %w", err))
	}
	return out, nil
}

// Ping reports whether the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return r.unavailable(err)
	}
	return nil
}
