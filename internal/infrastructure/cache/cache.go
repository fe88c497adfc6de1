// Package cache keeps practice-session selections in Redis so sessions
// survive a server restart.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/service"
)

const keyPrefix = "karteikarten:session:"

// SessionStates is a service.StateStore backed by Redis.
type SessionStates struct {
	Client *redis.Client
	ttl    time.Duration
}

var _ service.StateStore = (*SessionStates)(nil)

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to Redis. Saved states expire ttl after their last write;
// ttl <= 0 keeps them forever.
func New(ctx context.Context, url string, ttl time.Duration) (*SessionStates, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	return &SessionStates{Client: client, ttl: ttl}, nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (c *SessionStates) Save(ctx context.Context, sessionID string, st service.SessionState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(sessionID), data, c.ttl).Err()
}

func (c *SessionStates) Load(ctx context.Context, sessionID string) (service.SessionState, bool, error) {
	var st service.SessionState
	data, err := c.Client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, false, nil
	}
	if err != nil {
		return st, false, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return st, true, nil
}

func (c *SessionStates) Delete(ctx context.Context, sessionID string) error {
	return c.Client.Del(ctx, key(sessionID)).Err()
}

// Close shuts down the cache client.
func (c *SessionStates) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *SessionStates) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
