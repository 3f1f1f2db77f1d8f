package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/airassist/config"
	"github.com/Domenick1991/airassist/internal/chat"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     redis.Cmdable
	flightsTTL time.Duration
	sessionTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, sessionTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL,
		sessionTTL,
	)
}

func NewRedisCacheWithClient(client redis.Cmdable, flightsTTL, sessionTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		flightsTTL: flightsTTL,
		sessionTTL: sessionTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetFlights returns nil, nil on a cache miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// Sessions exposes the same client as a chat.SessionStore.
func (c *RedisCache) Sessions() *SessionStore {
	return &SessionStore{client: c.client, ttl: c.sessionTTL}
}

type SessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func (s *SessionStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var sess chat.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save refreshes the session TTL on every write.
func (s *SessionStore) Save(ctx context.Context, sess *chat.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), payload, s.ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func sessionKey(id string) string {
	return "chat:session:" + id
}

var _ chat.SessionStore = (*SessionStore)(nil)
