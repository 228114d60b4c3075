package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alias1177/oracle/models"
)

// ErrNotStored is returned by a Store holding no snapshot.
var ErrNotStored = errors.New("calendar: no stored snapshot")

// Store persists snapshots across restarts.
type Store interface {
	Load(ctx context.Context) ([]models.CalendarEvent, time.Time, error)
	Save(ctx context.Context, events []models.CalendarEvent, fetchedAt time.Time) error
}

type storedSnapshot struct {
	FetchedAt time.Time              `json:"fetched_at"`
	Events    []models.CalendarEvent `json:"events"`
}

// RedisStore keeps the latest snapshot under one key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to addr and checks the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, key: "oracle:calendar:snapshot", ttl: ttl}, nil
}

// Load implements Store
func (r *RedisStore) Load(ctx context.Context) ([]models.CalendarEvent, time.Time, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, ErrNotStored
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeSnapshot(data)
}

// Save implements Store
func (r *RedisStore) Save(ctx context.Context, events []models.CalendarEvent, fetchedAt time.Time) error {
	data, err := encodeSnapshot(events, fetchedAt)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func encodeSnapshot(events []models.CalendarEvent, fetchedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(storedSnapshot{FetchedAt: fetchedAt.UTC(), Events: events})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]models.CalendarEvent, time.Time, error) {
	var s storedSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.FetchedAt.IsZero() {
		return nil, time.Time{}, ErrNotStored
	}
	return s.Events, s.FetchedAt, nil
}
