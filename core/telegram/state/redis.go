package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisManager connects to redis and returns a Manager backed by it.
func NewRedisManager(cfg RedisConfig, ttl time.Duration) (Manager, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("state: redis ping: %w", err)
	}
	return &redisManager{client: client, ttl: ttl}, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("dialog:session:%d", userID)
}

func (m *redisManager) Get(ctx context.Context, userID int64) (*Session, error) {
	data, err := m.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("state: redis get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: decode session: %w", err)
	}
	return &s, nil
}

func (m *redisManager) Begin(ctx context.Context, userID int64, flow, stage string) (*Session, error) {
	existing, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing.Active() {
		return nil, ErrDialogActive
	}
	s := NewSession(flow, stage)
	if err := m.Save(ctx, userID, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *redisManager) Save(ctx context.Context, userID int64, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: encode session: %w", err)
	}
	if err := m.client.Set(ctx, sessionKey(userID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

func (m *redisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}

func (m *redisManager) InProgress(ctx context.Context, userID int64) bool {
	n, err := m.client.Exists(ctx, sessionKey(userID)).Result()
	return err == nil && n > 0
}
