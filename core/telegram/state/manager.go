package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDialogActive is returned by Begin when the user already has a dialog in progress.
var ErrDialogActive = errors.New("state: dialog already in progress")

// Manager persists dialog sessions keyed by Telegram user ID.
//
// Implementations must treat a missing session as "no dialog": Get returns
// (nil, nil) in that case. Mutations performed on a Session returned by Get
// are not visible to other callers until Save.
type Manager interface {
	// Get loads the session for a user, or nil when none exists.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Begin creates a fresh session unless one is already active.
	Begin(ctx context.Context, userID int64, flow, stage string) (*Session, error)
	// Save persists the session.
	Save(ctx context.Context, userID int64, s *Session) error
	// Clear removes the session.
	Clear(ctx context.Context, userID int64) error
	// InProgress reports whether the user has an active session.
	InProgress(ctx context.Context, userID int64) bool
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"SESSION_REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"SESSION_REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"SESSION_REDIS_DB"`
}

// Config selects and tunes the session backend.
type Config struct {
	Backend    string      `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLMinutes int         `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
	Redis      RedisConfig `yaml:"redis"`
}

const (
	// BackendMemory keeps sessions in process memory. Sessions are lost on restart.
	BackendMemory = "memory"
	// BackendRedis keeps sessions in redis so a restart does not drop active dialogs.
	BackendRedis = "redis"

	defaultTTL = 12 * time.Hour
)

// TTL returns the configured session lifetime.
func (c Config) TTL() time.Duration {
	if c.TTLMinutes > 0 {
		return time.Duration(c.TTLMinutes) * time.Minute
	}
	return defaultTTL
}

// NewManager constructs the backend selected by cfg.Backend (memory by default).
func NewManager(cfg Config) (Manager, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", BackendMemory:
		return NewMemoryManager(cfg.TTL()), nil
	case BackendRedis:
		return NewRedisManager(cfg.Redis, cfg.TTL())
	}
	return nil, fmt.Errorf("state: unknown session backend %q", cfg.Backend)
}
