// Package cache memoizes fetch and summarize results with a TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache is a byte store with per-entry expiry. Get reports a miss with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}

// Key joins parts and hashes them into a fixed-length cache key.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// GetJSON decodes a cached value into v. A value that no longer decodes is
// treated as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // "bolt", "redis" or "memory"
	Path     string // bolt file
	RedisURL string
	Prefix   string // redis key prefix
}

// New opens the configured backend.
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "bolt":
		return OpenBolt(opts.Path)
	case "redis":
		return NewRedis(opts.RedisURL, opts.Prefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// entry wraps stored values with their expiry for backends without native TTL.
type entry struct {
	Expires time.Time `json:"expires"`
	Value   []byte    `json:"value"`
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && now.After(e.Expires)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
