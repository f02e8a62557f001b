package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// pendingMarker is stored while the first request holding a key is still running.
const pendingMarker = "pending"

// ErrInFlight is returned when another request with the same key has not finished yet.
var ErrInFlight = errors.New("request with this idempotency key is still in flight")

// Manager guards client-supplied idempotency keys using Redis SETNX with a TTL.
// Keys follow the `sf:idempotency:<scope>:<key>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds an idempotency guard that keeps keys for the given TTL.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// Claim reserves the key. When the key was already completed the stored result is
// returned with claimed=false; an unfinished holder yields ErrInFlight.
func (m *Manager) Claim(ctx context.Context, scope, key string) (result string, claimed bool, err error) {
	fullKey, err := m.key(scope, key)
	if err != nil {
		return "", false, err
	}
	set, err := m.store.SetNX(ctx, fullKey, pendingMarker, m.ttl)
	if err != nil {
		return "", false, err
	}
	if set {
		return "", true, nil
	}
	stored, err := m.store.Get(ctx, fullKey)
	if err != nil {
		return "", false, err
	}
	if stored == pendingMarker {
		return "", false, ErrInFlight
	}
	return stored, false, nil
}

// Complete records the result for a claimed key so replays can return it.
func (m *Manager) Complete(ctx context.Context, scope, key, result string) error {
	fullKey, err := m.key(scope, key)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, fullKey, result, m.ttl)
}

// Release drops a claim so the client can retry after a failure.
func (m *Manager) Release(ctx context.Context, scope, key string) error {
	fullKey, err := m.key(scope, key)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, fullKey)
}

func (m *Manager) key(scope, key string) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", errors.New("scope is required")
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("idempotency key is required")
	}
	return m.store.IdempotencyKey(scope, strings.TrimSpace(key)), nil
}
