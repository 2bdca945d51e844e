// Package dedup suppresses duplicate webhook deliveries for the same
// contract. The guard is best-effort idempotency, not mutual exclusion: the
// authoritative status check still runs after it, and the admission race
// described in DESIGN.md remains open.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard claims a contract id for the duration of one run.
type Guard interface {
	// TryAcquire returns false when another delivery already holds the id.
	TryAcquire(ctx context.Context, contractID string) (bool, error)
	Release(ctx context.Context, contractID string) error
}

// RedisGuard claims ids across processes with SET NX + TTL. On Redis failure
// it fails open: an outage must not stop extraction, it only weakens
// duplicate suppression.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(addr, password, prefix string, ttl time.Duration) (*RedisGuard, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("dedup guard redis addr is required")
	}
	if prefix == "" {
		prefix = "contracttext:run"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisGuard{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (g *RedisGuard) key(contractID string) string {
	return g.prefix + ":" + contractID
}

func (g *RedisGuard) TryAcquire(ctx context.Context, contractID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(contractID), time.Now().UTC().Format(time.RFC3339Nano), g.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("dedup acquire: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, contractID string) error {
	if err := g.client.Del(ctx, g.key(contractID)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

// MemoryGuard claims ids within one process; used when no Redis is
// configured and in tests.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, contractID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.held[contractID]; taken {
		return false, nil
	}
	g.held[contractID] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, contractID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, contractID)
	return nil
}
