package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Tiered reads through a fast local cache and a shared remote one. Remote hits are copied into
// the local tier with the local TTL. Remote errors degrade to a miss.
type Tiered struct {
	local    *TTLCache
	remote   BytesCache
	localTTL time.Duration
}

func NewTiered(local *TTLCache, remote BytesCache, localTTL time.Duration) *Tiered {
	return &Tiered{local: local, remote: remote, localTTL: localTTL}
}

func (t *Tiered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := t.local.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	if t.remote == nil {
		return nil, false, nil
	}
	b, ok, err := t.remote.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.local.SetBytes(ctx, key, b, t.localTTL)
	return b, true, nil
}

func (t *Tiered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = t.local.SetBytes(ctx, key, value, ttl)
	if t.remote == nil {
		return nil
	}
	return t.remote.SetBytes(ctx, key, value, ttl)
}
