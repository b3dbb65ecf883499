package session

import (
	"context"
	"time"
)

// Store persists session state keyed by session ID. Implementations return
// sentinel.ErrNotFound when the ID is unknown and sentinel.ErrExpired when the
// entry existed but is past its TTL.
type Store interface {
	Get(ctx context.Context, sid string) (map[string]any, error)
	Set(ctx context.Context, sid string, values map[string]any, ttl time.Duration) error
	Destroy(ctx context.Context, sid string) error
}
