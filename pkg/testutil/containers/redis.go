//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer is a disposable Redis instance bound to the test lifecycle.
type RedisContainer struct {
	container *tcredis.RedisContainer

	// Addr is the host:port the container listens on.
	Addr string
}

// NewRedisContainer starts a Redis container and registers cleanup on t.
func NewRedisContainer(ctx context.Context, t *testing.T) (*RedisContainer, error) {
	t.Helper()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}
	t.Cleanup(func() {
		testcontainers.CleanupContainer(t, container)
	})

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}

	return &RedisContainer{
		container: container,
		Addr:      fmt.Sprintf("%s:%s", host, port.Port()),
	}, nil
}
