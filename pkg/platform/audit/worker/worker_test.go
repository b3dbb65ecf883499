package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vismooc/pkg/platform/audit"
)

func TestWorkerDrainsEvents(t *testing.T) {
	store := audit.NewInMemoryStore()
	inbox := make(chan audit.Event, 4)
	w := New(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	inbox <- audit.Event{Action: audit.ActionLoginSucceeded, Username: "alice"}
	inbox <- audit.Event{Action: audit.ActionLogout, Username: "alice"}

	require.Eventually(t, func() bool {
		return len(store.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	events := store.Events()
	require.Equal(t, audit.ActionLoginSucceeded, events[0].Action)
	require.Equal(t, audit.ActionLogout, events[1].Action)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("broker unreachable")
}

func TestWorkerStopsOnStoreError(t *testing.T) {
	inbox := make(chan audit.Event, 1)
	w := New(failingStore{}, inbox)

	inbox <- audit.Event{Action: audit.ActionLoginFailed}

	err := w.Run(context.Background())
	require.EqualError(t, err, "broker unreachable")
}
