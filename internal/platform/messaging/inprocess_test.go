package messaging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	contractsv1 "reelrivals/contracts/events/v1"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInProcessFansOutAcrossGroups(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(quietLogger())

	var mu sync.Mutex
	received := map[string][]string{}
	record := func(group string) func(context.Context, contractsv1.Envelope) error {
		return func(_ context.Context, event contractsv1.Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			received[group] = append(received[group], event.EventID)
			return nil
		}
	}
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVideoUploaded, "matchmaking", record("matchmaking")))
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVideoUploaded, "analytics", record("analytics")))
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVoteCast, "other", record("other")))

	require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeVideoUploaded, contractsv1.Envelope{EventID: "evt-1", EventType: contractsv1.EventTypeVideoUploaded}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received["matchmaking"]) == 1 && len(received["analytics"]) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, received["other"])
}

func TestInProcessSharesWorkWithinGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(quietLogger())

	var first, second atomic.Int32
	require.NoError(t, bus.Subscribe(ctx, "topic", "group", func(context.Context, contractsv1.Envelope) error {
		first.Add(1)
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, "topic", "group", func(context.Context, contractsv1.Envelope) error {
		second.Add(1)
		return nil
	}))

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(ctx, "topic", contractsv1.Envelope{EventID: "evt"}))
	}
	require.Eventually(t, func() bool {
		return first.Load() == 2 && second.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestInProcessReportsBusySubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(quietLogger())

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, bus.Subscribe(ctx, "topic", "slow", func(context.Context, contractsv1.Envelope) error {
		<-release
		return nil
	}))

	var busy error
	for i := 0; i < subscriberBuffer+2 && busy == nil; i++ {
		busy = bus.Publish(ctx, "topic", contractsv1.Envelope{EventID: "evt"})
	}
	require.ErrorIs(t, busy, ErrSubscriberBusy)
}

func TestInProcessPublishWithoutSubscribers(t *testing.T) {
	bus := NewInProcess(quietLogger())
	require.NoError(t, bus.Publish(context.Background(), "nobody", contractsv1.Envelope{EventID: "evt"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bus.Publish(ctx, "nobody", contractsv1.Envelope{EventID: "evt"}), context.Canceled)
}
