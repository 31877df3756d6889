package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
)

func TestService_PublishSyncDeliversToAllHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	var mu sync.Mutex
	received := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Subscribe(interfaces.EventArticleAcquired, func(ctx context.Context, event interfaces.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received++
			return nil
		}))
	}

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventArticleAcquired})
	require.NoError(t, err)
	assert.Equal(t, 3, received)
}

func TestService_PublishSyncReportsHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	require.NoError(t, svc.Subscribe(interfaces.EventEnhancementFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("boom")
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventEnhancementFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestService_PreservesPublishOrder(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var mu sync.Mutex
	var states []string
	require.NoError(t, svc.Subscribe(interfaces.EventRunStateChanged, func(ctx context.Context, event interfaces.Event) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		states = append(states, event.Payload.(string))
		return nil
	}))

	want := []string{"acquiring", "idle", "enhancing", "idle"}
	for _, state := range want {
		require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventRunStateChanged, Payload: state}))
	}
	require.NoError(t, svc.Close())

	assert.Equal(t, want, states)
}

func TestService_DeliveryOutlivesPublisherContext(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	seen := make(chan error, 1)
	require.NoError(t, svc.Subscribe(interfaces.EventArticleEnhanced, func(ctx context.Context, event interfaces.Event) error {
		seen <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Publish(ctx, interfaces.Event{Type: interfaces.EventArticleEnhanced, Payload: "art_1"}))
	cancel()

	select {
	case err := <-seen:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestService_HandlerPanicIsReportedAndQueueKeepsRunning(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	calls := 0
	require.NoError(t, svc.Subscribe(interfaces.EventRunStateChanged, func(ctx context.Context, event interfaces.Event) error {
		calls++
		if calls == 1 {
			panic("handler exploded")
		}
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventRunStateChanged})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler exploded")

	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventRunStateChanged}))
	assert.Equal(t, 2, calls)
}

func TestService_FullQueueDropsEvents(t *testing.T) {
	svc := NewServiceWithQueue(arbor.NewLogger(), 1)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	handled := 0
	require.NoError(t, svc.Subscribe(interfaces.EventArticleAcquired, func(ctx context.Context, event interfaces.Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	}))

	event := interfaces.Event{Type: interfaces.EventArticleAcquired}
	require.NoError(t, svc.Publish(context.Background(), event))
	<-started
	require.NoError(t, svc.Publish(context.Background(), event)) // queued
	require.NoError(t, svc.Publish(context.Background(), event)) // dropped

	close(release)
	require.NoError(t, svc.Close())
	assert.Equal(t, 2, handled)
}

func TestService_ClosedRejectsPublishing(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	event := interfaces.Event{Type: interfaces.EventArticleAcquired}
	assert.ErrorIs(t, svc.Publish(context.Background(), event), ErrClosed)
	assert.ErrorIs(t, svc.PublishSync(context.Background(), event), ErrClosed)
	assert.ErrorIs(t, svc.Subscribe(interfaces.EventArticleAcquired, func(context.Context, interfaces.Event) error { return nil }), ErrClosed)
}

func TestService_SubscribeRejectsNilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()
	assert.Error(t, svc.Subscribe(interfaces.EventRunStateChanged, nil))
}

func TestService_NoSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()
	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventArticleAcquired}))
	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventArticleAcquired}))
}
