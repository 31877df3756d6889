package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (r *recordingEvents) Publish(_ context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}
func (r *recordingEvents) PublishSync(ctx context.Context, event interfaces.Event) error {
	return r.Publish(ctx, event)
}
func (r *recordingEvents) Close() error { return nil }

func TestService_GateIsExclusive(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	require.True(t, svc.TryBegin(models.RunAcquiring))
	assert.True(t, svc.IsRunning())
	assert.False(t, svc.TryBegin(models.RunEnhancing))

	snapshot := svc.Snapshot()
	assert.Equal(t, models.RunAcquiring, snapshot.State)
	assert.True(t, snapshot.Running)
	require.NotNil(t, snapshot.StartedAt)

	svc.End(nil)
	assert.False(t, svc.IsRunning())
	assert.True(t, svc.TryBegin(models.RunEnhancing))
	svc.End(nil)
}

func TestService_EndRecordsLastRun(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	require.True(t, svc.TryBegin(models.RunEnhancing))
	svc.End(errors.New("generation failed"))

	snapshot := svc.Snapshot()
	assert.Equal(t, models.RunIdle, snapshot.State)
	assert.False(t, snapshot.Running)
	assert.Nil(t, snapshot.StartedAt)
	require.NotNil(t, snapshot.LastRun)
	assert.Equal(t, models.RunEnhancing, snapshot.LastRun.Kind)
	assert.Equal(t, "generation failed", snapshot.LastRun.Error)
}

func TestService_EndWithoutBeginIsNoop(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())
	svc.End(nil)
	assert.Nil(t, svc.Snapshot().LastRun)
}

func TestService_ConcurrentTryBegin(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.TryBegin(models.RunAcquiring) {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestService_PublishesStateChanges(t *testing.T) {
	events := &recordingEvents{}
	svc := NewService(events, arbor.NewLogger())

	require.True(t, svc.TryBegin(models.RunAcquiring))
	svc.End(nil)

	require.Len(t, events.events, 2)
	for _, event := range events.events {
		assert.Equal(t, interfaces.EventRunStateChanged, event.Type)
	}
	assert.True(t, events.events[0].Payload.(models.RunState).Running)
	assert.False(t, events.events[1].Payload.(models.RunState).Running)
}
