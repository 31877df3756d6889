// Package events carries pipeline notifications (run state, acquired and
// enhanced articles) from the services to the websocket stream.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// DefaultQueueSize is the per-subscriber backlog before Publish starts dropping
const DefaultQueueSize = 256

// ErrClosed is returned when publishing to or subscribing on a closed service
var ErrClosed = errors.New("event service closed")

// delivery is one event on its way to one subscriber. done is set for PublishSync.
type delivery struct {
	ctx   context.Context
	event interfaces.Event
	done  func(error)
}

// subscriber owns a queue drained by a single goroutine, so it sees events in publish order
type subscriber struct {
	handler interfaces.EventHandler
	queue   chan delivery
}

// Service is an in-process event bus with ordered per-subscriber delivery
type Service struct {
	mu          sync.RWMutex
	subscribers map[interfaces.EventType][]*subscriber
	closed      bool
	queueSize   int
	drainers    sync.WaitGroup
	logger      arbor.ILogger
}

// NewService creates an event bus with DefaultQueueSize queues
func NewService(logger arbor.ILogger) interfaces.EventService {
	return NewServiceWithQueue(logger, DefaultQueueSize)
}

// NewServiceWithQueue creates an event bus whose subscribers buffer queueSize events
func NewServiceWithQueue(logger arbor.ILogger, queueSize int) *Service {
	return &Service{
		subscribers: make(map[interfaces.EventType][]*subscriber),
		queueSize:   max(queueSize, 1),
		logger:      logger,
	}
}

// Subscribe starts a queue for handler on eventType
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	sub := &subscriber{handler: handler, queue: make(chan delivery, s.queueSize)}
	s.subscribers[eventType] = append(s.subscribers[eventType], sub)

	s.drainers.Add(1)
	go s.drain(eventType, sub)

	return nil
}

// Publish queues event for every subscriber without waiting.
// A subscriber whose queue is full misses the event.
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	d := delivery{ctx: context.WithoutCancel(ctx), event: event}
	for _, sub := range s.subscribers[event.Type] {
		select {
		case sub.queue <- d:
		default:
			s.logger.Warn().
				Str("event_type", string(event.Type)).
				Int("queue_size", s.queueSize).
				Msg("Subscriber queue full, event dropped")
		}
	}
	return nil
}

// PublishSync queues event behind anything already pending and waits until every
// subscriber has handled it. Handler errors are joined.
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	subs := s.subscribers[event.Type]

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		failed []error
	)
	d := delivery{ctx: ctx, event: event, done: func(err error) {
		if err != nil {
			errMu.Lock()
			failed = append(failed, err)
			errMu.Unlock()
		}
		wg.Done()
	}}

	for _, sub := range subs {
		wg.Add(1)
		select {
		case sub.queue <- d:
		case <-ctx.Done():
			wg.Done()
			failed = append(failed, ctx.Err())
		}
	}
	s.mu.RUnlock()

	wg.Wait()
	return errors.Join(failed...)
}

func (s *Service) drain(eventType interfaces.EventType, sub *subscriber) {
	defer s.drainers.Done()
	for d := range sub.queue {
		err := s.handle(sub, d)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("event_type", string(eventType)).
				Msg("Event handler failed")
		}
		if d.done != nil {
			d.done(err)
		}
	}
}

// handle runs one handler call; a panic is logged and reported as an error
func (s *Service) handle(sub *subscriber, d delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(d.ctx, d.event)
}

// Close stops accepting events and waits for queued ones to be handled
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, subs := range s.subscribers {
		for _, sub := range subs {
			close(sub.queue)
		}
	}
	s.subscribers = nil
	s.mu.Unlock()

	s.drainers.Wait()
	s.logger.Debug().Msg("Event service closed")
	return nil
}
