package status

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

// Service owns the pipeline run state. At most one acquisition or bulk
// enhancement run holds the gate at a time.
type Service struct {
	mu           sync.RWMutex
	kind         models.RunKind
	startedAt    time.Time
	lastRun      *models.RunRecord
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewService creates a new run-state service. eventService may be nil.
func NewService(eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		kind:         models.RunIdle,
		eventService: eventService,
		logger:       logger,
	}
}

// TryBegin claims the gate for kind. It returns false when another run holds it.
func (s *Service) TryBegin(kind models.RunKind) bool {
	s.mu.Lock()
	if s.kind != models.RunIdle {
		current := s.kind
		s.mu.Unlock()
		s.logger.Debug().
			Str("requested", string(kind)).
			Str("current", string(current)).
			Msg("Run rejected, another run in progress")
		return false
	}
	s.kind = kind
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().Str("state", string(kind)).Msg("Run started")
	s.publish()
	return true
}

// End releases the gate and records the outcome of the run
func (s *Service) End(runErr error) {
	s.mu.Lock()
	if s.kind == models.RunIdle {
		s.mu.Unlock()
		return
	}
	record := &models.RunRecord{
		Kind:       s.kind,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}
	s.lastRun = record
	s.kind = models.RunIdle
	s.startedAt = time.Time{}
	s.mu.Unlock()

	event := s.logger.Info()
	if runErr != nil {
		event = s.logger.Warn().Err(runErr)
	}
	event.
		Str("kind", string(record.Kind)).
		Dur("duration", record.FinishedAt.Sub(record.StartedAt)).
		Msg("Run finished")

	s.publish()
}

// IsRunning reports whether a run holds the gate
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kind != models.RunIdle
}

// Snapshot returns a copy of the current run state
func (s *Service) Snapshot() models.RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := models.RunState{
		State:   s.kind,
		Running: s.kind != models.RunIdle,
	}
	if state.Running {
		started := s.startedAt
		state.StartedAt = &started
	}
	if s.lastRun != nil {
		last := *s.lastRun
		state.LastRun = &last
	}
	return state
}

func (s *Service) publish() {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventRunStateChanged,
		Payload: s.Snapshot(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish run state")
	}
}
