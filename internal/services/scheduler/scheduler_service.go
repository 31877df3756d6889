package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// Service fires the pipeline job on a cron schedule.
// At most one pipeline run is in flight at a time.
type Service struct {
	schedule string
	job      func() error
	cron     *cron.Cron
	entry    cron.EntryID
	logger   arbor.ILogger

	mu        sync.Mutex
	started   bool
	running   bool
	lastRun   *time.Time
	lastTook  time.Duration
	lastError string
	runs      int
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler for job. The schedule is checked
// against the minimum interval before anything is registered.
func NewService(schedule string, job func() error, logger arbor.ILogger) (*Service, error) {
	if err := common.ValidateSchedule(schedule); err != nil {
		return nil, common.NewError(common.ErrValidation, "scheduler", err)
	}

	s := &Service{
		schedule: schedule,
		job:      job,
		logger:   logger,
	}
	s.cron = cron.New(cron.WithLogger(cronLogger{logger: logger}))

	entry, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		return nil, common.NewError(common.ErrValidation, "scheduler", err)
	}
	s.entry = entry
	return s, nil
}

// Start begins firing the pipeline on its schedule
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.started = true

	s.logger.Info().Str("schedule", s.schedule).Msg("Pipeline scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Pipeline scheduler stopped")
	return nil
}

// IsRunning reports whether the schedule is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Status returns a snapshot of the pipeline schedule
func (s *Service) Status() *interfaces.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.ScheduleStatus{
		Schedule:  s.schedule,
		Enabled:   s.started,
		IsRunning: s.running,
		LastError: s.lastError,
		Runs:      s.runs,
	}
	if s.lastRun != nil {
		lastRun := *s.lastRun
		status.LastRun = &lastRun
		status.LastDuration = s.lastTook.Round(time.Millisecond).String()
	}
	if s.started {
		if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// run is the cron callback. A tick that lands on an in-flight run is dropped.
func (s *Service) run() {
	if !s.begin() {
		s.logger.Debug().Msg("Pipeline still running, skipping scheduled tick")
		return
	}
	s.execute()
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// execute runs the job and records its outcome. A panic is recorded as the run's error.
func (s *Service) execute() {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Pipeline job panicked")
		}
		s.finish(start, err)
	}()

	s.logger.Info().Msg("Pipeline run starting")
	err = s.job()
}

func (s *Service) finish(start time.Time, err error) {
	took := time.Since(start)

	s.mu.Lock()
	s.running = false
	s.lastRun = &start
	s.lastTook = took
	s.runs++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Dur("duration", took).Msg("Pipeline run finished with errors")
		return
	}
	s.logger.Info().Dur("duration", took).Msg("Pipeline run finished")
}

// cronLogger routes cron's internal logging through arbor
type cronLogger struct {
	logger arbor.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	event := l.logger.Debug()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		event = event.Str(fmt.Sprint(keysAndValues[i]), fmt.Sprint(keysAndValues[i+1]))
	}
	event.Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	event := l.logger.Error().Err(err)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		event = event.Str(fmt.Sprint(keysAndValues[i]), fmt.Sprint(keysAndValues[i+1]))
	}
	event.Msg("cron: " + msg)
}
