package interfaces

import "time"

// ScheduleStatus reports the periodic pipeline run
type ScheduleStatus struct {
	Schedule     string     `json:"schedule"`
	Enabled      bool       `json:"enabled"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	IsRunning    bool       `json:"is_running"`
	LastError    string     `json:"last_error,omitempty"`
	Runs         int        `json:"runs"`
}

// SchedulerService fires the acquire-then-enhance pipeline on a cron schedule
type SchedulerService interface {
	// Start begins firing the pipeline on its schedule
	Start() error

	// Stop halts the schedule and waits for an in-flight run to return
	Stop() error

	// IsRunning returns true if the schedule is active
	IsRunning() bool

	// Status returns a snapshot of the schedule
	Status() *ScheduleStatus
}
