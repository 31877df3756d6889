package models

import "time"

// RunKind identifies a long-running pipeline operation
type RunKind string

const (
	RunIdle      RunKind = "idle"
	RunAcquiring RunKind = "acquiring"
	RunEnhancing RunKind = "enhancing"
)

// RunState is a point-in-time snapshot of pipeline activity
type RunState struct {
	State     RunKind    `json:"state"`
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastRun   *RunRecord `json:"last_run,omitempty"`
}

// RunRecord summarises a finished run
type RunRecord struct {
	Kind       RunKind   `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// AcquisitionResult reports what a single acquisition run did
type AcquisitionResult struct {
	Discovered int `json:"discovered"` // Links found across listing pages
	Considered int `json:"considered"` // Links in the trailing slice
	Inserted   int `json:"inserted"`
	Existing   int `json:"existing"` // Already stored, skipped before fetch
	Rejected   int `json:"rejected"` // Failed fetch, extraction or the length gate
}

// EnhancementResult reports what a bulk enhancement run did
type EnhancementResult struct {
	Total    int `json:"total"`
	Skipped  int `json:"skipped"` // Already enhanced
	Enhanced int `json:"enhanced"`
	Failed   int `json:"failed"`
}
