package interfaces

import "github.com/ternarybob/scribe/internal/models"

// RunStateService is the process-wide busy gate for acquisition and bulk enhancement
type RunStateService interface {
	// TryBegin claims the gate; false means another run holds it
	TryBegin(kind models.RunKind) bool
	// End releases the gate, recording runErr as the run outcome
	End(runErr error)
	IsRunning() bool
	Snapshot() models.RunState
}
