package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

// StatusResponse is the pipeline status surface
type StatusResponse struct {
	Running      bool                       `json:"running"`
	State        models.RunKind             `json:"state"`
	ArticleCount int                        `json:"articleCount"`
	LastRun      *models.RunRecord          `json:"lastRun"`
	LastError    string                     `json:"lastError"`
	Schedule     *interfaces.ScheduleStatus `json:"schedule,omitempty"`
}

// StatusHandler handles HTTP requests for pipeline status
type StatusHandler struct {
	runState  interfaces.RunStateService
	articles  interfaces.ArticleStorage
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler. scheduler may be nil.
func NewStatusHandler(runState interfaces.RunStateService, articles interfaces.ArticleStorage, scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		runState:  runState,
		articles:  articles,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Status builds the current status snapshot
func (h *StatusHandler) Status(r *http.Request) (*StatusResponse, error) {
	count, err := h.articles.Count(r.Context())
	if err != nil {
		return nil, err
	}

	snapshot := h.runState.Snapshot()
	response := &StatusResponse{
		Running:      snapshot.Running,
		State:        snapshot.State,
		ArticleCount: count,
		LastRun:      snapshot.LastRun,
	}
	if snapshot.LastRun != nil {
		response.LastError = snapshot.LastRun.Error
	}
	if h.scheduler != nil {
		response.Schedule = h.scheduler.Status()
	}
	return response, nil
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status, err := h.Status(r)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build status")
		WriteErrorFrom(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
