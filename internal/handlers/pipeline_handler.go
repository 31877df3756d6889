package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// PipelineHandler starts acquisition and bulk enhancement runs in the background
type PipelineHandler struct {
	ctx      context.Context
	runState interfaces.RunStateService
	acquirer Acquirer
	enhancer BulkEnhancer
	logger   arbor.ILogger
}

// NewPipelineHandler creates a new PipelineHandler. Background runs use ctx, not the request context.
func NewPipelineHandler(ctx context.Context, runState interfaces.RunStateService, acquirer Acquirer, enhancer BulkEnhancer, logger arbor.ILogger) *PipelineHandler {
	return &PipelineHandler{
		ctx:      ctx,
		runState: runState,
		acquirer: acquirer,
		enhancer: enhancer,
		logger:   logger,
	}
}

// ScrapeHandler handles POST /api/scrape
func (h *PipelineHandler) ScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if h.busy(w) {
		return
	}

	common.SafeGo(h.logger, "pipeline.acquire", func() {
		if _, err := h.acquirer.Acquire(h.ctx); err != nil {
			h.logger.Warn().Str("kind", common.KindOf(err)).Err(err).Msg("Background acquisition failed")
		}
	})

	WriteStarted(w, "Acquisition started")
}

// EnhanceHandler handles POST /api/enhance
func (h *PipelineHandler) EnhanceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if h.busy(w) {
		return
	}

	common.SafeGo(h.logger, "pipeline.enhance", func() {
		if _, err := h.enhancer.EnhanceAll(h.ctx); err != nil {
			h.logger.Warn().Str("kind", common.KindOf(err)).Err(err).Msg("Background enhancement failed")
		}
	})

	WriteStarted(w, "Bulk enhancement started")
}

// busy writes 409 when a run already holds the gate. The run re-checks the gate itself.
func (h *PipelineHandler) busy(w http.ResponseWriter) bool {
	if !h.runState.IsRunning() {
		return false
	}
	snapshot := h.runState.Snapshot()
	WriteError(w, http.StatusConflict, "busy", "A pipeline run is already in progress: "+string(snapshot.State))
	return true
}
