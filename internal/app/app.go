package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/handlers"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/services/crawler"
	"github.com/ternarybob/scribe/internal/services/enhancer"
	"github.com/ternarybob/scribe/internal/services/events"
	"github.com/ternarybob/scribe/internal/services/llm"
	"github.com/ternarybob/scribe/internal/services/references"
	"github.com/ternarybob/scribe/internal/services/scheduler"
	"github.com/ternarybob/scribe/internal/services/search"
	"github.com/ternarybob/scribe/internal/services/status"
	"github.com/ternarybob/scribe/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	StatusService    *status.Service
	SchedulerService *scheduler.Service

	// Acquisition
	Fetcher            *crawler.Fetcher
	Extractor          *crawler.ContentExtractor
	AcquisitionService *crawler.Service

	// Enhancement
	LLMService       interfaces.LLMService
	SearchProvider   interfaces.SearchProvider
	ReferenceService *references.Service
	EnhancerService  *enhancer.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	StatusHandler   *handlers.StatusHandler
	ArticleHandler  *handlers.ArticleHandler
	PipelineHandler *handlers.PipelineHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initDatabase(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Str("search_provider", app.SearchProvider.Name()).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// Context returns the application lifetime context used by background runs
func (a *App) Context() context.Context {
	return a.ctx
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order:
// events and run state, then acquisition, then the enhancement chain (LLM, search, references).
func (a *App) initServices() error {
	var err error
	articles := a.StorageManager.ArticleStorage()

	a.EventService = events.NewService(a.Logger)
	a.StatusService = status.NewService(a.EventService, a.Logger)

	a.Fetcher = crawler.NewFetcher(a.Config.Crawler, a.Logger)
	a.Extractor = crawler.NewContentExtractor(a.Config.Crawler, a.Logger)
	a.AcquisitionService = crawler.NewService(
		a.Config.Crawler,
		a.Fetcher,
		a.Extractor,
		articles,
		a.StatusService,
		a.EventService,
		a.Logger,
	)

	a.LLMService, err = llm.NewLLMService(a.ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	a.SearchProvider, err = search.NewSearchProvider(a.ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize search provider: %w", err)
	}

	a.ReferenceService = references.NewService(
		a.SearchProvider,
		a.Fetcher,
		a.Extractor,
		a.Config.Search.Limit,
		a.Logger,
	)

	generator := enhancer.NewGenerator(
		a.LLMService,
		a.Config.LLM.Temperature,
		a.Config.Enhancement.MinEnhancedLength,
		a.Logger,
	)
	a.EnhancerService = enhancer.NewService(
		a.Config.Enhancement,
		articles,
		a.ReferenceService,
		generator,
		a.StatusService,
		a.EventService,
		a.Logger,
	)

	if a.Config.Scheduler.Enabled {
		job := scheduler.NewPipelineJob(a.ctx, a.AcquisitionService, a.EnhancerService, a.Logger)
		schedulerService, err := scheduler.NewService(a.Config.Scheduler.Schedule, job, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create pipeline scheduler: %w", err)
		}
		a.SchedulerService = schedulerService
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	articles := a.StorageManager.ArticleStorage()

	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	var schedule interfaces.SchedulerService
	if a.SchedulerService != nil {
		schedule = a.SchedulerService
	}
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, articles, schedule, a.Logger)
	a.ArticleHandler = handlers.NewArticleHandler(articles, a.EnhancerService, a.Logger)
	a.PipelineHandler = handlers.NewPipelineHandler(a.ctx, a.StatusService, a.AcquisitionService, a.EnhancerService, a.Logger)

	if a.Config.WebSocket.Enabled {
		a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.StatusHandler, a.Logger, &a.Config.WebSocket)
		if err := a.WSHandler.SubscribeToEvents(); err != nil {
			return fmt.Errorf("failed to subscribe websocket handler: %w", err)
		}
	}

	return nil
}

// StartBackground starts the scheduler and the startup acquisition when the store is empty
func (a *App) StartBackground() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if a.Config.Scheduler.ScrapeOnEmpty {
		common.SafeGo(a.Logger, "startup.acquire", func() {
			if _, err := scheduler.AcquireIfEmpty(a.ctx, a.StorageManager.ArticleStorage(), a.AcquisitionService, a.Logger); err != nil {
				a.Logger.Warn().Err(err).Msg("Startup acquisition failed")
			}
		})
	}

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Let cancelled runs release the gate before storage closes
	if a.StatusService != nil {
		deadline := time.Now().Add(5 * time.Second)
		for a.StatusService.IsRunning() && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
