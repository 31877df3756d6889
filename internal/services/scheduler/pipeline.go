package scheduler

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"github.com/ternarybob/scribe/internal/models"
)

// Acquirer runs one acquisition pass
type Acquirer interface {
	Acquire(ctx context.Context) (*models.AcquisitionResult, error)
}

// BulkEnhancer enhances every article not yet enhanced
type BulkEnhancer interface {
	EnhanceAll(ctx context.Context) (*models.EnhancementResult, error)
}

// NewPipelineJob returns a job handler that runs acquisition followed by bulk enhancement.
// A stage that finds another run in progress is skipped. An acquisition failure
// does not prevent enhancing the articles already stored.
func NewPipelineJob(ctx context.Context, acquirer Acquirer, enhancer BulkEnhancer, logger arbor.ILogger) func() error {
	return func() error {
		var errs []error

		acquired, err := acquirer.Acquire(ctx)
		switch {
		case errors.Is(err, common.ErrBusy):
			logger.Info().Msg("Acquisition already running, skipping stage")
		case err != nil:
			errs = append(errs, err)
		default:
			logger.Info().
				Int("inserted", acquired.Inserted).
				Int("existing", acquired.Existing).
				Int("rejected", acquired.Rejected).
				Msg("Scheduled acquisition finished")
		}

		enhanced, err := enhancer.EnhanceAll(ctx)
		switch {
		case errors.Is(err, common.ErrBusy):
			logger.Info().Msg("Enhancement already running, skipping stage")
		case err != nil:
			errs = append(errs, err)
		default:
			logger.Info().
				Int("enhanced", enhanced.Enhanced).
				Int("failed", enhanced.Failed).
				Int("skipped", enhanced.Skipped).
				Msg("Scheduled enhancement finished")
		}

		return errors.Join(errs...)
	}
}

// AcquireIfEmpty runs one acquisition when no articles are stored.
// Returns true when acquisition ran.
func AcquireIfEmpty(ctx context.Context, articles interfaces.ArticleStorage, acquirer Acquirer, logger arbor.ILogger) (bool, error) {
	count, err := articles.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		logger.Debug().Int("articles", count).Msg("Articles present, skipping startup acquisition")
		return false, nil
	}

	logger.Info().Msg("No articles stored, running startup acquisition")
	if _, err := acquirer.Acquire(ctx); err != nil {
		return true, err
	}
	return true, nil
}
