package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/creatorpulse/server/internal/logging"
)

// jobTimeout bounds a single batch run. Scrapes of many sources can take a
// while; anything past this is stuck.
const jobTimeout = 10 * time.Minute

// Batch jobs driven by the runner. Each runs across every active user and
// isolates per-user failures internally.
type Batch interface {
	RunScrapeBatch(ctx context.Context) error
	RunGenerateBatch(ctx context.Context) error
	RunSendBatch(ctx context.Context) error
}

// Runner drives the recurring batch jobs on an in-process cron schedule.
// Deployments that trigger batches externally (via the cron HTTP endpoints)
// run with the scheduler disabled instead.
type Runner struct {
	cron   *cron.Cron
	batch  Batch
	logger *logging.Logger
}

// NewRunner builds a runner with the scrape job on scrapeSpec and the
// generate and send jobs at the top of every hour, so hour-granular delivery
// slots are each evaluated exactly once.
func NewRunner(batch Batch, scrapeSpec string, logger *logging.Logger) (*Runner, error) {
	r := &Runner{
		cron:   cron.New(),
		batch:  batch,
		logger: logger,
	}

	if _, err := r.cron.AddFunc(scrapeSpec, r.job("scrape", batch.RunScrapeBatch)); err != nil {
		return nil, err
	}
	if _, err := r.cron.AddFunc("0 * * * *", r.job("generate", batch.RunGenerateBatch)); err != nil {
		return nil, err
	}
	if _, err := r.cron.AddFunc("0 * * * *", r.job("send", batch.RunSendBatch)); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Runner) job(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := time.Now()
		r.logger.Info("Batch job started", logging.WithField("job", name))

		if err := run(ctx); err != nil {
			r.logger.Error("Batch job failed", logging.WithFields(map[string]interface{}{
				"job":   name,
				"error": err.Error(),
			}))
			return
		}

		r.logger.Info("Batch job finished", logging.WithFields(map[string]interface{}{
			"job":      name,
			"duration": time.Since(started).String(),
		}))
	}
}

// Start begins executing jobs on their schedules
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("Scheduler started", logging.WithField("jobs", len(r.cron.Entries())))
}

// Stop halts scheduling and waits for any running job to finish
func (r *Runner) Stop(ctx context.Context) {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		r.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}
