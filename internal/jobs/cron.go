package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/casabook/casabook-api/pkg/logger"
)

// CronRunner fires jobs on cron expressions through the worker pool. The
// recurring-transaction due pass is driven from here; the engine itself never
// reads the clock.
type CronRunner struct {
	cron   *cron.Cron
	worker *Worker
}

// NewCronRunner creates a cron runner backed by the given worker
func NewCronRunner(worker *Worker) *CronRunner {
	return &CronRunner{
		cron:   cron.New(),
		worker: worker,
	}
}

// Schedule registers a job under a standard 5-field cron expression
func (c *CronRunner) Schedule(spec string, name string, job Job) error {
	_, err := c.cron.AddFunc(spec, func() {
		logger.Debug(fmt.Sprintf("[Cron] Triggering %s", name))
		c.worker.Enqueue(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start begins firing scheduled jobs
func (c *CronRunner) Start() {
	c.cron.Start()
}

// Stop halts the scheduler and waits for in-flight triggers
func (c *CronRunner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}
