package service

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner drives the sweep on a cron schedule. The sweep itself assumes
// nothing about cadence; the manual admin trigger shares the same path.
type Runner struct {
	cron     *cron.Cron
	service  *Service
	schedule string
	logger   *slog.Logger
}

func NewRunner(svc *Service, schedule string, logger *slog.Logger) *Runner {
	return &Runner{
		cron:     cron.New(),
		service:  svc,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the scheduler.
func (r *Runner) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx := context.Background()
		report, err := r.service.Sweep(ctx)
		if err != nil {
			r.logger.Error("scheduled sweep failed", "error", err)
			return
		}
		if len(report.Errors) > 0 {
			r.logger.Warn("scheduled sweep finished with errors",
				"deactivated", report.Deactivated,
				"warned", report.Warned,
				"errors", len(report.Errors),
			)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("lifecycle scheduler started", "schedule", r.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("lifecycle scheduler stopped")
}
