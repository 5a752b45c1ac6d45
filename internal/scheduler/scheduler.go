package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/ha-weather-tool/internal/publish"
	"github.com/i474232898/ha-weather-tool/internal/weather"
)

// Refresher produces and stores one report.
type Refresher interface {
	RefreshAndStore(ctx context.Context) (weather.Report, error)
}

// Scheduler periodically produces weather reports.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	publisher publish.Publisher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. publisher may be nil.
func New(interval time.Duration, service Refresher, publisher publish.Publisher, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		publisher: publisher,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: no refresh interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce produces, stores and publishes a single report.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.service.RefreshAndStore(ctx)
	if err != nil {
		s.logger.Error("scheduler: refresh failed", "error", err)
		return
	}
	s.logger.Info("scheduler: report refreshed", "report", report.ID, "failed", report.Failed)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(report); err != nil {
		s.logger.Warn("scheduler: publish failed", "report", report.ID, "error", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
