package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-telemetry/internal/weather"
)

// Auditor runs the orphan audit.
type Auditor interface {
	Audit(ctx context.Context) (weather.AuditReport, error)
}

// Recorder receives audit outcomes. metrics.Metrics satisfies it.
type Recorder interface {
	RecordAudit(weather.AuditReport)
	RecordAuditFailure()
}

const jobTimeout = time.Minute

// Scheduler periodically audits the store for dangling references.
type Scheduler struct {
	scheduler *gocron.Scheduler
	auditor   Auditor
	recorder  Recorder
	interval  time.Duration
}

// New creates a new Scheduler. recorder may be nil.
func New(interval time.Duration, auditor Auditor, recorder Recorder) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		auditor:   auditor,
		recorder:  recorder,
		interval:  interval,
	}
}

// Start schedules the audit job and starts the underlying scheduler. A
// non-positive interval disables the audit.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		slog.Info("scheduler: audit disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single audit and records its outcome.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rep, err := s.auditor.Audit(ctx)
	if err != nil {
		slog.Error("scheduler: audit failed", "error", err)
		if s.recorder != nil {
			s.recorder.RecordAuditFailure()
		}
		return
	}
	if rep.OrphanCities > 0 || rep.OrphanReadings > 0 {
		slog.Warn("scheduler: orphaned documents found",
			"orphan_cities", rep.OrphanCities,
			"orphan_readings", rep.OrphanReadings,
		)
	}
	slog.Info("scheduler: audit completed",
		"countries", rep.Countries,
		"cities", rep.Cities,
		"readings", rep.Readings,
	)
	if s.recorder != nil {
		s.recorder.RecordAudit(rep)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
