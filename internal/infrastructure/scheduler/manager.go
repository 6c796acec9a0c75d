// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/warden-sh/warden/internal/shared/config"
	"github.com/warden-sh/warden/internal/shared/goroutine"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterLicenseJobs registers the license maintenance sweeps:
// - Revoke suspended licenses whose grace deadline has passed
// - Mark active licenses past their expiry timestamp as expired
// Both run on their configured intervals and once at startup.
func (m *SchedulerManager) RegisterLicenseJobs(
	expireGracePeriodsJob BatchJob,
	expireLicensesJob BatchJob,
	cfg config.JobsConfig,
) error {
	graceInterval := time.Duration(cfg.GracePeriodIntervalMinutes) * time.Minute
	if graceInterval <= 0 {
		graceInterval = time.Hour
	}
	expireInterval := time.Duration(cfg.ExpirationIntervalMinutes) * time.Minute
	if expireInterval <= 0 {
		expireInterval = time.Hour
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(graceInterval),
		gocron.NewTask(m.sweepTask("grace period sweep", 5*time.Minute, expireGracePeriodsJob)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("license", "grace-period"),
		gocron.WithName("license-grace-period-sweep"),
	)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		gocron.DurationJob(expireInterval),
		gocron.NewTask(m.sweepTask("expiration sweep", 5*time.Minute, expireLicensesJob)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("license", "expiration"),
		gocron.WithName("license-expiration-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered license jobs",
		"grace_interval", graceInterval.String(),
		"expiration_interval", expireInterval.String(),
	)
	return nil
}

// RegisterStaleDeviceJob registers the stale device cleanup sweep. It is
// opt-in and skipped entirely unless enabled in configuration.
func (m *SchedulerManager) RegisterStaleDeviceJob(
	releaseStaleDevicesJob BatchJob,
	cfg config.JobsConfig,
) error {
	if !cfg.StaleDeviceCleanupEnabled {
		m.logger.Infow("stale device cleanup disabled, skipping registration")
		return nil
	}

	interval := time.Duration(cfg.StaleDeviceIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.sweepTask("stale device sweep", 10*time.Minute, releaseStaleDevicesJob)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("license", "stale-device"),
		gocron.WithName("license-stale-device-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered stale device job",
		"interval", interval.String(),
		"stale_days", cfg.StaleDeviceDays,
	)
	return nil
}

// sweepTask builds the closure a job runs on: a bounded context plus panic
// recovery. gocron owns the task goroutine, so the guard runs in place and
// singleton rescheduling still sees the sweep's full duration.
func (m *SchedulerManager) sweepTask(name string, timeout time.Duration, job BatchJob) func() {
	return func() {
		goroutine.SafeCall(m.logger, name, func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runSweep(ctx, name, job)
		})
	}
}

func (m *SchedulerManager) runSweep(ctx context.Context, name string, job BatchJob) {
	m.logger.Debugw("sweep started", "sweep", name)

	startTime := time.Now().UTC()

	count, err := job.Execute(ctx)
	if err != nil {
		// Don't log error if context was cancelled (graceful shutdown)
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("sweep failed",
			"sweep", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("sweep completed",
			"sweep", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("sweep found nothing to process",
			"sweep", name,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
