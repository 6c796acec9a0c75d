package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/application/license/usecases"
	"github.com/warden-sh/warden/internal/infrastructure/config"
	"github.com/warden-sh/warden/internal/infrastructure/database"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/infrastructure/repository"
	"github.com/warden-sh/warden/internal/infrastructure/scheduler"
	"github.com/warden-sh/warden/internal/shared/licensekey"
	"github.com/warden-sh/warden/internal/shared/logger"
)

var autoMigrate bool

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the license service",
		Long:  `Start the Warden license service: connects to the database, wires the license engine, and runs the maintenance sweeps until interrupted.`,
		RunE:  run,
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	instanceID := uuid.NewString()
	logger.Info("starting warden",
		"instance_id", instanceID,
		"auto_migrate", autoMigrate)

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := database.Get().AutoMigrate(&models.LicenseModel{}, &models.BindingHistoryModel{}); err != nil {
			logger.Fatal("auto-migration failed", "error", err)
		}
		logger.Info("auto-migration completed")
	}

	log := logger.NewLogger()

	licenseRepo := repository.NewLicenseRepository(database.Get(), log)
	historyRepo := repository.NewBindingHistoryRepository(database.Get(), log)

	engine := usecases.NewEngine(licenseRepo, historyRepo, usecases.Config{
		KeyFormat: licensekey.Format{
			Prefix:        cfg.License.KeyPrefix,
			Segments:      cfg.License.KeySegments,
			SegmentLength: cfg.License.KeySegmentLength,
		},
		Tiers:                   cfg.Tiers,
		QuotaRestrictedFeatures: cfg.License.QuotaRestrictedFeatures,
		OfflineGraceHours:       cfg.License.OfflineGraceHours,
		StaleDeviceDays:         cfg.Jobs.StaleDeviceDays,
	}, log)

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		logger.Fatal("failed to create scheduler", "error", err)
	}

	if err := schedulerManager.RegisterLicenseJobs(
		engine.ExpireGracePeriods,
		engine.ExpireLicenses,
		cfg.Jobs,
	); err != nil {
		logger.Fatal("failed to register license jobs", "error", err)
	}

	if err := schedulerManager.RegisterStaleDeviceJob(
		engine.ReleaseStaleDevices,
		cfg.Jobs,
	); err != nil {
		logger.Fatal("failed to register stale device job", "error", err)
	}

	schedulerManager.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	if err := schedulerManager.Stop(); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
		return err
	}

	logger.Info("warden exited gracefully")
	return nil
}
