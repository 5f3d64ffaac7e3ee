package jobs

import (
	"equiprent/internal/config"
	"equiprent/internal/logger"
	"equiprent/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rentals      service.RentalService
	reservations service.ReservationService
	config       *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(rentals service.RentalService, reservations service.ReservationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		rentals:      rentals,
		reservations: reservations,
		config:       cfg,
	}
}

// Config exposes the loaded configuration for schedule registration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueRentals()
	jr.ExpireReservations()
}
