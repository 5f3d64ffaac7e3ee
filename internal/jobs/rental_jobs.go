package jobs

import (
	"context"

	"equiprent/internal/logger"
)

// MarkOverdueRentals flags active rentals past their end date as OVERDUE.
// The service publishes an event and notifies the member for each one.
func (jr *JobRunner) MarkOverdueRentals() {
	jr.runWithRecovery("MarkOverdueRentals", func() {
		ctx := context.Background()

		count, err := jr.rentals.MarkOverdueRentals(ctx)
		if err != nil {
			logger.Error("Failed to mark overdue rentals", "error", err, "marked", count)
			return
		}
		logger.Info("Marked rentals as overdue", "count", count)
	})
}
