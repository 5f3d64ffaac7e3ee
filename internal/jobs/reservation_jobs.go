package jobs

import (
	"context"

	"equiprent/internal/logger"
)

// ExpireReservations retires confirmed reservations whose period ended
// without a pickup.
func (jr *JobRunner) ExpireReservations() {
	jr.runWithRecovery("ExpireReservations", func() {
		ctx := context.Background()

		count, err := jr.reservations.ExpireReservations(ctx)
		if err != nil {
			logger.Error("Failed to expire reservations", "error", err, "expired", count)
			return
		}
		logger.Info("Expired lapsed reservations", "count", count)
	})
}

// SendPickupReminders nudges members whose confirmed reservations are
// inside their pickup window. A reservation stays in the list until it
// is fulfilled or expires, so long windows get one nudge per run.
func (jr *JobRunner) SendPickupReminders() {
	jr.runWithRecovery("SendPickupReminders", func() {
		ctx := context.Background()

		count, err := jr.reservations.RemindReadyPickups(ctx)
		if err != nil {
			logger.Error("Failed to send pickup reminders", "error", err, "sent", count)
			return
		}
		logger.Info("Sent pickup reminders", "count", count)
	})
}
