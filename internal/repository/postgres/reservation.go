package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
	"equiprent/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, equipment_id, member_id, period_start, period_end, status, rental_id,
	       created_at, confirmed_at, cancelled_at, fulfilled_at, expired_at`

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	s := reservation.Snapshot()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if reservation.IsLive() {
		if err := lockEquipmentCalendar(ctx, tx, s.EquipmentID); err != nil {
			return err
		}
		taken, err := calendarTaken(ctx, tx, s.EquipmentID, s.PeriodStart, s.PeriodEnd, "", s.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, reservation.Period())
		}
	}

	query := `INSERT INTO reservations (` + reservationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = tx.ExecContext(ctx, query,
		s.ID, s.EquipmentID, s.MemberID, s.PeriodStart, s.PeriodEnd, s.Status,
		nullableID(s.RentalID), s.CreatedAt, s.ConfirmedAt, s.CancelledAt, s.FulfilledAt, s.ExpiredAt)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, reservation.Period())
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *reservationRepository) GetByID(ctx context.Context, id domain.ReservationID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	s, err := scanReservation(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return domain.ReconstituteReservation(s)
}

func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	s := reservation.Snapshot()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if reservation.IsLive() {
		if err := lockEquipmentCalendar(ctx, tx, s.EquipmentID); err != nil {
			return err
		}
		taken, err := calendarTaken(ctx, tx, s.EquipmentID, s.PeriodStart, s.PeriodEnd, "", s.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, reservation.Period())
		}
	}

	query := `UPDATE reservations SET status = $2, rental_id = $3, confirmed_at = $4,
	              cancelled_at = $5, fulfilled_at = $6, expired_at = $7, updated_at = NOW()
	          WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, s.ID, s.Status, nullableID(s.RentalID),
		s.ConfirmedAt, s.CancelledAt, s.FulfilledAt, s.ExpiredAt)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, reservation.Period())
	}
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, s.ID)
	}
	return tx.Commit()
}

func (r *reservationRepository) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE member_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, memberID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *reservationRepository) FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.ReservationID) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE equipment_id = $1 AND status IN ('PENDING', 'CONFIRMED')
	            AND id <> $4 AND period_start < $3 AND period_end > $2
	          ORDER BY created_at, id`
	excludeID := zeroUUID
	if !exclude.IsZero() {
		excludeID = exclude.String()
	}
	rows, err := r.db.QueryContext(ctx, query, equipmentID.String(), period.Start(), period.End(), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *reservationRepository) FindReadyToFulfill(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE status = 'CONFIRMED' AND period_start <= $1 AND period_end > $1
	          ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *reservationRepository) FindExpired(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	// Mirrors Reservation.IsExpirable: a CONFIRMED reservation whose
	// period ended without pickup.
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE status = 'CONFIRMED' AND period_end <= $1
	          ORDER BY created_at, id`
	logger.DatabaseCall("SELECT", "reservations past their window", "now", now)
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "now", now)
		return nil, err
	}
	defer rows.Close()
	reservations, err := collectReservations(rows)
	logger.DatabaseResult("SELECT", int64(len(reservations)), err, "now", now)
	return reservations, err
}

// nullableID maps the empty string to NULL so unlinked reservations
// do not trip the rentals foreign key.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func scanReservation(row scanner) (domain.ReservationSnapshot, error) {
	var s domain.ReservationSnapshot
	var rentalID sql.NullString
	var confirmedAt, cancelledAt, fulfilledAt, expiredAt sql.NullTime
	err := row.Scan(&s.ID, &s.EquipmentID, &s.MemberID, &s.PeriodStart, &s.PeriodEnd, &s.Status,
		&rentalID, &s.CreatedAt, &confirmedAt, &cancelledAt, &fulfilledAt, &expiredAt)
	if err != nil {
		return domain.ReservationSnapshot{}, err
	}
	if rentalID.Valid {
		s.RentalID = rentalID.String
	}
	s.ConfirmedAt = timeOrNil(confirmedAt)
	s.CancelledAt = timeOrNil(cancelledAt)
	s.FulfilledAt = timeOrNil(fulfilledAt)
	s.ExpiredAt = timeOrNil(expiredAt)
	return s, nil
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func collectReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for rows.Next() {
		s, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservation, err := domain.ReconstituteReservation(s)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	return out, rows.Err()
}
