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

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, equipment_id, member_id, period_start, period_end, status,
	       daily_rate_cents, discount_percent, daily_late_fee_cents, condition_out,
	       base_cost_cents, extension_cost_cents, late_fee_cents, damage_fee_cents,
	       return_condition, returned_at, created_at`

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	s := rental.Snapshot()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if rental.IsLive() {
		if err := lockEquipmentCalendar(ctx, tx, s.EquipmentID); err != nil {
			return err
		}
		taken, err := calendarTaken(ctx, tx, s.EquipmentID, s.PeriodStart, s.PeriodEnd, s.ID, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
		}
	}

	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = tx.ExecContext(ctx, query,
		s.ID, s.EquipmentID, s.MemberID, s.PeriodStart, s.PeriodEnd, s.Status,
		s.DailyRateCents, s.DiscountPercent, s.DailyLateFeeRateCents, s.ConditionOut,
		s.BaseCostCents, s.ExtensionCostCents, s.LateFeeCents, s.DamageFeeCents,
		s.ReturnCondition, s.ReturnedAt, s.CreatedAt)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *rentalRepository) CreateFulfilling(ctx context.Context, rental *domain.Rental, reservation *domain.Reservation) error {
	s := rental.Snapshot()
	resSnap := reservation.Snapshot()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockEquipmentCalendar(ctx, tx, s.EquipmentID); err != nil {
		return err
	}
	// The retiring reservation's own claim must not count against the
	// rental taking it over.
	taken, err := calendarTaken(ctx, tx, s.EquipmentID, s.PeriodStart, s.PeriodEnd, s.ID, resSnap.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
	}

	insert := `INSERT INTO rentals (` + rentalColumns + `)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = tx.ExecContext(ctx, insert,
		s.ID, s.EquipmentID, s.MemberID, s.PeriodStart, s.PeriodEnd, s.Status,
		s.DailyRateCents, s.DiscountPercent, s.DailyLateFeeRateCents, s.ConditionOut,
		s.BaseCostCents, s.ExtensionCostCents, s.LateFeeCents, s.DamageFeeCents,
		s.ReturnCondition, s.ReturnedAt, s.CreatedAt)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
	}
	if err != nil {
		return err
	}

	retire := `UPDATE reservations SET status = $2, rental_id = $3, fulfilled_at = $4, updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, retire, resSnap.ID, resSnap.Status, nullableID(resSnap.RentalID), resSnap.FulfilledAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, resSnap.ID)
	}
	return tx.Commit()
}

func (r *rentalRepository) GetByID(ctx context.Context, id domain.RentalID) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	s, err := scanRental(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrRentalNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return domain.ReconstituteRental(s)
}

func (r *rentalRepository) Update(ctx context.Context, rental *domain.Rental) error {
	s := rental.Snapshot()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Extensions move the period while the rental is live; re-verify
	// the calendar before committing. Settled rentals free it instead.
	if rental.IsLive() {
		if err := lockEquipmentCalendar(ctx, tx, s.EquipmentID); err != nil {
			return err
		}
		taken, err := calendarTaken(ctx, tx, s.EquipmentID, s.PeriodStart, s.PeriodEnd, s.ID, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
		}
	}

	query := `UPDATE rentals SET period_start = $2, period_end = $3, status = $4,
	              extension_cost_cents = $5, late_fee_cents = $6, damage_fee_cents = $7,
	              return_condition = $8, returned_at = $9, updated_at = NOW()
	          WHERE id = $1`
	result, err := tx.ExecContext(ctx, query,
		s.ID, s.PeriodStart, s.PeriodEnd, s.Status,
		s.ExtensionCostCents, s.LateFeeCents, s.DamageFeeCents,
		s.ReturnCondition, s.ReturnedAt)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, s.EquipmentID, rental.Period())
	}
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRentalNotFound, s.ID)
	}
	return tx.Commit()
}

func (r *rentalRepository) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE member_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, memberID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

func (r *rentalRepository) FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.RentalID) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + `
	          FROM rentals
	          WHERE equipment_id = $1 AND status IN ('ACTIVE', 'OVERDUE')
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
	return collectRentals(rows)
}

func (r *rentalRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + `
	          FROM rentals
	          WHERE status = 'ACTIVE' AND period_end <= $1
	          ORDER BY created_at, id`
	logger.DatabaseCall("SELECT", "rentals past period end", "now", now)
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "now", now)
		return nil, err
	}
	defer rows.Close()
	rentals, err := collectRentals(rows)
	logger.DatabaseResult("SELECT", int64(len(rentals)), err, "now", now)
	return rentals, err
}

func (r *rentalRepository) FindOverdueByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + `
	          FROM rentals
	          WHERE member_id = $1 AND status = 'OVERDUE'
	          ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, memberID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRental(row scanner) (domain.RentalSnapshot, error) {
	var s domain.RentalSnapshot
	var returnedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.EquipmentID, &s.MemberID, &s.PeriodStart, &s.PeriodEnd, &s.Status,
		&s.DailyRateCents, &s.DiscountPercent, &s.DailyLateFeeRateCents, &s.ConditionOut,
		&s.BaseCostCents, &s.ExtensionCostCents, &s.LateFeeCents, &s.DamageFeeCents,
		&s.ReturnCondition, &returnedAt, &s.CreatedAt)
	if err != nil {
		return domain.RentalSnapshot{}, err
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		s.ReturnedAt = &t
	}
	return s, nil
}

func collectRentals(rows *sql.Rows) ([]*domain.Rental, error) {
	var out []*domain.Rental
	for rows.Next() {
		s, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rental, err := domain.ReconstituteRental(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rental)
	}
	return out, rows.Err()
}
