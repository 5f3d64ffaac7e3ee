package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"equiprent/internal/repository"

	"github.com/lib/pq"
)

// Store bundles the postgres implementations of every repository
// interface over one connection pool.
type Store struct {
	db *sql.DB
	repository.EquipmentRepository
	repository.MemberRepository
	repository.RentalRepository
	repository.ReservationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		EquipmentRepository:   NewEquipmentRepository(db),
		MemberRepository:      NewMemberRepository(db),
		RentalRepository:      NewRentalRepository(db),
		ReservationRepository: NewReservationRepository(db),
	}
}

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// lockEquipmentCalendar serializes booking writes per equipment for
// the rest of the transaction. Rentals and reservations live in
// separate tables, so the cross table calendar check needs more than
// the per table exclusion constraints can give.
func lockEquipmentCalendar(ctx context.Context, tx *sql.Tx, equipmentID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, equipmentID)
	return err
}

// calendarTakenQuery checks both booking tables for a live entry on
// the equipment overlapping the half-open period [$2, $3). $4 and $5
// exclude the rental and reservation being rewritten.
const calendarTakenQuery = `
SELECT EXISTS (
    SELECT 1 FROM rentals
    WHERE equipment_id = $1 AND status IN ('ACTIVE', 'OVERDUE')
      AND id <> $4 AND period_start < $3 AND period_end > $2
) OR EXISTS (
    SELECT 1 FROM reservations
    WHERE equipment_id = $1 AND status IN ('PENDING', 'CONFIRMED')
      AND id <> $5 AND period_start < $3 AND period_end > $2
)`

func calendarTaken(ctx context.Context, tx *sql.Tx, equipmentID string, start, end time.Time, excludeRental, excludeReservation string) (bool, error) {
	if excludeRental == "" {
		excludeRental = zeroUUID
	}
	if excludeReservation == "" {
		excludeReservation = zeroUUID
	}
	var taken bool
	err := tx.QueryRowContext(ctx, calendarTakenQuery, equipmentID, start, end, excludeRental, excludeReservation).Scan(&taken)
	return taken, err
}

const zeroUUID = "00000000-0000-0000-0000-000000000000"

// isUniqueViolation reports a postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isExclusionViolation reports a postgres EXCLUDE constraint failure,
// the schema-level backstop against double booking.
func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23P01"
}
