package domain

import "errors"

// Sentinel errors for every failure kind a domain operation can signal.
// Callers classify with errors.Is; operations wrap these with %w to add
// entity ids and state detail. An operation that returns an error has had
// no effect on the entity.
var (
	// Lookup failures, returned by repositories.
	ErrEquipmentNotFound   = errors.New("equipment not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrRentalNotFound      = errors.New("rental not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrEquipmentNotAvailable rejects booking equipment that is already
	// rented out or in a non-rentable condition.
	ErrEquipmentNotAvailable = errors.New("equipment is not available")

	// ErrInvalidState rejects an operation the current status forbids,
	// such as returning an already-returned rental or confirming an
	// expired reservation.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrLimitExceeded rejects bookings past the member tier's concurrent
	// rental cap or maximum rental period.
	ErrLimitExceeded = errors.New("membership limit exceeded")

	// ErrMemberInactive rejects bookings by deactivated members.
	ErrMemberInactive = errors.New("member is inactive")

	// ErrHasOverdueRentals blocks new bookings while the member holds
	// overdue rentals.
	ErrHasOverdueRentals = errors.New("member has overdue rentals")

	// ErrConflict rejects a period that overlaps an existing live booking
	// on the same equipment.
	ErrConflict = errors.New("booking period conflicts with an existing booking")

	// ErrAlreadyCancelled is the idempotency guard on cancellation.
	ErrAlreadyCancelled = errors.New("already cancelled")

	// ErrDuplicateEmail is the member repository's uniqueness contract.
	ErrDuplicateEmail = errors.New("email is already registered")
)

// Construction guards.
var (
	ErrInvalidAmount    = errors.New("money amount must not be negative")
	ErrInvalidPeriod    = errors.New("period start must be before period end")
	ErrPeriodInPast     = errors.New("period must not start in the past")
	ErrInvalidCondition = errors.New("unknown equipment condition")
	ErrInvalidTier      = errors.New("unknown membership tier")
	ErrInvalidID        = errors.New("invalid identifier")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyCategory    = errors.New("category is required")
	ErrEmptyEmail       = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidSnapshot  = errors.New("snapshot violates entity invariants")
)
