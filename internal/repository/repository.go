package repository

import (
	"context"
	"time"

	"equiprent/internal/domain"
)

// Adapters persist entities via their snapshots and hand back
// reconstituted entities. Lookup misses surface as the domain's
// *NotFound sentinels.
//
// Booking writes carry a conflict backstop: Create and Update on
// rentals and reservations re-verify the equipment's calendar
// atomically with the write and fail with domain.ErrConflict, so two
// racing bookings can never both land. The service's own conflict
// check exists to give callers a friendly early answer, not to keep
// the data consistent.

type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) error
	GetByID(ctx context.Context, id domain.EquipmentID) (*domain.Equipment, error)
	Update(ctx context.Context, equipment *domain.Equipment) error
	List(ctx context.Context) ([]*domain.Equipment, error)
	// ListRentable returns items that can be handed out right now,
	// optionally narrowed to a category.
	ListRentable(ctx context.Context, category string) ([]*domain.Equipment, error)
}

type MemberRepository interface {
	// Create fails with domain.ErrDuplicateEmail when the address is
	// already registered.
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id domain.MemberID) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	Update(ctx context.Context, member *domain.Member) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	// CreateFulfilling writes a rental converted from a reservation and
	// retires the reservation in the same atomic step, so the calendar
	// claim passes from one to the other without a false conflict.
	CreateFulfilling(ctx context.Context, rental *domain.Rental, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id domain.RentalID) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error)
	// FindConflicting returns live rentals on the equipment whose
	// periods intersect the given one. A non-zero exclude id leaves
	// that rental out, for extension checks against itself.
	FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.RentalID) ([]*domain.Rental, error)
	// FindOverdue returns ACTIVE rentals whose period end has passed.
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Rental, error)
	// FindOverdueByMember returns the member's rentals currently
	// flagged OVERDUE.
	FindOverdueByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id domain.ReservationID) (*domain.Reservation, error)
	Update(ctx context.Context, reservation *domain.Reservation) error
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Reservation, error)
	// FindConflicting returns live reservations on the equipment whose
	// periods intersect the given one. A non-zero exclude id leaves
	// that reservation out.
	FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.ReservationID) ([]*domain.Reservation, error)
	// FindReadyToFulfill returns CONFIRMED reservations whose period
	// contains now.
	FindReadyToFulfill(ctx context.Context, now time.Time) ([]*domain.Reservation, error)
	// FindExpired returns CONFIRMED reservations whose period ended
	// without a pickup.
	FindExpired(ctx context.Context, now time.Time) ([]*domain.Reservation, error)
}
