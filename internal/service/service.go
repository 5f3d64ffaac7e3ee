package service

import (
	"context"
	"errors"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// Service-boundary sentinels. Domain rule violations surface as the
// domain's own error kinds; these cover failures only the application
// layer can see.
var (
	// ErrInvalidCredentials hides whether the email or the password
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden rejects operating on another member's booking.
	ErrForbidden = errors.New("booking belongs to another member")

	// ErrWeakPassword rejects passwords below the minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

type EquipmentService interface {
	AddEquipment(ctx context.Context, name, description, category string, dailyRateCents int64, condition string) (*domain.Equipment, error)
	GetEquipment(ctx context.Context, id domain.EquipmentID) (*domain.Equipment, error)
	ListEquipment(ctx context.Context) ([]*domain.Equipment, error)
	ListRentable(ctx context.Context, category string) ([]*domain.Equipment, error)
	UpdateDailyRate(ctx context.Context, id domain.EquipmentID, dailyRateCents int64) (*domain.Equipment, error)
	UpdateCondition(ctx context.Context, id domain.EquipmentID, condition string) (*domain.Equipment, error)
}

type MemberService interface {
	RegisterMember(ctx context.Context, name, email, password, tier string) (*domain.Member, error)
	GetMember(ctx context.Context, id domain.MemberID) (*domain.Member, error)
	// UpdateProfile changes the display name, the contact email, or
	// both. Empty fields are left as they are.
	UpdateProfile(ctx context.Context, id domain.MemberID, name, email string) (*domain.Member, error)
	// ChangePassword verifies the current password before storing a
	// hash of the new one.
	ChangePassword(ctx context.Context, id domain.MemberID, current, next string) error
	UpgradeTier(ctx context.Context, id domain.MemberID, tier string) (*domain.Member, error)
	DeactivateMember(ctx context.Context, id domain.MemberID) (*domain.Member, error)
	ReactivateMember(ctx context.Context, id domain.MemberID) (*domain.Member, error)
}

type RentalService interface {
	CreateRental(ctx context.Context, memberID domain.MemberID, equipmentID domain.EquipmentID, start, end time.Time) (*domain.Rental, error)
	GetRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID) (*domain.Rental, error)
	ListMemberRentals(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error)
	ReturnRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID, condition string) (*domain.Rental, error)
	ExtendRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID, days int) (*domain.Rental, error)
	CancelRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID) (*domain.Rental, error)
	// MarkOverdueRentals flags every active rental whose period has
	// lapsed and reports how many it flagged. Job-facing.
	MarkOverdueRentals(ctx context.Context) (int, error)
}

type ReservationService interface {
	CreateReservation(ctx context.Context, memberID domain.MemberID, equipmentID domain.EquipmentID, start, end time.Time) (*domain.Reservation, error)
	GetReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error)
	ListMemberReservations(ctx context.Context, memberID domain.MemberID) ([]*domain.Reservation, error)
	ConfirmReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error)
	// FulfillReservation converts a confirmed reservation the member
	// is picking up into a rental running from now to the reserved
	// period's end.
	FulfillReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Rental, error)
	// ExpireReservations retires every reservation whose pickup
	// opportunity has lapsed and reports how many. Job-facing.
	ExpireReservations(ctx context.Context) (int, error)
	// RemindReadyPickups notifies members whose confirmed reservations
	// are inside their pickup window and reports how many. Job-facing.
	RemindReadyPickups(ctx context.Context) (int, error)
}

type AuthService interface {
	// Login returns an access and refresh token pair.
	Login(ctx context.Context, email, password string) (string, string, error)
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
}

// Repositories bundles the persistence ports the services share.
type Repositories struct {
	Equipment    repository.EquipmentRepository
	Members      repository.MemberRepository
	Rentals      repository.RentalRepository
	Reservations repository.ReservationRepository
}

// Clock supplies the current time. Constructors default a nil Clock
// to time.Now; tests pin it.
type Clock func() time.Time

// EventPublisher receives domain events after the change that
// produced them is persisted. Publishing is best effort and never
// fails the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// Notifier tells members about changes to their bookings. Best
// effort: services ignore delivery failures, the adapters log them.
// Member-initiated confirmations and cancellations send nothing.
type Notifier interface {
	NotifyRentalBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error
	NotifyRentalReturned(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error
	NotifyRentalOverdue(ctx context.Context, member *domain.Member, rental *domain.Rental, daysOverdue int) error
	NotifyReservationBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error
	NotifyReservationReady(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error
	NotifyReservationExpired(ctx context.Context, member *domain.Member, reservation *domain.Reservation) error
}

// PaymentGateway settles money movements against the member's payment
// method on file and returns a transaction id.
type PaymentGateway interface {
	Charge(ctx context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error)
	Refund(ctx context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error)
}
