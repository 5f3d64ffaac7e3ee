package service

import (
	"context"
	"fmt"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
)

type rentalService struct {
	repos     Repositories
	payments  PaymentGateway
	publisher EventPublisher
	notifier  Notifier
	lateFee   domain.Money
	now       Clock
}

// NewRentalService wires the rental command handlers. dailyLateFeeRate
// is the operator-configured per-day late fee frozen into each rental
// at booking time.
func NewRentalService(repos Repositories, payments PaymentGateway, publisher EventPublisher, notifier Notifier, dailyLateFeeRate domain.Money, clock Clock) RentalService {
	if clock == nil {
		clock = time.Now
	}
	return &rentalService{
		repos:     repos,
		payments:  payments,
		publisher: publisher,
		notifier:  notifier,
		lateFee:   dailyLateFeeRate,
		now:       clock,
	}
}

// calendarFree is the friendly booking-time conflict check over both
// books. The repositories re-verify atomically with every calendar
// write; this exists to answer the caller before any money moves.
func calendarFree(ctx context.Context, repos Repositories, equipmentID domain.EquipmentID, period domain.DateRange, excludeRental domain.RentalID, excludeReservation domain.ReservationID) error {
	rentals, err := repos.Rentals.FindConflicting(ctx, equipmentID, period, excludeRental)
	if err != nil {
		return err
	}
	if len(rentals) > 0 {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, equipmentID, period)
	}
	reservations, err := repos.Reservations.FindConflicting(ctx, equipmentID, period, excludeReservation)
	if err != nil {
		return err
	}
	if len(reservations) > 0 {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, equipmentID, period)
	}
	return nil
}

func (s *rentalService) CreateRental(ctx context.Context, memberID domain.MemberID, equipmentID domain.EquipmentID, start, end time.Time) (*domain.Rental, error) {
	now := s.now()

	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.repos.Rentals.FindOverdueByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(overdue) > 0 {
		return nil, fmt.Errorf("%w: member %s holds %d", domain.ErrHasOverdueRentals, memberID, len(overdue))
	}
	equipment, err := s.repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	period, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if err := calendarFree(ctx, s.repos, equipmentID, period, domain.RentalID{}, domain.ReservationID{}); err != nil {
		return nil, err
	}

	rental, created, err := domain.NewRental(equipment, member, period, s.lateFee, now)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("rental %s: %s for %d days", rental.ID(), equipment.Name(), period.Days())
	if _, err := s.payments.Charge(ctx, memberID, rental.TotalCost(), memo); err != nil {
		return nil, fmt.Errorf("charge booking: %w", err)
	}
	if err := equipment.MarkAsRented(rental.ID()); err != nil {
		return nil, err
	}
	member.IncrementActiveRentals()

	if err := s.repos.Rentals.Create(ctx, rental); err != nil {
		// A racing booking can still trip the repository backstop
		// after the charge went through.
		_, _ = s.payments.Refund(ctx, memberID, rental.TotalCost(), fmt.Sprintf("rental %s: booking failed", rental.ID()))
		return nil, err
	}
	if err := s.repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, err
	}
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, created)
	_ = s.notifier.NotifyRentalBooked(ctx, member, equipment, rental)
	return rental, nil
}

func (s *rentalService) GetRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID) (*domain.Rental, error) {
	rental, err := s.repos.Rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.MemberID() != memberID {
		return nil, fmt.Errorf("%w: rental %s", ErrForbidden, id)
	}
	return rental, nil
}

func (s *rentalService) ListMemberRentals(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error) {
	return s.repos.Rentals.ListByMember(ctx, memberID)
}

func (s *rentalService) ReturnRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID, condition string) (*domain.Rental, error) {
	now := s.now()

	rental, err := s.repos.Rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.MemberID() != memberID {
		return nil, fmt.Errorf("%w: rental %s", ErrForbidden, id)
	}
	cond, err := domain.ParseCondition(condition)
	if err != nil {
		return nil, err
	}
	returned, err := rental.Return(cond, now)
	if err != nil {
		return nil, err
	}
	fees := returned.LateFee.Add(returned.DamageFee)
	if !fees.IsZero() {
		if _, err := s.payments.Charge(ctx, memberID, fees, fmt.Sprintf("rental %s: late and damage fees", id)); err != nil {
			return nil, fmt.Errorf("charge return fees: %w", err)
		}
	}

	equipment, err := s.repos.Equipment.GetByID(ctx, rental.EquipmentID())
	if err != nil {
		return nil, err
	}
	if err := equipment.MarkAsReturned(cond); err != nil {
		return nil, err
	}
	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := member.DecrementActiveRentals(); err != nil {
		return nil, err
	}

	if err := s.repos.Rentals.Update(ctx, rental); err != nil {
		return nil, err
	}
	if err := s.repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, err
	}
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, returned)
	_ = s.notifier.NotifyRentalReturned(ctx, member, equipment, rental)
	return rental, nil
}

func (s *rentalService) ExtendRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID, days int) (*domain.Rental, error) {
	now := s.now()

	rental, err := s.repos.Rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.MemberID() != memberID {
		return nil, fmt.Errorf("%w: rental %s", ErrForbidden, id)
	}
	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	// Only the added days can collide; the original period is already
	// held by this rental.
	window, err := rental.ExtensionWindow(days)
	if err != nil {
		return nil, err
	}
	if err := calendarFree(ctx, s.repos, rental.EquipmentID(), window, rental.ID(), domain.ReservationID{}); err != nil {
		return nil, err
	}
	cost, err := rental.ExtendPeriod(days, member.Tier().MaxRentalDays(), now)
	if err != nil {
		return nil, err
	}
	if _, err := s.payments.Charge(ctx, memberID, cost, fmt.Sprintf("rental %s: %d day extension", id, days)); err != nil {
		return nil, fmt.Errorf("charge extension: %w", err)
	}
	if err := s.repos.Rentals.Update(ctx, rental); err != nil {
		_, _ = s.payments.Refund(ctx, memberID, cost, fmt.Sprintf("rental %s: extension failed", id))
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) CancelRental(ctx context.Context, memberID domain.MemberID, id domain.RentalID) (*domain.Rental, error) {
	now := s.now()

	rental, err := s.repos.Rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.MemberID() != memberID {
		return nil, fmt.Errorf("%w: rental %s", ErrForbidden, id)
	}
	refund := rental.TotalCost()
	if err := rental.Cancel(now); err != nil {
		return nil, err
	}
	equipment, err := s.repos.Equipment.GetByID(ctx, rental.EquipmentID())
	if err != nil {
		return nil, err
	}
	// The item never left the warehouse, so the grade is unchanged.
	if err := equipment.MarkAsReturned(equipment.Condition()); err != nil {
		return nil, err
	}
	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := member.DecrementActiveRentals(); err != nil {
		return nil, err
	}

	if err := s.repos.Rentals.Update(ctx, rental); err != nil {
		return nil, err
	}
	if err := s.repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, err
	}
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}

	// Fees never accrue before the period starts, so the booking
	// charge comes back whole.
	_, _ = s.payments.Refund(ctx, memberID, refund, fmt.Sprintf("rental %s cancelled", id))
	return rental, nil
}

func (s *rentalService) MarkOverdueRentals(ctx context.Context) (int, error) {
	now := s.now()

	lapsed, err := s.repos.Rentals.FindOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	log := logger.WithService("rental")
	marked := 0
	for _, rental := range lapsed {
		overdue, err := rental.MarkAsOverdue(now)
		if err != nil {
			// Raced with a return between find and mark.
			log.WarnContext(ctx, "skipping overdue mark", "rental_id", rental.ID().String(), "error", err)
			continue
		}
		if err := s.repos.Rentals.Update(ctx, rental); err != nil {
			return marked, err
		}
		s.publisher.Publish(ctx, overdue)
		if member, err := s.repos.Members.GetByID(ctx, rental.MemberID()); err == nil {
			_ = s.notifier.NotifyRentalOverdue(ctx, member, rental, overdue.DaysOverdue)
		}
		marked++
	}
	return marked, nil
}
