package service

import (
	"context"
	"fmt"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
)

type reservationService struct {
	repos     Repositories
	payments  PaymentGateway
	publisher EventPublisher
	notifier  Notifier
	lateFee   domain.Money
	now       Clock
}

// NewReservationService wires the reservation command handlers.
// dailyLateFeeRate carries into the rental a fulfillment creates.
func NewReservationService(repos Repositories, payments PaymentGateway, publisher EventPublisher, notifier Notifier, dailyLateFeeRate domain.Money, clock Clock) ReservationService {
	if clock == nil {
		clock = time.Now
	}
	return &reservationService{
		repos:     repos,
		payments:  payments,
		publisher: publisher,
		notifier:  notifier,
		lateFee:   dailyLateFeeRate,
		now:       clock,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, memberID domain.MemberID, equipmentID domain.EquipmentID, start, end time.Time) (*domain.Reservation, error) {
	now := s.now()

	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	// A reservation tolerates the item being out on a rental today,
	// but damaged equipment is not bookable for any period.
	if equipment.Condition() == domain.ConditionDamaged {
		return nil, fmt.Errorf("%w: equipment %s is damaged", domain.ErrEquipmentNotAvailable, equipmentID)
	}
	period, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if err := calendarFree(ctx, s.repos, equipmentID, period, domain.RentalID{}, domain.ReservationID{}); err != nil {
		return nil, err
	}

	reservation, created, err := domain.NewReservation(equipment, member, period, now)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, created)
	_ = s.notifier.NotifyReservationBooked(ctx, member, equipment, reservation)
	return reservation, nil
}

func (s *reservationService) GetReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error) {
	reservation, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.MemberID() != memberID {
		return nil, fmt.Errorf("%w: reservation %s", ErrForbidden, id)
	}
	return reservation, nil
}

func (s *reservationService) ListMemberReservations(ctx context.Context, memberID domain.MemberID) ([]*domain.Reservation, error) {
	return s.repos.Reservations.ListByMember(ctx, memberID)
}

func (s *reservationService) ConfirmReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error) {
	now := s.now()

	reservation, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.MemberID() != memberID {
		return nil, fmt.Errorf("%w: reservation %s", ErrForbidden, id)
	}
	if err := reservation.Confirm(now); err != nil {
		return nil, err
	}
	if err := s.repos.Reservations.Update(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Reservation, error) {
	now := s.now()

	reservation, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.MemberID() != memberID {
		return nil, fmt.Errorf("%w: reservation %s", ErrForbidden, id)
	}
	cancelled, err := reservation.Cancel(now)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Reservations.Update(ctx, reservation); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, cancelled)
	return reservation, nil
}

func (s *reservationService) FulfillReservation(ctx context.Context, memberID domain.MemberID, id domain.ReservationID) (*domain.Rental, error) {
	now := s.now()

	reservation, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.MemberID() != memberID {
		return nil, fmt.Errorf("%w: reservation %s", ErrForbidden, id)
	}
	if !reservation.IsReadyToFulfill(now) {
		return nil, fmt.Errorf("%w: reservation %s is %s and not inside its period", domain.ErrInvalidState, id, reservation.Status())
	}
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
	equipment, err := s.repos.Equipment.GetByID(ctx, reservation.EquipmentID())
	if err != nil {
		return nil, err
	}

	// The rental runs from pickup to the reserved period's end, priced
	// at today's rate and discount.
	period, err := domain.NewDateRange(now, reservation.Period().End())
	if err != nil {
		return nil, err
	}
	rental, created, err := domain.NewRental(equipment, member, period, s.lateFee, now)
	if err != nil {
		return nil, err
	}
	if err := reservation.Fulfill(rental.ID(), now); err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("reservation %s fulfilled as rental %s", id, rental.ID())
	if _, err := s.payments.Charge(ctx, memberID, rental.TotalCost(), memo); err != nil {
		return nil, fmt.Errorf("charge booking: %w", err)
	}
	if err := equipment.MarkAsRented(rental.ID()); err != nil {
		return nil, err
	}
	member.IncrementActiveRentals()

	if err := s.repos.Rentals.CreateFulfilling(ctx, rental, reservation); err != nil {
		_, _ = s.payments.Refund(ctx, memberID, rental.TotalCost(), fmt.Sprintf("reservation %s: fulfillment failed", id))
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

func (s *reservationService) RemindReadyPickups(ctx context.Context) (int, error) {
	now := s.now()

	ready, err := s.repos.Reservations.FindReadyToFulfill(ctx, now)
	if err != nil {
		return 0, err
	}
	log := logger.WithService("reservation")
	reminded := 0
	for _, reservation := range ready {
		member, err := s.repos.Members.GetByID(ctx, reservation.MemberID())
		if err != nil {
			log.WarnContext(ctx, "skipping pickup reminder", "reservation_id", reservation.ID().String(), "error", err)
			continue
		}
		equipment, err := s.repos.Equipment.GetByID(ctx, reservation.EquipmentID())
		if err != nil {
			log.WarnContext(ctx, "skipping pickup reminder", "reservation_id", reservation.ID().String(), "error", err)
			continue
		}
		if err := s.notifier.NotifyReservationReady(ctx, member, equipment, reservation); err != nil {
			continue
		}
		reminded++
	}
	return reminded, nil
}

func (s *reservationService) ExpireReservations(ctx context.Context) (int, error) {
	now := s.now()

	lapsed, err := s.repos.Reservations.FindExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	log := logger.WithService("reservation")
	expired := 0
	for _, reservation := range lapsed {
		if err := reservation.MarkAsExpired(now); err != nil {
			// Raced with a pickup or a cancellation.
			log.WarnContext(ctx, "skipping expiry", "reservation_id", reservation.ID().String(), "error", err)
			continue
		}
		if err := s.repos.Reservations.Update(ctx, reservation); err != nil {
			return expired, err
		}
		if member, err := s.repos.Members.GetByID(ctx, reservation.MemberID()); err == nil {
			_ = s.notifier.NotifyReservationExpired(ctx, member, reservation)
		}
		expired++
	}
	return expired, nil
}
