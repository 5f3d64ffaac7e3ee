package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"equiprent/internal/domain"
)

type reservationRepository struct {
	state *state
}

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := reservation.Snapshot()
	if _, exists := r.state.reservations[snap.ID]; exists {
		return fmt.Errorf("reservation %s already exists", snap.ID)
	}
	if reservation.IsLive() && r.state.livePeriodTaken(snap.EquipmentID, reservation.Period(), "", snap.ID) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, snap.EquipmentID, reservation.Period())
	}
	r.state.reservations[snap.ID] = snap
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id domain.ReservationID) (*domain.Reservation, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	snap, ok := r.state.reservations[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	return domain.ReconstituteReservation(snap)
}

func (r *reservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := reservation.Snapshot()
	if _, ok := r.state.reservations[snap.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, snap.ID)
	}
	if reservation.IsLive() && r.state.livePeriodTaken(snap.EquipmentID, reservation.Period(), "", snap.ID) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, snap.EquipmentID, reservation.Period())
	}
	r.state.reservations[snap.ID] = snap
	return nil
}

func (r *reservationRepository) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Reservation, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Reservation
	for _, snap := range r.state.reservations {
		if snap.MemberID != memberID.String() {
			continue
		}
		reservation, err := domain.ReconstituteReservation(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	sortReservations(out)
	return out, nil
}

func (r *reservationRepository) FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.ReservationID) ([]*domain.Reservation, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Reservation
	for _, snap := range r.state.reservations {
		if snap.EquipmentID != equipmentID.String() || snap.ID == exclude.String() {
			continue
		}
		reservation, err := domain.ReconstituteReservation(snap)
		if err != nil {
			return nil, err
		}
		if reservation.OverlapsPeriod(period) {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out, nil
}

func (r *reservationRepository) FindReadyToFulfill(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Reservation
	for _, snap := range r.state.reservations {
		reservation, err := domain.ReconstituteReservation(snap)
		if err != nil {
			return nil, err
		}
		if reservation.IsReadyToFulfill(now) {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out, nil
}

func (r *reservationRepository) FindExpired(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Reservation
	for _, snap := range r.state.reservations {
		reservation, err := domain.ReconstituteReservation(snap)
		if err != nil {
			return nil, err
		}
		if reservation.IsExpirable(now) {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out, nil
}

func sortReservations(reservations []*domain.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].CreatedAt().Equal(reservations[j].CreatedAt()) {
			return reservations[i].CreatedAt().Before(reservations[j].CreatedAt())
		}
		return reservations[i].ID().String() < reservations[j].ID().String()
	})
}
