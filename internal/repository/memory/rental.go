package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"equiprent/internal/domain"
)

type rentalRepository struct {
	state *state
}

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := rental.Snapshot()
	if _, exists := r.state.rentals[snap.ID]; exists {
		return fmt.Errorf("rental %s already exists", snap.ID)
	}
	if rental.IsLive() && r.state.livePeriodTaken(snap.EquipmentID, rental.Period(), snap.ID, "") {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, snap.EquipmentID, rental.Period())
	}
	r.state.rentals[snap.ID] = snap
	return nil
}

func (r *rentalRepository) CreateFulfilling(ctx context.Context, rental *domain.Rental, reservation *domain.Reservation) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := rental.Snapshot()
	resSnap := reservation.Snapshot()
	if _, exists := r.state.rentals[snap.ID]; exists {
		return fmt.Errorf("rental %s already exists", snap.ID)
	}
	if _, ok := r.state.reservations[resSnap.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, resSnap.ID)
	}
	// The retiring reservation's own claim must not count against the
	// rental taking it over.
	if rental.IsLive() && r.state.livePeriodTaken(snap.EquipmentID, rental.Period(), snap.ID, resSnap.ID) {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, snap.EquipmentID, rental.Period())
	}
	r.state.rentals[snap.ID] = snap
	r.state.reservations[resSnap.ID] = resSnap
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id domain.RentalID) (*domain.Rental, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	snap, ok := r.state.rentals[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRentalNotFound, id)
	}
	return domain.ReconstituteRental(snap)
}

func (r *rentalRepository) Update(ctx context.Context, rental *domain.Rental) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := rental.Snapshot()
	if _, ok := r.state.rentals[snap.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrRentalNotFound, snap.ID)
	}
	// Extensions move the period while the rental is live; re-verify
	// the calendar before committing. Settled rentals free it instead.
	if rental.IsLive() && r.state.livePeriodTaken(snap.EquipmentID, rental.Period(), snap.ID, "") {
		return fmt.Errorf("%w: equipment %s over %s", domain.ErrConflict, snap.EquipmentID, rental.Period())
	}
	r.state.rentals[snap.ID] = snap
	return nil
}

func (r *rentalRepository) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Rental
	for _, snap := range r.state.rentals {
		if snap.MemberID != memberID.String() {
			continue
		}
		rental, err := domain.ReconstituteRental(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, rental)
	}
	sortRentals(out)
	return out, nil
}

func (r *rentalRepository) FindConflicting(ctx context.Context, equipmentID domain.EquipmentID, period domain.DateRange, exclude domain.RentalID) ([]*domain.Rental, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Rental
	for _, snap := range r.state.rentals {
		if snap.EquipmentID != equipmentID.String() || snap.ID == exclude.String() {
			continue
		}
		rental, err := domain.ReconstituteRental(snap)
		if err != nil {
			return nil, err
		}
		if rental.OverlapsPeriod(period) {
			out = append(out, rental)
		}
	}
	sortRentals(out)
	return out, nil
}

func (r *rentalRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Rental, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Rental
	for _, snap := range r.state.rentals {
		rental, err := domain.ReconstituteRental(snap)
		if err != nil {
			return nil, err
		}
		if rental.Status() == domain.RentalStatusActive && rental.Period().HasEnded(now) {
			out = append(out, rental)
		}
	}
	sortRentals(out)
	return out, nil
}

func (r *rentalRepository) FindOverdueByMember(ctx context.Context, memberID domain.MemberID) ([]*domain.Rental, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Rental
	for _, snap := range r.state.rentals {
		if snap.MemberID != memberID.String() || snap.Status != string(domain.RentalStatusOverdue) {
			continue
		}
		rental, err := domain.ReconstituteRental(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, rental)
	}
	sortRentals(out)
	return out, nil
}

func sortRentals(rentals []*domain.Rental) {
	sort.Slice(rentals, func(i, j int) bool {
		if !rentals[i].CreatedAt().Equal(rentals[j].CreatedAt()) {
			return rentals[i].CreatedAt().Before(rentals[j].CreatedAt())
		}
		return rentals[i].ID().String() < rentals[j].ID().String()
	})
}
