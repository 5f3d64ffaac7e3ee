// Package memory provides an in-process implementation of the
// repository interfaces. It backs the test suites and the local
// development mode; entities are stored as snapshots and
// reconstituted on every read, so nothing handed out aliases the
// store's state.
package memory

import (
	"sync"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// state is the shared book of record. One mutex covers all entity
// kinds so a booking write can check rentals and reservations
// atomically, the same job the advisory lock does in the postgres
// adapters.
type state struct {
	mu           sync.RWMutex
	equipment    map[string]domain.EquipmentSnapshot
	members      map[string]domain.MemberSnapshot
	emailIndex   map[string]string
	rentals      map[string]domain.RentalSnapshot
	reservations map[string]domain.ReservationSnapshot
}

// Store implements every repository interface over shared in-memory
// state.
type Store struct {
	state *state
	repository.EquipmentRepository
	repository.MemberRepository
	repository.RentalRepository
	repository.ReservationRepository
}

func NewStore() *Store {
	st := &state{
		equipment:    make(map[string]domain.EquipmentSnapshot),
		members:      make(map[string]domain.MemberSnapshot),
		emailIndex:   make(map[string]string),
		rentals:      make(map[string]domain.RentalSnapshot),
		reservations: make(map[string]domain.ReservationSnapshot),
	}
	return &Store{
		state:                 st,
		EquipmentRepository:   &equipmentRepository{state: st},
		MemberRepository:      &memberRepository{state: st},
		RentalRepository:      &rentalRepository{state: st},
		ReservationRepository: &reservationRepository{state: st},
	}
}

// livePeriodTaken reports whether any live rental or reservation on
// the equipment overlaps the period. Callers hold the state lock.
// excludeRental and excludeReservation skip the booking being
// rewritten, matched by id.
func (st *state) livePeriodTaken(equipmentID string, period domain.DateRange, excludeRental, excludeReservation string) bool {
	for id, snap := range st.rentals {
		if id == excludeRental || snap.EquipmentID != equipmentID {
			continue
		}
		rental, err := domain.ReconstituteRental(snap)
		if err != nil {
			continue
		}
		if rental.OverlapsPeriod(period) {
			return true
		}
	}
	for id, snap := range st.reservations {
		if id == excludeReservation || snap.EquipmentID != equipmentID {
			continue
		}
		reservation, err := domain.ReconstituteReservation(snap)
		if err != nil {
			continue
		}
		if reservation.OverlapsPeriod(period) {
			return true
		}
	}
	return false
}
