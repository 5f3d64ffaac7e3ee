package domain

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	// ReservationStatusPending: booked, awaiting the member's confirmation.
	ReservationStatusPending ReservationStatus = "PENDING"
	// ReservationStatusConfirmed: member reaffirmed pickup intent.
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	// ReservationStatusFulfilled: converted into a rental. Terminal.
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
	// ReservationStatusCancelled: released by the member. Terminal.
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	// ReservationStatusExpired: pickup opportunity lapsed. Terminal.
	ReservationStatusExpired ReservationStatus = "EXPIRED"
)

// ParseReservationStatus validates a stored status string.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(s); st {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusFulfilled,
		ReservationStatusCancelled, ReservationStatusExpired:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown reservation status %q", ErrInvalidState, s)
	}
}

// Reservation holds equipment for a member over a future period. A live
// reservation blocks the equipment's calendar exactly like a live
// rental does, without taking the item out of the warehouse.
//
// Lifecycle: PENDING -> CONFIRMED -> FULFILLED, with CANCELLED
// reachable from either live state. A CONFIRMED reservation never
// picked up expires once its period ends; a PENDING one stays live
// until confirmed or cancelled.
type Reservation struct {
	id          ReservationID
	equipmentID EquipmentID
	memberID    MemberID
	period      DateRange
	status      ReservationStatus
	rentalID    *RentalID
	createdAt   time.Time
	confirmedAt *time.Time
	cancelledAt *time.Time
	fulfilledAt *time.Time
	expiredAt   *time.Time
}

// NewReservation books equipment for a future period. Current
// availability is deliberately not checked: the item may be out on a
// rental today and still be reservable for next month. The caller owns
// the calendar conflict check.
func NewReservation(equipment *Equipment, member *Member, period DateRange, now time.Time) (*Reservation, ReservationCreated, error) {
	if period.IsZero() {
		return nil, ReservationCreated{}, ErrInvalidPeriod
	}
	if !now.Before(period.Start()) {
		return nil, ReservationCreated{}, fmt.Errorf("%w: reservations must start after booking time", ErrPeriodInPast)
	}
	if !member.IsActive() {
		return nil, ReservationCreated{}, fmt.Errorf("%w: member %s", ErrMemberInactive, member.ID())
	}
	if days := period.Days(); days > member.MaxRentalDays() {
		return nil, ReservationCreated{}, fmt.Errorf("%w: %d days exceeds %s tier maximum of %d",
			ErrLimitExceeded, days, member.Tier(), member.MaxRentalDays())
	}

	res := &Reservation{
		id:          NewReservationID(),
		equipmentID: equipment.ID(),
		memberID:    member.ID(),
		period:      period,
		status:      ReservationStatusPending,
		createdAt:   now.UTC(),
	}
	event := ReservationCreated{
		ReservationID: res.id,
		EquipmentID:   res.equipmentID,
		MemberID:      res.memberID,
		Period:        res.period,
		At:            now.UTC(),
	}
	return res, event, nil
}

func (res *Reservation) ID() ReservationID         { return res.id }
func (res *Reservation) EquipmentID() EquipmentID  { return res.equipmentID }
func (res *Reservation) MemberID() MemberID        { return res.memberID }
func (res *Reservation) Period() DateRange         { return res.period }
func (res *Reservation) Status() ReservationStatus { return res.status }
func (res *Reservation) CreatedAt() time.Time      { return res.createdAt }
func (res *Reservation) ConfirmedAt() *time.Time   { return res.confirmedAt }
func (res *Reservation) CancelledAt() *time.Time   { return res.cancelledAt }
func (res *Reservation) FulfilledAt() *time.Time   { return res.fulfilledAt }
func (res *Reservation) ExpiredAt() *time.Time     { return res.expiredAt }

// FulfilledBy reports the rental this reservation converted into, if
// any.
func (res *Reservation) FulfilledBy() (RentalID, bool) {
	if res.rentalID == nil {
		return RentalID{}, false
	}
	return *res.rentalID, true
}

// IsLive reports whether the reservation still blocks the equipment's
// calendar.
func (res *Reservation) IsLive() bool {
	return res.status == ReservationStatusPending || res.status == ReservationStatusConfirmed
}

// OverlapsPeriod reports whether the reservation is live and its
// period intersects the given one.
func (res *Reservation) OverlapsPeriod(period DateRange) bool {
	return res.IsLive() && res.period.Overlaps(period)
}

// ConflictsWith reports whether two distinct live reservations claim
// the same equipment over intersecting periods. Symmetric.
func (res *Reservation) ConflictsWith(other *Reservation) bool {
	if other == nil || res.id == other.id {
		return false
	}
	if res.equipmentID != other.equipmentID {
		return false
	}
	return res.OverlapsPeriod(other.period)
}

// Confirm records the member's pickup intent. Only a PENDING
// reservation confirms; a late confirmation mid-period is fine and
// lets a walk-in pickup still go through Fulfill.
func (res *Reservation) Confirm(now time.Time) error {
	if res.status != ReservationStatusPending {
		return fmt.Errorf("%w: reservation %s is %s", ErrInvalidState, res.id, res.status)
	}
	confirmedAt := now.UTC()
	res.confirmedAt = &confirmedAt
	res.status = ReservationStatusConfirmed
	return nil
}

// IsReadyToFulfill reports whether the reservation can convert into a
// rental right now: confirmed, and now inside the reserved period.
func (res *Reservation) IsReadyToFulfill(now time.Time) bool {
	return res.status == ReservationStatusConfirmed && res.period.ContainsInstant(now)
}

// Fulfill records the conversion into a rental. The caller creates the
// rental first and links it here.
func (res *Reservation) Fulfill(rentalID RentalID, now time.Time) error {
	if !res.IsReadyToFulfill(now) {
		return fmt.Errorf("%w: reservation %s is %s and not inside its period", ErrInvalidState, res.id, res.status)
	}
	if rentalID.IsZero() {
		return fmt.Errorf("%w: nil rental id", ErrInvalidID)
	}
	fulfilledAt := now.UTC()
	res.rentalID = &rentalID
	res.fulfilledAt = &fulfilledAt
	res.status = ReservationStatusFulfilled
	return nil
}

// Cancel releases a live reservation and frees its calendar window.
func (res *Reservation) Cancel(now time.Time) (ReservationCancelled, error) {
	if res.status == ReservationStatusCancelled {
		return ReservationCancelled{}, fmt.Errorf("%w: reservation %s", ErrAlreadyCancelled, res.id)
	}
	if !res.IsLive() {
		return ReservationCancelled{}, fmt.Errorf("%w: reservation %s is %s", ErrInvalidState, res.id, res.status)
	}
	cancelledAt := now.UTC()
	res.cancelledAt = &cancelledAt
	res.status = ReservationStatusCancelled
	return ReservationCancelled{
		ReservationID: res.id,
		EquipmentID:   res.equipmentID,
		MemberID:      res.memberID,
		Period:        res.period,
		At:            cancelledAt,
	}, nil
}

// IsExpirable reports whether the pickup opportunity has lapsed: a
// CONFIRMED reservation whose period ended without fulfillment.
func (res *Reservation) IsExpirable(now time.Time) bool {
	return res.status == ReservationStatusConfirmed && res.period.HasEnded(now)
}

// MarkAsExpired retires a reservation whose pickup opportunity lapsed.
func (res *Reservation) MarkAsExpired(now time.Time) error {
	if !res.IsExpirable(now) {
		return fmt.Errorf("%w: reservation %s is %s and not expirable", ErrInvalidState, res.id, res.status)
	}
	expiredAt := now.UTC()
	res.expiredAt = &expiredAt
	res.status = ReservationStatusExpired
	return nil
}

// ReservationSnapshot is the flat persistence form of Reservation.
type ReservationSnapshot struct {
	ID          string
	EquipmentID string
	MemberID    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      string
	RentalID    string
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	CancelledAt *time.Time
	FulfilledAt *time.Time
	ExpiredAt   *time.Time
}

// Snapshot exports the entity's state for storage.
func (res *Reservation) Snapshot() ReservationSnapshot {
	s := ReservationSnapshot{
		ID:          res.id.String(),
		EquipmentID: res.equipmentID.String(),
		MemberID:    res.memberID.String(),
		PeriodStart: res.period.Start(),
		PeriodEnd:   res.period.End(),
		Status:      string(res.status),
		CreatedAt:   res.createdAt,
		ConfirmedAt: utcOrNil(res.confirmedAt),
		CancelledAt: utcOrNil(res.cancelledAt),
		FulfilledAt: utcOrNil(res.fulfilledAt),
		ExpiredAt:   utcOrNil(res.expiredAt),
	}
	if res.rentalID != nil {
		s.RentalID = res.rentalID.String()
	}
	return s
}

// ReconstituteReservation rebuilds the entity from a stored snapshot,
// re-checking every invariant.
func ReconstituteReservation(s ReservationSnapshot) (*Reservation, error) {
	id, err := ParseReservationID(s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	equipmentID, err := ParseEquipmentID(s.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	memberID, err := ParseMemberID(s.MemberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	period, err := NewDateRange(s.PeriodStart, s.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation %s: %v", ErrInvalidSnapshot, s.ID, err)
	}
	status, err := ParseReservationStatus(s.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation %s: %v", ErrInvalidSnapshot, s.ID, err)
	}
	switch status {
	case ReservationStatusConfirmed:
		if s.ConfirmedAt == nil {
			return nil, fmt.Errorf("%w: confirmed reservation %s missing confirmation time", ErrInvalidSnapshot, s.ID)
		}
	case ReservationStatusFulfilled:
		if s.RentalID == "" || s.FulfilledAt == nil {
			return nil, fmt.Errorf("%w: fulfilled reservation %s missing rental record", ErrInvalidSnapshot, s.ID)
		}
	case ReservationStatusCancelled:
		if s.CancelledAt == nil {
			return nil, fmt.Errorf("%w: cancelled reservation %s missing cancellation time", ErrInvalidSnapshot, s.ID)
		}
	case ReservationStatusExpired:
		if s.ExpiredAt == nil {
			return nil, fmt.Errorf("%w: expired reservation %s missing expiry time", ErrInvalidSnapshot, s.ID)
		}
	}

	res := &Reservation{
		id:          id,
		equipmentID: equipmentID,
		memberID:    memberID,
		period:      period,
		status:      status,
		createdAt:   s.CreatedAt.UTC(),
		confirmedAt: utcOrNil(s.ConfirmedAt),
		cancelledAt: utcOrNil(s.CancelledAt),
		fulfilledAt: utcOrNil(s.FulfilledAt),
		expiredAt:   utcOrNil(s.ExpiredAt),
	}

	if s.RentalID != "" {
		rentalID, err := ParseRentalID(s.RentalID)
		if err != nil {
			return nil, fmt.Errorf("%w: reservation %s: %v", ErrInvalidSnapshot, s.ID, err)
		}
		res.rentalID = &rentalID
	}
	return res, nil
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
