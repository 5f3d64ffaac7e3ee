package domain

import "time"

// Event is a fact recorded by a state-changing entity operation. Events
// are returned to the caller alongside the mutation result; publishing
// them is the service layer's job, after the change is persisted.
type Event interface {
	// EventName is the stable dotted identifier, e.g. "rental.created".
	EventName() string
	// OccurredAt is when the change took effect.
	OccurredAt() time.Time
}

// RentalCreated records a new active rental.
type RentalCreated struct {
	RentalID    RentalID
	EquipmentID EquipmentID
	MemberID    MemberID
	Period      DateRange
	TotalCost   Money
	At          time.Time
}

func (e RentalCreated) EventName() string     { return "rental.created" }
func (e RentalCreated) OccurredAt() time.Time { return e.At }

// RentalReturned records equipment coming back, with the final fee
// breakdown.
type RentalReturned struct {
	RentalID        RentalID
	EquipmentID     EquipmentID
	MemberID        MemberID
	ReturnCondition Condition
	LateFee         Money
	DamageFee       Money
	TotalCost       Money
	At              time.Time
}

func (e RentalReturned) EventName() string     { return "rental.returned" }
func (e RentalReturned) OccurredAt() time.Time { return e.At }

// RentalOverdue records a rental passing its period end without a
// return.
type RentalOverdue struct {
	RentalID    RentalID
	EquipmentID EquipmentID
	MemberID    MemberID
	DaysOverdue int
	LateFee     Money
	At          time.Time
}

func (e RentalOverdue) EventName() string     { return "rental.overdue" }
func (e RentalOverdue) OccurredAt() time.Time { return e.At }

// ReservationCreated records a new active reservation.
type ReservationCreated struct {
	ReservationID ReservationID
	EquipmentID   EquipmentID
	MemberID      MemberID
	Period        DateRange
	At            time.Time
}

func (e ReservationCreated) EventName() string     { return "reservation.created" }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }

// ReservationCancelled records a reservation released before
// fulfillment. The freed period becomes bookable again.
type ReservationCancelled struct {
	ReservationID ReservationID
	EquipmentID   EquipmentID
	MemberID      MemberID
	Period        DateRange
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }
