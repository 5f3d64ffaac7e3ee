package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed identifiers keep references to different entities from being
// mixed up at compile time. Each wraps a UUID; the zero value is not a
// valid id.

type EquipmentID struct{ id uuid.UUID }

type MemberID struct{ id uuid.UUID }

type RentalID struct{ id uuid.UUID }

type ReservationID struct{ id uuid.UUID }

func NewEquipmentID() EquipmentID     { return EquipmentID{id: uuid.New()} }
func NewMemberID() MemberID           { return MemberID{id: uuid.New()} }
func NewRentalID() RentalID           { return RentalID{id: uuid.New()} }
func NewReservationID() ReservationID { return ReservationID{id: uuid.New()} }

// ParseEquipmentID validates and wraps a UUID string.
func ParseEquipmentID(s string) (EquipmentID, error) {
	id, err := parseID(s)
	if err != nil {
		return EquipmentID{}, fmt.Errorf("equipment id: %w", err)
	}
	return EquipmentID{id: id}, nil
}

func ParseMemberID(s string) (MemberID, error) {
	id, err := parseID(s)
	if err != nil {
		return MemberID{}, fmt.Errorf("member id: %w", err)
	}
	return MemberID{id: id}, nil
}

func ParseRentalID(s string) (RentalID, error) {
	id, err := parseID(s)
	if err != nil {
		return RentalID{}, fmt.Errorf("rental id: %w", err)
	}
	return RentalID{id: id}, nil
}

func ParseReservationID(s string) (ReservationID, error) {
	id, err := parseID(s)
	if err != nil {
		return ReservationID{}, fmt.Errorf("reservation id: %w", err)
	}
	return ReservationID{id: id}, nil
}

func (e EquipmentID) String() string   { return e.id.String() }
func (m MemberID) String() string      { return m.id.String() }
func (r RentalID) String() string      { return r.id.String() }
func (r ReservationID) String() string { return r.id.String() }

func (e EquipmentID) IsZero() bool   { return e.id == uuid.Nil }
func (m MemberID) IsZero() bool      { return m.id == uuid.Nil }
func (r RentalID) IsZero() bool      { return r.id == uuid.Nil }
func (r ReservationID) IsZero() bool { return r.id == uuid.Nil }

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", ErrInvalidID)
	}
	return id, nil
}
