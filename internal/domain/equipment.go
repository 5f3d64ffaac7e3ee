package domain

import (
	"fmt"
	"strings"
	"time"
)

// Equipment is a rentable item in the inventory. Availability tracks
// physical possession: false exactly while the item is out on an active
// rental, and currentRentalID names that rental. Condition gates
// rentability separately, so a damaged item can sit in the warehouse
// without being bookable.
type Equipment struct {
	id              EquipmentID
	name            string
	description     string
	category        string
	dailyRate       Money
	condition       Condition
	available       bool
	currentRentalID *RentalID
	createdAt       time.Time
}

// NewEquipment registers a new inventory item. The item starts
// available; a DAMAGED starting condition keeps it unrentable until
// repaired. Description is free text and may be empty.
func NewEquipment(name, description, category string, dailyRate Money, condition Condition, now time.Time) (*Equipment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrEmptyCategory
	}
	if dailyRate.IsZero() {
		return nil, fmt.Errorf("%w: daily rate must be positive", ErrInvalidAmount)
	}
	if !condition.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
	}
	return &Equipment{
		id:          NewEquipmentID(),
		name:        name,
		description: strings.TrimSpace(description),
		category:    category,
		dailyRate:   dailyRate,
		condition:   condition,
		available:   true,
		createdAt:   now.UTC(),
	}, nil
}

func (e *Equipment) ID() EquipmentID      { return e.id }
func (e *Equipment) Name() string         { return e.name }
func (e *Equipment) Description() string  { return e.description }
func (e *Equipment) Category() string     { return e.category }
func (e *Equipment) DailyRate() Money     { return e.dailyRate }
func (e *Equipment) Condition() Condition { return e.condition }
func (e *Equipment) IsAvailable() bool    { return e.available }
func (e *Equipment) CreatedAt() time.Time { return e.createdAt }

// CurrentRentalID reports the rental holding the item, if it is out.
func (e *Equipment) CurrentRentalID() (RentalID, bool) {
	if e.currentRentalID == nil {
		return RentalID{}, false
	}
	return *e.currentRentalID, true
}

// IsRentable reports whether the item can be handed out right now: in
// the warehouse and not damaged.
func (e *Equipment) IsRentable() bool {
	return e.available && e.condition != ConditionDamaged
}

// MarkAsRented takes the item out of the warehouse for the given
// rental. The item stays unavailable until MarkAsReturned.
func (e *Equipment) MarkAsRented(rentalID RentalID) error {
	if !e.available {
		return fmt.Errorf("%w: equipment %s is already rented out", ErrEquipmentNotAvailable, e.id)
	}
	if e.condition == ConditionDamaged {
		return fmt.Errorf("%w: equipment %s is damaged", ErrEquipmentNotAvailable, e.id)
	}
	if rentalID.IsZero() {
		return fmt.Errorf("%w: nil rental id", ErrInvalidID)
	}
	e.available = false
	e.currentRentalID = &rentalID
	return nil
}

// MarkAsReturned puts the item back in the warehouse and records the
// inspection grade. Safe to call on an item that is already in.
func (e *Equipment) MarkAsReturned(condition Condition) error {
	if !condition.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
	}
	e.available = true
	e.currentRentalID = nil
	e.condition = condition
	return nil
}

// UpdateCondition records a new grade, typically after a repair or a
// warehouse inspection. A grade change never touches in-flight rentals.
func (e *Equipment) UpdateCondition(condition Condition) error {
	if !condition.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
	}
	e.condition = condition
	return nil
}

// UpdateDailyRate reprices the item. Active rentals keep the rate they
// were booked at.
func (e *Equipment) UpdateDailyRate(rate Money) error {
	if rate.IsZero() {
		return fmt.Errorf("%w: daily rate must be positive", ErrInvalidAmount)
	}
	e.dailyRate = rate
	return nil
}

// RentalCost prices a rental of the given day count at the current
// rate, before any membership discount.
func (e *Equipment) RentalCost(days int) Money {
	return e.dailyRate.MultiplyDays(days)
}

// EquipmentSnapshot is the flat persistence form of Equipment.
type EquipmentSnapshot struct {
	ID              string
	Name            string
	Description     string
	Category        string
	DailyRateCents  int64
	Condition       string
	Available       bool
	CurrentRentalID string
	CreatedAt       time.Time
}

// Snapshot exports the entity's state for storage.
func (e *Equipment) Snapshot() EquipmentSnapshot {
	s := EquipmentSnapshot{
		ID:             e.id.String(),
		Name:           e.name,
		Description:    e.description,
		Category:       e.category,
		DailyRateCents: e.dailyRate.Cents(),
		Condition:      e.condition.String(),
		Available:      e.available,
		CreatedAt:      e.createdAt,
	}
	if e.currentRentalID != nil {
		s.CurrentRentalID = e.currentRentalID.String()
	}
	return s
}

// ReconstituteEquipment rebuilds the entity from a stored snapshot,
// re-checking every invariant so corrupted rows surface as errors
// instead of invalid entities.
func ReconstituteEquipment(s EquipmentSnapshot) (*Equipment, error) {
	id, err := ParseEquipmentID(s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("%w: equipment %s has no name", ErrInvalidSnapshot, s.ID)
	}
	if strings.TrimSpace(s.Category) == "" {
		return nil, fmt.Errorf("%w: equipment %s has no category", ErrInvalidSnapshot, s.ID)
	}
	rate, err := Cents(s.DailyRateCents)
	if err != nil || rate.IsZero() {
		return nil, fmt.Errorf("%w: equipment %s daily rate %d", ErrInvalidSnapshot, s.ID, s.DailyRateCents)
	}
	condition, err := ParseCondition(s.Condition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.Available != (s.CurrentRentalID == "") {
		return nil, fmt.Errorf("%w: equipment %s availability and current rental disagree", ErrInvalidSnapshot, s.ID)
	}
	e := &Equipment{
		id:          id,
		name:        strings.TrimSpace(s.Name),
		description: strings.TrimSpace(s.Description),
		category:    strings.TrimSpace(s.Category),
		dailyRate:   rate,
		condition:   condition,
		available:   s.Available,
		createdAt:   s.CreatedAt.UTC(),
	}
	if s.CurrentRentalID != "" {
		rentalID, err := ParseRentalID(s.CurrentRentalID)
		if err != nil {
			return nil, fmt.Errorf("%w: equipment %s: %v", ErrInvalidSnapshot, s.ID, err)
		}
		e.currentRentalID = &rentalID
	}
	return e, nil
}
