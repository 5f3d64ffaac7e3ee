package domain

import (
	"fmt"
	"time"
)

// RentalStatus is the lifecycle state of a rental.
type RentalStatus string

const (
	// RentalStatusActive: equipment is out, period not yet flagged late.
	RentalStatusActive RentalStatus = "ACTIVE"
	// RentalStatusOverdue: period ended without a return.
	RentalStatusOverdue RentalStatus = "OVERDUE"
	// RentalStatusReturned: equipment is back, fees settled. Terminal.
	RentalStatusReturned RentalStatus = "RETURNED"
	// RentalStatusCancelled: called off before the period started. Terminal.
	RentalStatusCancelled RentalStatus = "CANCELLED"
)

// ParseRentalStatus validates a stored status string.
func ParseRentalStatus(s string) (RentalStatus, error) {
	switch st := RentalStatus(s); st {
	case RentalStatusActive, RentalStatusOverdue, RentalStatusReturned, RentalStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown rental status %q", ErrInvalidState, s)
	}
}

// damageFeePerLevelCents is charged per condition grade dropped beyond
// the first. One grade of wear is normal use and free.
const damageFeePerLevelCents = 50_00

// Rental is a member holding equipment over a period. Pricing terms are
// snapshot fields captured at booking time: the equipment's daily rate,
// the member's discount and the late-fee rate are copied onto the
// rental, so later repricing or tier changes never move an open
// rental's numbers.
//
// Lifecycle: ACTIVE -> OVERDUE (period lapses) -> RETURNED, or
// ACTIVE -> RETURNED directly, or ACTIVE -> CANCELLED before the
// period starts. RETURNED and CANCELLED are terminal.
type Rental struct {
	id          RentalID
	equipmentID EquipmentID
	memberID    MemberID
	period      DateRange
	status      RentalStatus

	dailyRate        Money
	discountPercent  int
	dailyLateFeeRate Money
	conditionOut     Condition

	baseCost      Money
	extensionCost Money
	lateFee       Money
	damageFee     Money

	returnCondition Condition
	returnedAt      *time.Time
	createdAt       time.Time
}

// NewRental books equipment for a member. The caller still owns
// marking the equipment rented and bumping the member's counter; this
// factory checks the rules it can see and prices the booking.
func NewRental(equipment *Equipment, member *Member, period DateRange, dailyLateFeeRate Money, now time.Time) (*Rental, RentalCreated, error) {
	if period.IsZero() {
		return nil, RentalCreated{}, ErrInvalidPeriod
	}
	if period.Start().Before(now) {
		return nil, RentalCreated{}, fmt.Errorf("%w: starts %s", ErrPeriodInPast, period.Start().Format(time.RFC3339))
	}
	if err := member.CanRent(); err != nil {
		return nil, RentalCreated{}, err
	}
	if days := period.Days(); days > member.MaxRentalDays() {
		return nil, RentalCreated{}, fmt.Errorf("%w: %d days exceeds %s tier maximum of %d",
			ErrLimitExceeded, days, member.Tier(), member.MaxRentalDays())
	}
	if !equipment.IsRentable() {
		return nil, RentalCreated{}, fmt.Errorf("%w: equipment %s", ErrEquipmentNotAvailable, equipment.ID())
	}

	r := &Rental{
		id:               NewRentalID(),
		equipmentID:      equipment.ID(),
		memberID:         member.ID(),
		period:           period,
		status:           RentalStatusActive,
		dailyRate:        equipment.DailyRate(),
		discountPercent:  member.Tier().DiscountPercent(),
		dailyLateFeeRate: dailyLateFeeRate,
		conditionOut:     equipment.Condition(),
		baseCost:         member.ApplyDiscount(equipment.RentalCost(period.Days())),
		createdAt:        now.UTC(),
	}
	event := RentalCreated{
		RentalID:    r.id,
		EquipmentID: r.equipmentID,
		MemberID:    r.memberID,
		Period:      r.period,
		TotalCost:   r.TotalCost(),
		At:          now.UTC(),
	}
	return r, event, nil
}

func (r *Rental) ID() RentalID             { return r.id }
func (r *Rental) EquipmentID() EquipmentID { return r.equipmentID }
func (r *Rental) MemberID() MemberID       { return r.memberID }
func (r *Rental) Period() DateRange        { return r.period }
func (r *Rental) Status() RentalStatus     { return r.status }
func (r *Rental) DailyRate() Money         { return r.dailyRate }
func (r *Rental) DiscountPercent() int     { return r.discountPercent }
func (r *Rental) DailyLateFeeRate() Money  { return r.dailyLateFeeRate }
func (r *Rental) ConditionOut() Condition  { return r.conditionOut }
func (r *Rental) BaseCost() Money          { return r.baseCost }
func (r *Rental) ExtensionCost() Money     { return r.extensionCost }
func (r *Rental) LateFee() Money           { return r.lateFee }
func (r *Rental) DamageFee() Money         { return r.damageFee }
func (r *Rental) CreatedAt() time.Time     { return r.createdAt }
func (r *Rental) ReturnedAt() *time.Time   { return r.returnedAt }

// ReturnedCondition reports the inspection grade recorded at return,
// if any.
func (r *Rental) ReturnedCondition() (Condition, bool) {
	return r.returnCondition, r.returnCondition != ""
}

// TotalCost is everything the member owes on this rental so far.
func (r *Rental) TotalCost() Money {
	return r.baseCost.Add(r.extensionCost).Add(r.lateFee).Add(r.damageFee)
}

// IsLive reports whether the rental still occupies the equipment's
// calendar. ACTIVE and OVERDUE rentals block conflicting bookings;
// RETURNED and CANCELLED do not.
func (r *Rental) IsLive() bool {
	return r.status == RentalStatusActive || r.status == RentalStatusOverdue
}

// OverlapsPeriod reports whether the rental is live and its period
// intersects the given one.
func (r *Rental) OverlapsPeriod(period DateRange) bool {
	return r.IsLive() && r.period.Overlaps(period)
}

// IsOverdue reports whether the equipment is out past the period's
// end, whether or not the sweep has flagged the rental yet.
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.IsLive() && r.period.HasEnded(now)
}

// ConflictsWith reports whether two distinct live rentals claim the
// same equipment over intersecting periods. Symmetric.
func (r *Rental) ConflictsWith(other *Rental) bool {
	if other == nil || r.id == other.id {
		return false
	}
	if r.equipmentID != other.equipmentID {
		return false
	}
	return r.OverlapsPeriod(other.period)
}

// MarkAsOverdue flags an active rental whose period has lapsed and
// charges the late fee accrued so far. Return recomputes the fee at
// the actual return instant, so the figure here keeps growing until
// the equipment comes back.
func (r *Rental) MarkAsOverdue(now time.Time) (RentalOverdue, error) {
	if r.status != RentalStatusActive {
		return RentalOverdue{}, fmt.Errorf("%w: rental %s is %s", ErrInvalidState, r.id, r.status)
	}
	if !r.period.HasEnded(now) {
		return RentalOverdue{}, fmt.Errorf("%w: rental %s period ends %s", ErrInvalidState,
			r.id, r.period.End().Format(time.RFC3339))
	}
	daysLate := r.period.DaysOverdueAt(now)
	r.lateFee = r.dailyLateFeeRate.MultiplyDays(daysLate)
	r.status = RentalStatusOverdue
	return RentalOverdue{
		RentalID:    r.id,
		EquipmentID: r.equipmentID,
		MemberID:    r.memberID,
		DaysOverdue: daysLate,
		LateFee:     r.lateFee,
		At:          now.UTC(),
	}, nil
}

// CalculateDamageFee prices the wear between handout and return
// conditions. The first grade dropped is free; each further grade
// costs a flat fee. Equal or improved condition costs nothing.
func (r *Rental) CalculateDamageFee(returnCondition Condition) Money {
	degradation := returnCondition.DegradationFrom(r.conditionOut)
	if degradation <= 1 {
		return ZeroMoney()
	}
	return MustCents(damageFeePerLevelCents).MultiplyDays(degradation - 1)
}

// Return closes the rental: the late fee is settled from the actual
// return instant and the damage fee from the inspection grade. The
// caller still owns marking the equipment available and decrementing
// the member's counter.
func (r *Rental) Return(returnCondition Condition, now time.Time) (RentalReturned, error) {
	if r.status != RentalStatusActive && r.status != RentalStatusOverdue {
		return RentalReturned{}, fmt.Errorf("%w: rental %s is %s", ErrInvalidState, r.id, r.status)
	}
	if !returnCondition.IsValid() {
		return RentalReturned{}, fmt.Errorf("%w: %q", ErrInvalidCondition, returnCondition)
	}
	r.lateFee = r.dailyLateFeeRate.MultiplyDays(r.period.DaysOverdueAt(now))
	r.damageFee = r.CalculateDamageFee(returnCondition)
	r.returnCondition = returnCondition
	returnedAt := now.UTC()
	r.returnedAt = &returnedAt
	r.status = RentalStatusReturned
	return RentalReturned{
		RentalID:        r.id,
		EquipmentID:     r.equipmentID,
		MemberID:        r.memberID,
		ReturnCondition: returnCondition,
		LateFee:         r.lateFee,
		DamageFee:       r.damageFee,
		TotalCost:       r.TotalCost(),
		At:              returnedAt,
	}, nil
}

// ExtensionWindow is the extra calendar an extension of the given
// length would claim. Conflict checks run against this window only;
// the original period is already held.
func (r *Rental) ExtensionWindow(days int) (DateRange, error) {
	return r.period.TrailingExtension(days)
}

// ExtendPeriod pushes the period end out and returns the added cost,
// priced at the snapshot rate and discount. maxDays is the member's
// current tier limit on total rental length. Only ACTIVE rentals
// extend; an overdue rental has to come back first. The caller owns
// the conflict check over the extension window.
func (r *Rental) ExtendPeriod(days, maxDays int, now time.Time) (Money, error) {
	if r.status != RentalStatusActive {
		return Money{}, fmt.Errorf("%w: rental %s is %s", ErrInvalidState, r.id, r.status)
	}
	if r.period.HasEnded(now) {
		return Money{}, fmt.Errorf("%w: rental %s period already ended", ErrInvalidState, r.id)
	}
	if days <= 0 {
		return Money{}, fmt.Errorf("%w: extension of %d days", ErrInvalidPeriod, days)
	}
	total := r.period.Days() + days
	if total > maxDays {
		return Money{}, fmt.Errorf("%w: %d total days exceeds tier maximum of %d", ErrLimitExceeded, total, maxDays)
	}
	extended, err := r.period.ExtendedBy(days)
	if err != nil {
		return Money{}, err
	}
	cost := r.dailyRate.MultiplyDays(days).DiscountPercent(r.discountPercent)
	r.period = extended
	r.extensionCost = r.extensionCost.Add(cost)
	return cost, nil
}

// Cancel calls off a rental before its period starts. Once the period
// has begun the equipment is out and only Return closes the rental.
func (r *Rental) Cancel(now time.Time) error {
	if r.status == RentalStatusCancelled {
		return fmt.Errorf("%w: rental %s", ErrAlreadyCancelled, r.id)
	}
	if r.status != RentalStatusActive {
		return fmt.Errorf("%w: rental %s is %s", ErrInvalidState, r.id, r.status)
	}
	if r.period.HasStarted(now) {
		return fmt.Errorf("%w: rental %s already started", ErrInvalidState, r.id)
	}
	r.status = RentalStatusCancelled
	return nil
}

// RentalSnapshot is the flat persistence form of Rental.
type RentalSnapshot struct {
	ID          string
	EquipmentID string
	MemberID    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      string

	DailyRateCents        int64
	DiscountPercent       int
	DailyLateFeeRateCents int64
	ConditionOut          string

	BaseCostCents      int64
	ExtensionCostCents int64
	LateFeeCents       int64
	DamageFeeCents     int64

	ReturnCondition string
	ReturnedAt      *time.Time
	CreatedAt       time.Time
}

// Snapshot exports the entity's state for storage.
func (r *Rental) Snapshot() RentalSnapshot {
	s := RentalSnapshot{
		ID:                    r.id.String(),
		EquipmentID:           r.equipmentID.String(),
		MemberID:              r.memberID.String(),
		PeriodStart:           r.period.Start(),
		PeriodEnd:             r.period.End(),
		Status:                string(r.status),
		DailyRateCents:        r.dailyRate.Cents(),
		DiscountPercent:       r.discountPercent,
		DailyLateFeeRateCents: r.dailyLateFeeRate.Cents(),
		ConditionOut:          r.conditionOut.String(),
		BaseCostCents:         r.baseCost.Cents(),
		ExtensionCostCents:    r.extensionCost.Cents(),
		LateFeeCents:          r.lateFee.Cents(),
		DamageFeeCents:        r.damageFee.Cents(),
		ReturnCondition:       r.returnCondition.String(),
		CreatedAt:             r.createdAt,
	}
	if r.returnedAt != nil {
		returnedAt := *r.returnedAt
		s.ReturnedAt = &returnedAt
	}
	return s
}

// ReconstituteRental rebuilds the entity from a stored snapshot,
// re-checking every invariant.
func ReconstituteRental(s RentalSnapshot) (*Rental, error) {
	id, err := ParseRentalID(s.ID)
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
		return nil, fmt.Errorf("%w: rental %s: %v", ErrInvalidSnapshot, s.ID, err)
	}
	status, err := ParseRentalStatus(s.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: rental %s: %v", ErrInvalidSnapshot, s.ID, err)
	}
	conditionOut, err := ParseCondition(s.ConditionOut)
	if err != nil {
		return nil, fmt.Errorf("%w: rental %s: %v", ErrInvalidSnapshot, s.ID, err)
	}
	if s.DiscountPercent < 0 || s.DiscountPercent > 100 {
		return nil, fmt.Errorf("%w: rental %s discount %d%%", ErrInvalidSnapshot, s.ID, s.DiscountPercent)
	}
	for _, amount := range []struct {
		field string
		cents int64
	}{
		{"daily rate", s.DailyRateCents},
		{"late fee rate", s.DailyLateFeeRateCents},
		{"base cost", s.BaseCostCents},
		{"extension cost", s.ExtensionCostCents},
		{"late fee", s.LateFeeCents},
		{"damage fee", s.DamageFeeCents},
	} {
		if amount.cents < 0 {
			return nil, fmt.Errorf("%w: rental %s %s %d cents", ErrInvalidSnapshot, s.ID, amount.field, amount.cents)
		}
	}

	r := &Rental{
		id:               id,
		equipmentID:      equipmentID,
		memberID:         memberID,
		period:           period,
		status:           status,
		dailyRate:        MustCents(s.DailyRateCents),
		discountPercent:  s.DiscountPercent,
		dailyLateFeeRate: MustCents(s.DailyLateFeeRateCents),
		conditionOut:     conditionOut,
		baseCost:         MustCents(s.BaseCostCents),
		extensionCost:    MustCents(s.ExtensionCostCents),
		lateFee:          MustCents(s.LateFeeCents),
		damageFee:        MustCents(s.DamageFeeCents),
		createdAt:        s.CreatedAt.UTC(),
	}

	if status == RentalStatusReturned && (s.ReturnCondition == "" || s.ReturnedAt == nil) {
		return nil, fmt.Errorf("%w: returned rental %s missing return record", ErrInvalidSnapshot, s.ID)
	}
	if s.ReturnCondition != "" {
		returnCondition, err := ParseCondition(s.ReturnCondition)
		if err != nil {
			return nil, fmt.Errorf("%w: rental %s: %v", ErrInvalidSnapshot, s.ID, err)
		}
		r.returnCondition = returnCondition
	}
	if s.ReturnedAt != nil {
		returnedAt := s.ReturnedAt.UTC()
		r.returnedAt = &returnedAt
	}
	return r, nil
}
