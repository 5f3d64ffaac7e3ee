package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRental(t *testing.T) {
	t.Run("Gold Member Five Days", func(t *testing.T) {
		equipment := newExcavator(t) // $50/day
		member := newMemberWithTier(t, TierGold)
		period := rangeFrom(t, 0, 5)

		rental, event, err := NewRental(equipment, member, period, dollars(t, 10), testNow)
		require.NoError(t, err)

		// 5 days * $50 = $250, minus the 10% GOLD discount = $225.
		assert.Equal(t, int64(22500), rental.BaseCost().Cents())
		assert.Equal(t, int64(22500), rental.TotalCost().Cents())
		assert.Equal(t, RentalStatusActive, rental.Status())
		assert.Equal(t, equipment.ID(), rental.EquipmentID())
		assert.Equal(t, member.ID(), rental.MemberID())
		assert.Equal(t, ConditionGood, rental.ConditionOut())
		assert.Equal(t, int64(5000), rental.DailyRate().Cents())
		assert.Equal(t, 10, rental.DiscountPercent())
		assert.Equal(t, int64(1000), rental.DailyLateFeeRate().Cents())

		assert.Equal(t, "rental.created", event.EventName())
		assert.Equal(t, rental.ID(), event.RentalID)
		assert.True(t, event.Period.Equal(period))
		assert.Equal(t, int64(22500), event.TotalCost.Cents())
		assert.Equal(t, testNow, event.OccurredAt())
	})

	t.Run("Basic Member Pays Full Price", func(t *testing.T) {
		rental, _, err := NewRental(newExcavator(t), newMemberWithTier(t, TierBasic),
			rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(25000), rental.BaseCost().Cents())
	})

	t.Run("Rejects Period In The Past", func(t *testing.T) {
		_, _, err := NewRental(newExcavator(t), newMemberWithTier(t, TierGold),
			rangeFrom(t, -1, 5), dollars(t, 10), testNow)
		assert.ErrorIs(t, err, ErrPeriodInPast)
	})

	t.Run("Rejects Inactive Member", func(t *testing.T) {
		member := newMemberWithTier(t, TierGold)
		member.Deactivate()
		_, _, err := NewRental(newExcavator(t), member, rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		assert.ErrorIs(t, err, ErrMemberInactive)
	})

	t.Run("Rejects Member At Concurrent Cap", func(t *testing.T) {
		member := newMemberWithTier(t, TierBasic)
		member.IncrementActiveRentals()
		member.IncrementActiveRentals()
		_, _, err := NewRental(newExcavator(t), member, rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("Rejects Period Over Tier Maximum", func(t *testing.T) {
		_, _, err := NewRental(newExcavator(t), newMemberWithTier(t, TierBasic),
			rangeFrom(t, 0, 8), dollars(t, 10), testNow)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("Rejects Unrentable Equipment", func(t *testing.T) {
		equipment := newExcavator(t)
		require.NoError(t, equipment.MarkAsRented(NewRentalID()))
		_, _, err := NewRental(equipment, newMemberWithTier(t, TierGold),
			rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		assert.ErrorIs(t, err, ErrEquipmentNotAvailable)
	})
}

func TestRentalIsOverdue(t *testing.T) {
	rental := newActiveRental(t, rangeFrom(t, 0, 5))
	end := rental.Period().End()

	assert.False(t, rental.IsOverdue(end.Add(-time.Hour)), "period still running")
	assert.True(t, rental.IsOverdue(end), "due back by the end instant")

	_, err := rental.MarkAsOverdue(end.Add(day))
	require.NoError(t, err)
	assert.True(t, rental.IsOverdue(end.Add(day)), "flagging does not clear it")

	_, err = rental.Return(ConditionGood, end.Add(2*day))
	require.NoError(t, err)
	assert.False(t, rental.IsOverdue(end.Add(2*day)))
}

func TestRentalMarkAsOverdue(t *testing.T) {
	t.Run("Charges Accrued Late Fee", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		lateBy3 := rental.Period().End().Add(3 * day)

		event, err := rental.MarkAsOverdue(lateBy3)
		require.NoError(t, err)

		assert.Equal(t, RentalStatusOverdue, rental.Status())
		// 3 late days * $10 = $30.
		assert.Equal(t, int64(3000), rental.LateFee().Cents())
		assert.Equal(t, 3, event.DaysOverdue)
		assert.Equal(t, int64(3000), event.LateFee.Cents())
		assert.Equal(t, "rental.overdue", event.EventName())
	})

	t.Run("Rejects Before Period End", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.MarkAsOverdue(rental.Period().End().Add(-time.Hour))
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, RentalStatusActive, rental.Status())
	})

	t.Run("Rejects Repeat Flagging", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		late := rental.Period().End().Add(day)
		_, err := rental.MarkAsOverdue(late)
		require.NoError(t, err)
		_, err = rental.MarkAsOverdue(late.Add(day))
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRentalReturn(t *testing.T) {
	t.Run("On Time Same Condition", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		returnedAt := rental.Period().End().Add(-time.Hour)

		event, err := rental.Return(ConditionGood, returnedAt)
		require.NoError(t, err)

		assert.Equal(t, RentalStatusReturned, rental.Status())
		assert.True(t, rental.LateFee().IsZero())
		assert.True(t, rental.DamageFee().IsZero())
		assert.Equal(t, int64(22500), rental.TotalCost().Cents())
		require.NotNil(t, rental.ReturnedAt())
		assert.True(t, rental.ReturnedAt().Equal(returnedAt))

		condition, ok := rental.ReturnedCondition()
		assert.True(t, ok)
		assert.Equal(t, ConditionGood, condition)
		assert.Equal(t, "rental.returned", event.EventName())
		assert.Equal(t, int64(22500), event.TotalCost.Cents())
	})

	t.Run("Three Days Late", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))

		event, err := rental.Return(ConditionGood, rental.Period().End().Add(3*day))
		require.NoError(t, err)

		// 3 late days * $10 = $30 on top of the $225 base.
		assert.Equal(t, int64(3000), rental.LateFee().Cents())
		assert.Equal(t, int64(25500), rental.TotalCost().Cents())
		assert.Equal(t, int64(3000), event.LateFee.Cents())
	})

	t.Run("Settles Late Fee From Actual Return Instant", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.MarkAsOverdue(rental.Period().End().Add(day))
		require.NoError(t, err)
		assert.Equal(t, int64(1000), rental.LateFee().Cents(), "one day accrued when flagged")

		_, err = rental.Return(ConditionGood, rental.Period().End().Add(3*day))
		require.NoError(t, err)
		assert.Equal(t, int64(3000), rental.LateFee().Cents(), "recomputed at return")
	})

	t.Run("Two Grade Drop Charges One Level", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5)) // out in GOOD

		event, err := rental.Return(ConditionPoor, rental.Period().End().Add(-time.Hour))
		require.NoError(t, err)

		// GOOD -> POOR is two grades; the first is free wear, one billable level at $50.
		assert.Equal(t, int64(5000), rental.DamageFee().Cents())
		assert.Equal(t, int64(27500), rental.TotalCost().Cents())
		assert.Equal(t, int64(5000), event.DamageFee.Cents())
	})

	t.Run("One Grade Drop Is Free", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(ConditionFair, rental.Period().End().Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, rental.DamageFee().IsZero())
	})

	t.Run("Improved Condition Is Free", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(ConditionExcellent, rental.Period().End().Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, rental.DamageFee().IsZero())
	})

	t.Run("Rejects Unknown Condition", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(Condition("BROKEN"), testNow.Add(day))
		assert.ErrorIs(t, err, ErrInvalidCondition)
		assert.Equal(t, RentalStatusActive, rental.Status())
	})

	t.Run("Rejects Double Return", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(ConditionGood, testNow.Add(day))
		require.NoError(t, err)
		_, err = rental.Return(ConditionGood, testNow.Add(2*day))
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRentalCalculateDamageFee(t *testing.T) {
	excellent, err := NewEquipment("Laser Level", "", "SURVEY", dollars(t, 80), ConditionExcellent, testNow)
	require.NoError(t, err)
	rental, _, err := NewRental(excellent, newMemberWithTier(t, TierGold), rangeFrom(t, 0, 3), dollars(t, 10), testNow)
	require.NoError(t, err)

	assert.True(t, rental.CalculateDamageFee(ConditionExcellent).IsZero())
	assert.True(t, rental.CalculateDamageFee(ConditionGood).IsZero(), "first level free")
	assert.Equal(t, int64(5000), rental.CalculateDamageFee(ConditionFair).Cents())
	assert.Equal(t, int64(10000), rental.CalculateDamageFee(ConditionPoor).Cents())
	assert.Equal(t, int64(15000), rental.CalculateDamageFee(ConditionDamaged).Cents())
}

func TestRentalExtendPeriod(t *testing.T) {
	t.Run("Adds Discounted Cost And Moves End", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		originalEnd := rental.Period().End()

		cost, err := rental.ExtendPeriod(2, TierGold.MaxRentalDays(), testNow.Add(day))
		require.NoError(t, err)

		// 2 days * $50 = $100, minus the 10% snapshot discount = $90.
		assert.Equal(t, int64(9000), cost.Cents())
		assert.Equal(t, int64(9000), rental.ExtensionCost().Cents())
		assert.Equal(t, int64(31500), rental.TotalCost().Cents())
		assert.True(t, rental.Period().End().Equal(originalEnd.Add(2*day)))
		assert.Equal(t, 7, rental.Period().Days())
	})

	t.Run("Prices At Snapshot Rate", func(t *testing.T) {
		equipment := newExcavator(t)
		rental, _, err := NewRental(equipment, newMemberWithTier(t, TierGold),
			rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		require.NoError(t, err)

		require.NoError(t, equipment.UpdateDailyRate(dollars(t, 500)))

		cost, err := rental.ExtendPeriod(1, TierGold.MaxRentalDays(), testNow.Add(day))
		require.NoError(t, err)
		assert.Equal(t, int64(4500), cost.Cents(), "repricing never touches open rentals")
	})

	t.Run("Rejects Past Tier Maximum", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.ExtendPeriod(10, TierGold.MaxRentalDays(), testNow.Add(day)) // 15 > 14
		assert.ErrorIs(t, err, ErrLimitExceeded)
		assert.Equal(t, 5, rental.Period().Days())
	})

	t.Run("Rejects Non Positive Days", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.ExtendPeriod(0, TierGold.MaxRentalDays(), testNow.Add(day))
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})

	t.Run("Rejects Overdue Rental", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.MarkAsOverdue(rental.Period().End().Add(day))
		require.NoError(t, err)
		_, err = rental.ExtendPeriod(2, TierGold.MaxRentalDays(), rental.Period().End().Add(day))
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("Rejects After Period End", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.ExtendPeriod(2, TierGold.MaxRentalDays(), rental.Period().End())
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRentalExtensionWindow(t *testing.T) {
	rental := newActiveRental(t, rangeFrom(t, 0, 5))

	window, err := rental.ExtensionWindow(2)
	require.NoError(t, err)
	assert.True(t, window.Start().Equal(rental.Period().End()))
	assert.Equal(t, 2, window.Days())
}

func TestRentalCancel(t *testing.T) {
	t.Run("Before Start", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 2, 5))
		require.NoError(t, rental.Cancel(testNow))
		assert.Equal(t, RentalStatusCancelled, rental.Status())
		assert.False(t, rental.IsLive())
	})

	t.Run("Rejects Once Started", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		err := rental.Cancel(testNow) // start == now counts as started
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, RentalStatusActive, rental.Status())
	})

	t.Run("Rejects Double Cancel", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 2, 5))
		require.NoError(t, rental.Cancel(testNow))
		assert.ErrorIs(t, rental.Cancel(testNow), ErrAlreadyCancelled)
	})

	t.Run("Rejects Returned Rental", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(ConditionGood, testNow.Add(day))
		require.NoError(t, err)
		assert.ErrorIs(t, rental.Cancel(testNow.Add(day)), ErrInvalidState)
	})
}

func TestRentalConflictsWith(t *testing.T) {
	equipment := newExcavator(t)
	member := newMemberWithTier(t, TierGold)
	book := func(t *testing.T, period DateRange) *Rental {
		t.Helper()
		r, _, err := NewRental(equipment, member, period, dollars(t, 10), testNow)
		require.NoError(t, err)
		return r
	}

	base := book(t, rangeFrom(t, 0, 5))

	t.Run("Overlapping Periods Conflict", func(t *testing.T) {
		other := book(t, rangeFrom(t, 3, 4))
		assert.True(t, base.ConflictsWith(other))
		assert.True(t, other.ConflictsWith(base))
	})

	t.Run("Back To Back Does Not Conflict", func(t *testing.T) {
		other := book(t, rangeFrom(t, 5, 3))
		assert.False(t, base.ConflictsWith(other))
		assert.False(t, other.ConflictsWith(base))
	})

	t.Run("Different Equipment Does Not Conflict", func(t *testing.T) {
		other, _, err := NewRental(newExcavator(t), member, rangeFrom(t, 0, 5), dollars(t, 10), testNow)
		require.NoError(t, err)
		assert.False(t, base.ConflictsWith(other))
	})

	t.Run("Settled Rental Does Not Conflict", func(t *testing.T) {
		other := book(t, rangeFrom(t, 3, 4))
		_, err := other.Return(ConditionGood, testNow.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, base.ConflictsWith(other))
	})

	t.Run("Never Conflicts With Itself", func(t *testing.T) {
		assert.False(t, base.ConflictsWith(base))
		assert.False(t, base.ConflictsWith(nil))
	})
}

func TestRentalSnapshotRoundTrip(t *testing.T) {
	t.Run("Active With Extension", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.ExtendPeriod(2, TierGold.MaxRentalDays(), testNow.Add(day))
		require.NoError(t, err)

		restored, err := ReconstituteRental(rental.Snapshot())
		require.NoError(t, err)

		assert.Equal(t, rental.ID(), restored.ID())
		assert.Equal(t, rental.EquipmentID(), restored.EquipmentID())
		assert.Equal(t, rental.MemberID(), restored.MemberID())
		assert.True(t, rental.Period().Equal(restored.Period()))
		assert.Equal(t, RentalStatusActive, restored.Status())
		assert.Equal(t, rental.BaseCost(), restored.BaseCost())
		assert.Equal(t, rental.ExtensionCost(), restored.ExtensionCost())
		assert.Equal(t, rental.DailyRate(), restored.DailyRate())
		assert.Equal(t, rental.DiscountPercent(), restored.DiscountPercent())
		assert.Equal(t, rental.DailyLateFeeRate(), restored.DailyLateFeeRate())
		assert.Equal(t, rental.ConditionOut(), restored.ConditionOut())
		assert.Nil(t, restored.ReturnedAt())
	})

	t.Run("Returned With Fees", func(t *testing.T) {
		rental := newActiveRental(t, rangeFrom(t, 0, 5))
		_, err := rental.Return(ConditionPoor, rental.Period().End().Add(3*day))
		require.NoError(t, err)

		restored, err := ReconstituteRental(rental.Snapshot())
		require.NoError(t, err)

		assert.Equal(t, RentalStatusReturned, restored.Status())
		assert.Equal(t, rental.LateFee(), restored.LateFee())
		assert.Equal(t, rental.DamageFee(), restored.DamageFee())
		assert.Equal(t, rental.TotalCost(), restored.TotalCost())
		require.NotNil(t, restored.ReturnedAt())
		assert.True(t, restored.ReturnedAt().Equal(*rental.ReturnedAt()))

		condition, ok := restored.ReturnedCondition()
		assert.True(t, ok)
		assert.Equal(t, ConditionPoor, condition)
	})
}

func TestReconstituteRentalRejectsBadSnapshots(t *testing.T) {
	valid := newActiveRental(t, rangeFrom(t, 0, 5)).Snapshot()

	tests := []struct {
		name   string
		mutate func(*RentalSnapshot)
	}{
		{"Bad ID", func(s *RentalSnapshot) { s.ID = "nope" }},
		{"Bad Equipment ID", func(s *RentalSnapshot) { s.EquipmentID = "nope" }},
		{"Inverted Period", func(s *RentalSnapshot) { s.PeriodEnd = s.PeriodStart.Add(-day) }},
		{"Unknown Status", func(s *RentalSnapshot) { s.Status = "PENDING" }},
		{"Unknown Condition Out", func(s *RentalSnapshot) { s.ConditionOut = "RUSTY" }},
		{"Discount Out Of Range", func(s *RentalSnapshot) { s.DiscountPercent = 150 }},
		{"Negative Late Fee", func(s *RentalSnapshot) { s.LateFeeCents = -1 }},
		{"Returned Without Record", func(s *RentalSnapshot) { s.Status = string(RentalStatusReturned) }},
		{"Unknown Return Condition", func(s *RentalSnapshot) { s.ReturnCondition = "BROKEN" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			_, err := ReconstituteRental(s)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}
