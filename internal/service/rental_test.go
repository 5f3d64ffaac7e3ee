package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
	"equiprent/internal/service"
)

// rejectingRentals simulates a racing booking winning the repository's
// atomic conflict check after the friendly pre-check already passed.
type rejectingRentals struct {
	repository.RentalRepository
	err error
}

func (r rejectingRentals) Create(context.Context, *domain.Rental) error { return r.err }

func TestRentalService_CreateRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")

		rental, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusActive, rental.Status())
		// 4 days at $50 with the 10% GOLD discount.
		assert.Equal(t, int64(18000), rental.TotalCost().Cents())

		charges := f.payments.settled("charge")
		require.Len(t, charges, 1)
		assert.Equal(t, int64(18000), charges[0].cents)
		assert.Contains(t, charges[0].memo, "Excavator")

		gotEquipment, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.False(t, gotEquipment.IsRentable(), "equipment is held for the whole booking")

		gotMember, err := f.members.GetMember(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, gotMember.ActiveRentals())

		assert.Contains(t, f.publisher.names(), "rental.created")
		assert.Contains(t, f.notifier.notices, "rental booked dana@example.com")
	})

	t.Run("Equipment Already Out", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		_, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		// A disjoint window later in the month still loses: the item is out.
		other := f.seedMember(t, "rami@example.com", "GOLD")
		_, err = f.rentals.CreateRental(ctx, other.ID(), equipment.ID(), testNow.Add(10*day), testNow.Add(12*day))
		assert.ErrorIs(t, err, domain.ErrEquipmentNotAvailable)
	})

	t.Run("Reservation Blocks The Window", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		holder := f.seedMember(t, "rami@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")

		_, err := f.reservations.CreateReservation(ctx, holder.ID(), equipment.ID(), testNow.Add(2*day), testNow.Add(6*day))
		require.NoError(t, err)

		_, err = f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(5*day))
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Empty(t, f.payments.settled("charge"), "conflicts are caught before any money moves")
	})

	t.Run("Overdue Rental Blocks New Bookings", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		first := f.seedEquipment(t, "Excavator")
		second := f.seedEquipment(t, "Drill")

		_, err := f.rentals.CreateRental(ctx, member.ID(), first.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)

		f.clock.now = testNow.Add(2*day + 3*time.Hour)
		marked, err := f.rentals.MarkOverdueRentals(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, marked)

		_, err = f.rentals.CreateRental(ctx, member.ID(), second.ID(), f.clock.now, f.clock.now.Add(2*day))
		assert.ErrorIs(t, err, domain.ErrHasOverdueRentals)
	})

	t.Run("Concurrent Limit", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")
		var gear []*domain.Equipment
		for _, name := range []string{"Excavator", "Drill", "Sander"} {
			gear = append(gear, f.seedEquipment(t, name))
		}

		for _, equipment := range gear[:2] {
			_, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
			require.NoError(t, err)
		}

		_, err := f.rentals.CreateRental(ctx, member.ID(), gear[2].ID(), testNow, testNow.Add(2*day))
		assert.ErrorIs(t, err, domain.ErrLimitExceeded)
		assert.Len(t, f.payments.settled("charge"), 2)
	})

	t.Run("Beyond Tier Day Limit", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")
		equipment := f.seedEquipment(t, "Excavator")

		_, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(8*day))
		assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	})

	t.Run("Declined Card Leaves Nothing Persisted", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		f.payments.declined = true

		_, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.Error(t, err)

		gotEquipment, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.True(t, gotEquipment.IsRentable())

		gotMember, err := f.members.GetMember(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, 0, gotMember.ActiveRentals())

		rentals, err := f.rentals.ListMemberRentals(ctx, member.ID())
		require.NoError(t, err)
		assert.Empty(t, rentals)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("Backstop Reject Refunds The Charge", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")

		repos := service.Repositories{
			Equipment:    f.store.EquipmentRepository,
			Members:      f.store.MemberRepository,
			Rentals:      rejectingRentals{f.store.RentalRepository, domain.ErrConflict},
			Reservations: f.store.ReservationRepository,
		}
		rentals := service.NewRentalService(repos, f.payments, f.publisher, f.notifier, domain.MustCents(testLateFeeCents), f.clock.Now)

		_, err := rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		assert.ErrorIs(t, err, domain.ErrConflict)

		charges := f.payments.settled("charge")
		refunds := f.payments.settled("refund")
		require.Len(t, charges, 1)
		require.Len(t, refunds, 1)
		assert.Equal(t, charges[0].cents, refunds[0].cents)
	})
}

func TestRentalService_ReturnRental(t *testing.T) {
	ctx := context.Background()

	t.Run("On Time In Same Condition", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		f.clock.now = testNow.Add(3 * day)
		rental, err := f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "GOOD")
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusReturned, rental.Status())
		assert.True(t, rental.LateFee().IsZero())
		assert.True(t, rental.DamageFee().IsZero())
		assert.Len(t, f.payments.settled("charge"), 1, "nothing beyond the booking charge")

		gotEquipment, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.True(t, gotEquipment.IsRentable())

		gotMember, err := f.members.GetMember(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, 0, gotMember.ActiveRentals())

		assert.Contains(t, f.publisher.names(), "rental.returned")
		assert.Contains(t, f.notifier.notices, "rental returned dana@example.com")
	})

	t.Run("Late Return Charges The Fee", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)

		// One hour past the period still bills a whole late day.
		f.clock.now = testNow.Add(2*day + time.Hour)
		rental, err := f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "GOOD")
		require.NoError(t, err)

		assert.Equal(t, int64(testLateFeeCents), rental.LateFee().Cents())
		charges := f.payments.settled("charge")
		require.Len(t, charges, 2)
		assert.Equal(t, int64(testLateFeeCents), charges[1].cents)
	})

	t.Run("Damage Fee For Dropped Condition", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)

		// GOOD to POOR is two grades down; the first grade of wear is free.
		f.clock.now = testNow.Add(day)
		rental, err := f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "POOR")
		require.NoError(t, err)

		assert.Equal(t, int64(5000), rental.DamageFee().Cents())

		gotEquipment, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.ConditionPoor, gotEquipment.Condition())
		assert.True(t, gotEquipment.IsRentable(), "poor condition still rents")
	})

	t.Run("Wrong Member", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		other := f.seedMember(t, "rami@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)

		_, err = f.rentals.ReturnRental(ctx, other.ID(), created.ID(), "GOOD")
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("Already Returned", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)

		_, err = f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "GOOD")
		require.NoError(t, err)
		_, err = f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "GOOD")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestRentalService_ExtendRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		rental, err := f.rentals.ExtendRental(ctx, member.ID(), created.ID(), 2)
		require.NoError(t, err)

		assert.Equal(t, testNow.Add(6*day), rental.Period().End())
		// 2 extra days at $50 with the GOLD discount.
		assert.Equal(t, int64(9000), rental.ExtensionCost().Cents())
		assert.Equal(t, int64(27000), rental.TotalCost().Cents())

		charges := f.payments.settled("charge")
		require.Len(t, charges, 2)
		assert.Equal(t, int64(9000), charges[1].cents)
	})

	t.Run("Reservation In The Way", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		holder := f.seedMember(t, "rami@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		// Reserving right after the current rental is fine on its own.
		_, err = f.reservations.CreateReservation(ctx, holder.ID(), equipment.ID(), testNow.Add(4*day), testNow.Add(6*day))
		require.NoError(t, err)

		_, err = f.rentals.ExtendRental(ctx, member.ID(), created.ID(), 2)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, f.payments.settled("charge"), 2, "both bookings charged, no extension")
	})

	t.Run("Beyond Tier Limit", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(6*day))
		require.NoError(t, err)

		_, err = f.rentals.ExtendRental(ctx, member.ID(), created.ID(), 2)
		assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	})

	t.Run("Returned Rental", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
		require.NoError(t, err)
		_, err = f.rentals.ReturnRental(ctx, member.ID(), created.ID(), "GOOD")
		require.NoError(t, err)

		_, err = f.rentals.ExtendRental(ctx, member.ID(), created.ID(), 2)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestRentalService_CancelRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Refunds The Full Charge", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow.Add(day), testNow.Add(5*day))
		require.NoError(t, err)

		rental, err := f.rentals.CancelRental(ctx, member.ID(), created.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCancelled, rental.Status())

		refunds := f.payments.settled("refund")
		require.Len(t, refunds, 1)
		assert.Equal(t, int64(18000), refunds[0].cents)

		gotEquipment, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.True(t, gotEquipment.IsRentable())

		gotMember, err := f.members.GetMember(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, 0, gotMember.ActiveRentals())
	})

	t.Run("After The Period Starts", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(4*day))
		require.NoError(t, err)

		f.clock.now = testNow.Add(day)
		_, err = f.rentals.CancelRental(ctx, member.ID(), created.ID())
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Empty(t, f.payments.settled("refund"))
	})

	t.Run("Cancel Twice", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		equipment := f.seedEquipment(t, "Excavator")
		created, err := f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow.Add(day), testNow.Add(3*day))
		require.NoError(t, err)

		_, err = f.rentals.CancelRental(ctx, member.ID(), created.ID())
		require.NoError(t, err)
		_, err = f.rentals.CancelRental(ctx, member.ID(), created.ID())
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	})
}

func TestRentalService_MarkOverdueRentals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	late := f.seedMember(t, "dana@example.com", "GOLD")
	punctual := f.seedMember(t, "rami@example.com", "GOLD")
	first := f.seedEquipment(t, "Excavator")
	second := f.seedEquipment(t, "Drill")

	lateRental, err := f.rentals.CreateRental(ctx, late.ID(), first.ID(), testNow, testNow.Add(2*day))
	require.NoError(t, err)
	_, err = f.rentals.CreateRental(ctx, punctual.ID(), second.ID(), testNow, testNow.Add(4*day))
	require.NoError(t, err)

	f.clock.now = testNow.Add(2*day + 3*time.Hour)
	marked, err := f.rentals.MarkOverdueRentals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := f.rentals.GetRental(ctx, late.ID(), lateRental.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusOverdue, got.Status())
	assert.Contains(t, f.publisher.names(), "rental.overdue")
	assert.Contains(t, f.notifier.notices, "rental overdue dana@example.com")

	// A second sweep finds nothing new.
	marked, err = f.rentals.MarkOverdueRentals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}
