package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/domain"
	"equiprent/internal/repository/memory"
	"equiprent/internal/security"
	"equiprent/internal/service"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type recordedPayment struct {
	kind     string
	memberID string
	cents    int64
	memo     string
}

type fakePayments struct {
	history  []recordedPayment
	declined bool
}

func (p *fakePayments) Charge(_ context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error) {
	if p.declined {
		return "", errors.New("card declined")
	}
	p.history = append(p.history, recordedPayment{kind: "charge", memberID: memberID.String(), cents: amount.Cents(), memo: memo})
	return uuid.NewString(), nil
}

func (p *fakePayments) Refund(_ context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error) {
	p.history = append(p.history, recordedPayment{kind: "refund", memberID: memberID.String(), cents: amount.Cents(), memo: memo})
	return uuid.NewString(), nil
}

func (p *fakePayments) settled(kind string) []recordedPayment {
	var out []recordedPayment
	for _, pay := range p.history {
		if pay.kind == kind {
			out = append(out, pay)
		}
	}
	return out
}

type fakePublisher struct {
	events []domain.Event
}

func (p *fakePublisher) Publish(_ context.Context, event domain.Event) {
	p.events = append(p.events, event)
}

func (p *fakePublisher) names() []string {
	out := make([]string, len(p.events))
	for i, event := range p.events {
		out[i] = event.EventName()
	}
	return out
}

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) NotifyRentalBooked(_ context.Context, member *domain.Member, _ *domain.Equipment, _ *domain.Rental) error {
	n.notices = append(n.notices, "rental booked "+member.Email())
	return nil
}

func (n *fakeNotifier) NotifyRentalReturned(_ context.Context, member *domain.Member, _ *domain.Equipment, _ *domain.Rental) error {
	n.notices = append(n.notices, "rental returned "+member.Email())
	return nil
}

func (n *fakeNotifier) NotifyRentalOverdue(_ context.Context, member *domain.Member, _ *domain.Rental, _ int) error {
	n.notices = append(n.notices, "rental overdue "+member.Email())
	return nil
}

func (n *fakeNotifier) NotifyReservationBooked(_ context.Context, member *domain.Member, _ *domain.Equipment, _ *domain.Reservation) error {
	n.notices = append(n.notices, "reservation booked "+member.Email())
	return nil
}

func (n *fakeNotifier) NotifyReservationReady(_ context.Context, member *domain.Member, _ *domain.Equipment, _ *domain.Reservation) error {
	n.notices = append(n.notices, "reservation ready "+member.Email())
	return nil
}

func (n *fakeNotifier) NotifyReservationExpired(_ context.Context, member *domain.Member, _ *domain.Reservation) error {
	n.notices = append(n.notices, "reservation expired "+member.Email())
	return nil
}

type fixture struct {
	store     *memory.Store
	clock     *fakeClock
	payments  *fakePayments
	publisher *fakePublisher
	notifier  *fakeNotifier

	equipment    service.EquipmentService
	members      service.MemberService
	rentals      service.RentalService
	reservations service.ReservationService
	auth         service.AuthService
}

// A $10 daily late fee, matching the default configuration.
const testLateFeeCents = 1000

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := service.Repositories{
		Equipment:    store.EquipmentRepository,
		Members:      store.MemberRepository,
		Rentals:      store.RentalRepository,
		Reservations: store.ReservationRepository,
	}
	clock := &fakeClock{now: testNow}
	payments := &fakePayments{}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}
	lateFee := domain.MustCents(testLateFeeCents)
	tokens := security.NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	return &fixture{
		store:        store,
		clock:        clock,
		payments:     payments,
		publisher:    publisher,
		notifier:     notifier,
		equipment:    service.NewEquipmentService(repos, clock.Now),
		members:      service.NewMemberService(repos, clock.Now),
		rentals:      service.NewRentalService(repos, payments, publisher, notifier, lateFee, clock.Now),
		reservations: service.NewReservationService(repos, payments, publisher, notifier, lateFee, clock.Now),
		auth:         service.NewAuthService(store.MemberRepository, tokens),
	}
}

// seedEquipment lists an excavator at $50 a day in GOOD condition.
func (f *fixture) seedEquipment(t *testing.T, name string) *domain.Equipment {
	t.Helper()
	equipment, err := f.equipment.AddEquipment(context.Background(), name, "", "HEAVY", 5000, "GOOD")
	require.NoError(t, err)
	return equipment
}

func (f *fixture) seedMember(t *testing.T, email, tier string) *domain.Member {
	t.Helper()
	member, err := f.members.RegisterMember(context.Background(), "Test Member", email, "correct-horse-battery", tier)
	require.NoError(t, err)
	return member
}

func TestEquipmentService_AddEquipment(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		equipment, err := f.equipment.AddEquipment(ctx, "Tile Saw", "10in wet saw", "POWER_TOOL", 2500, "EXCELLENT")
		require.NoError(t, err)

		got, err := f.equipment.GetEquipment(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Equal(t, "Tile Saw", got.Name())
		assert.Equal(t, "10in wet saw", got.Description())
		assert.Equal(t, int64(2500), got.DailyRate().Cents())
		assert.True(t, got.IsRentable())
	})

	t.Run("Negative Rate Rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.equipment.AddEquipment(ctx, "Tile Saw", "", "POWER_TOOL", -1, "GOOD")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("Unknown Condition Rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.equipment.AddEquipment(ctx, "Tile Saw", "", "POWER_TOOL", 2500, "RUSTY")
		assert.ErrorIs(t, err, domain.ErrInvalidCondition)
	})
}

func TestEquipmentService_ListRentable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	available := f.seedEquipment(t, "Excavator")
	rented := f.seedEquipment(t, "Drill")
	damaged := f.seedEquipment(t, "Sander")

	member := f.seedMember(t, "dana@example.com", "GOLD")
	_, err := f.rentals.CreateRental(ctx, member.ID(), rented.ID(), testNow, testNow.Add(4*day))
	require.NoError(t, err)
	_, err = f.equipment.UpdateCondition(ctx, damaged.ID(), "DAMAGED")
	require.NoError(t, err)

	got, err := f.equipment.ListRentable(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, available.ID(), got[0].ID())
}

func TestEquipmentService_UpdateDailyRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	equipment := f.seedEquipment(t, "Excavator")

	got, err := f.equipment.UpdateDailyRate(ctx, equipment.ID(), 7500)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), got.DailyRate().Cents())

	_, err = f.equipment.UpdateDailyRate(ctx, equipment.ID(), -100)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestMemberService_RegisterMember(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		member, err := f.members.RegisterMember(ctx, "Dana", "  Dana@Example.COM ", "correct-horse-battery", "SILVER")
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", member.Email(), "email is stored normalized")
		assert.Equal(t, domain.TierSilver, member.Tier())
		assert.NotEqual(t, "correct-horse-battery", member.PasswordHash(), "password is stored hashed")
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "BASIC")
		_, err := f.members.RegisterMember(ctx, "Other Dana", "dana@example.com", "correct-horse-battery", "BASIC")
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("Short Password", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.members.RegisterMember(ctx, "Dana", "dana@example.com", "short", "BASIC")
		assert.ErrorIs(t, err, service.ErrWeakPassword)
	})

	t.Run("Unknown Tier", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.members.RegisterMember(ctx, "Dana", "dana@example.com", "correct-horse-battery", "DIAMOND")
		assert.ErrorIs(t, err, domain.ErrInvalidTier)
	})
}

func TestMemberService_UpgradeTier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := f.seedMember(t, "dana@example.com", "BASIC")

	got, err := f.members.UpgradeTier(ctx, member.ID(), "GOLD")
	require.NoError(t, err)
	assert.Equal(t, domain.TierGold, got.Tier())

	_, err = f.members.UpgradeTier(ctx, member.ID(), "SILVER")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "downgrades are rejected")
}

func TestMemberService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Name Only", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")

		got, err := f.members.UpdateProfile(ctx, member.ID(), "Dana Q. Renter", "")
		require.NoError(t, err)
		assert.Equal(t, "Dana Q. Renter", got.Name())
		assert.Equal(t, "dana@example.com", got.Email(), "blank email leaves the address alone")

		_, err = f.members.UpdateProfile(ctx, member.ID(), "   ", "")
		assert.ErrorIs(t, err, domain.ErrEmptyName)
	})

	t.Run("Email Change", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")

		got, err := f.members.UpdateProfile(ctx, member.ID(), "", " Dana.New@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "dana.new@example.com", got.Email())
		assert.Equal(t, "Test Member", got.Name(), "blank name leaves the name alone")

		refetched, err := f.members.GetMember(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, "dana.new@example.com", refetched.Email())
	})

	t.Run("Email Taken", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")
		f.seedMember(t, "taken@example.com", "BASIC")

		_, err := f.members.UpdateProfile(ctx, member.ID(), "", "taken@example.com")
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestMemberService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")

		err := f.members.ChangePassword(ctx, member.ID(), "correct-horse-battery", "staple-gun-sunrise")
		require.NoError(t, err)

		_, _, err = f.auth.Login(ctx, "dana@example.com", "staple-gun-sunrise")
		assert.NoError(t, err)
		_, _, err = f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials, "old password no longer works")
	})

	t.Run("Wrong Current Password", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")

		err := f.members.ChangePassword(ctx, member.ID(), "incorrect-horse-battery", "staple-gun-sunrise")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Weak Replacement", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "BASIC")

		err := f.members.ChangePassword(ctx, member.ID(), "correct-horse-battery", "short")
		assert.ErrorIs(t, err, service.ErrWeakPassword)
	})
}

func TestMemberService_DeactivateMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := f.seedMember(t, "dana@example.com", "GOLD")
	equipment := f.seedEquipment(t, "Excavator")

	_, err := f.members.DeactivateMember(ctx, member.ID())
	require.NoError(t, err)

	_, err = f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
	assert.ErrorIs(t, err, domain.ErrMemberInactive)

	_, err = f.members.ReactivateMember(ctx, member.ID())
	require.NoError(t, err)
	_, err = f.rentals.CreateRental(ctx, member.ID(), equipment.ID(), testNow, testNow.Add(2*day))
	assert.NoError(t, err)
}
