package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testNow is the fixed booking instant all domain tests run against.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// rangeFrom builds a period starting offset days after testNow and
// running for length days.
func rangeFrom(t *testing.T, offsetDays, lengthDays int) DateRange {
	t.Helper()
	start := testNow.Add(time.Duration(offsetDays) * day)
	r, err := NewDateRange(start, start.Add(time.Duration(lengthDays)*day))
	require.NoError(t, err)
	return r
}

func cents(t *testing.T, v int64) Money {
	t.Helper()
	m, err := Cents(v)
	require.NoError(t, err)
	return m
}

func dollars(t *testing.T, v int64) Money {
	t.Helper()
	m, err := Dollars(v)
	require.NoError(t, err)
	return m
}

// newExcavator is the stock test item: $50/day, GOOD condition.
func newExcavator(t *testing.T) *Equipment {
	t.Helper()
	e, err := NewEquipment("Mini Excavator", "1.5t diesel, rubber tracks", "HEAVY", dollars(t, 50), ConditionGood, testNow)
	require.NoError(t, err)
	return e
}

func newMemberWithTier(t *testing.T, tier Tier) *Member {
	t.Helper()
	m, err := NewMember("Dana Smith", "dana@example.com", "$2a$10$hash", tier, testNow)
	require.NoError(t, err)
	return m
}

// newActiveRental books the stock excavator for a GOLD member over the
// given period with a $10/day late fee rate.
func newActiveRental(t *testing.T, period DateRange) *Rental {
	t.Helper()
	r, _, err := NewRental(newExcavator(t), newMemberWithTier(t, TierGold), period, dollars(t, 10), testNow)
	require.NoError(t, err)
	return r
}
