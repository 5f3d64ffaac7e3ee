package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	id := NewRentalID()
	assert.False(t, id.IsZero())

	parsed, err := ParseRentalID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseIDRejectsGarbage(t *testing.T) {
	_, err := ParseEquipmentID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseMemberID("")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseReservationID("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrInvalidID, "nil uuid is not a valid id")
}

func TestNewIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := NewEquipmentID().String()
		assert.False(t, seen[s])
		seen[s] = true
	}
}
