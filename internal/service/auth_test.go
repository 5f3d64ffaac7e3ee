package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/domain"
	"equiprent/internal/security"
	"equiprent/internal/service"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "GOLD")

		access, refresh, err := f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)
	})

	t.Run("Email Is Matched Normalized", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "GOLD")

		_, _, err := f.auth.Login(ctx, "  DANA@Example.COM ", "correct-horse-battery")
		assert.NoError(t, err)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "GOLD")

		_, _, err := f.auth.Login(ctx, "dana@example.com", "incorrect-horse-battery")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.auth.Login(ctx, "nobody@example.com", "correct-horse-battery")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Deactivated Member", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		_, err := f.members.DeactivateMember(ctx, member.ID())
		require.NoError(t, err)

		_, _, err = f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		assert.ErrorIs(t, err, domain.ErrMemberInactive)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Issues A Fresh Pair", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "GOLD")
		_, refresh, err := f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		require.NoError(t, err)

		access, next, err := f.auth.RefreshToken(ctx, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, next)
	})

	t.Run("Access Token Is Not A Refresh Token", func(t *testing.T) {
		f := newFixture(t)
		f.seedMember(t, "dana@example.com", "GOLD")
		access, _, err := f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		require.NoError(t, err)

		_, _, err = f.auth.RefreshToken(ctx, access)
		assert.ErrorIs(t, err, security.ErrWrongTokenType)
	})

	t.Run("Garbage Token", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.auth.RefreshToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})

	t.Run("Deactivation Revokes Refresh", func(t *testing.T) {
		f := newFixture(t)
		member := f.seedMember(t, "dana@example.com", "GOLD")
		_, refresh, err := f.auth.Login(ctx, "dana@example.com", "correct-horse-battery")
		require.NoError(t, err)

		_, err = f.members.DeactivateMember(ctx, member.ID())
		require.NoError(t, err)

		_, _, err = f.auth.RefreshToken(ctx, refresh)
		assert.ErrorIs(t, err, domain.ErrMemberInactive)
	})
}
