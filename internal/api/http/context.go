package http

import (
	"context"
	"fmt"

	"equiprent/internal/domain"
	"equiprent/internal/security"
)

type contextKey string

const claimsContextKey contextKey = "member-claims"

// ContextWithClaims stores the authenticated member's token claims on the
// request context. The auth middleware is the only writer.
func ContextWithClaims(ctx context.Context, claims *security.MemberClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims the auth middleware stored.
func ClaimsFromContext(ctx context.Context) (*security.MemberClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*security.MemberClaims)
	return claims, ok
}

// MemberIDFromContext extracts the authenticated member's id.
func MemberIDFromContext(ctx context.Context) (domain.MemberID, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return domain.MemberID{}, fmt.Errorf("%w: request is not authenticated", security.ErrInvalidToken)
	}
	memberID, err := domain.ParseMemberID(claims.MemberID)
	if err != nil {
		return domain.MemberID{}, fmt.Errorf("%w: malformed member id in token", security.ErrInvalidToken)
	}
	return memberID, nil
}
