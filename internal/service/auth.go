package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
	"equiprent/internal/security"
)

type authService struct {
	members repository.MemberRepository
	tokens  security.TokenManager
}

func NewAuthService(members repository.MemberRepository, tokens security.TokenManager) AuthService {
	return &authService{members: members, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	// Stored emails are normalized at registration; match that here.
	email = strings.ToLower(strings.TrimSpace(email))
	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash()), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !member.IsActive() {
		return "", "", fmt.Errorf("%w: member %s", domain.ErrMemberInactive, member.ID())
	}
	return s.issueTokens(member)
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (string, string, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return "", "", err
	}
	if claims.Type != security.TokenTypeRefresh {
		return "", "", security.ErrWrongTokenType
	}
	id, err := domain.ParseMemberID(claims.MemberID)
	if err != nil {
		return "", "", security.ErrInvalidToken
	}
	// Reload so a deactivation since issue revokes the refresh token.
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return "", "", security.ErrInvalidToken
	}
	if !member.IsActive() {
		return "", "", fmt.Errorf("%w: member %s", domain.ErrMemberInactive, member.ID())
	}
	return s.issueTokens(member)
}

func (s *authService) issueTokens(member *domain.Member) (string, string, error) {
	access, err := s.tokens.GenerateAccessToken(member.ID().String(), member.Email(), member.Tier().String())
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.GenerateRefreshToken(member.ID().String(), member.Email())
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
