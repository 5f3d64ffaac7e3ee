package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equiprent/internal/domain"
)

const minPasswordLength = 8

type memberService struct {
	repos Repositories
	now   Clock
}

func NewMemberService(repos Repositories, clock Clock) MemberService {
	if clock == nil {
		clock = time.Now
	}
	return &memberService{repos: repos, now: clock}
}

func (s *memberService) RegisterMember(ctx context.Context, name, email, password, tier string) (*domain.Member, error) {
	parsedTier, err := domain.ParseTier(tier)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	member, err := domain.NewMember(name, email, string(hash), parsedTier, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repos.Members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) GetMember(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	return s.repos.Members.GetByID(ctx, id)
}

func (s *memberService) UpdateProfile(ctx context.Context, id domain.MemberID, name, email string) (*domain.Member, error) {
	member, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		if err := member.UpdateName(name); err != nil {
			return nil, err
		}
	}
	if email != "" {
		if err := member.UpdateEmail(email); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) ChangePassword(ctx context.Context, id domain.MemberID, current, next string) error {
	member, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash()), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := member.UpdatePassword(string(hash)); err != nil {
		return err
	}
	return s.repos.Members.Update(ctx, member)
}

func (s *memberService) UpgradeTier(ctx context.Context, id domain.MemberID, tier string) (*domain.Member, error) {
	target, err := domain.ParseTier(tier)
	if err != nil {
		return nil, err
	}
	member, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := member.UpgradeTier(target); err != nil {
		return nil, err
	}
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) DeactivateMember(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	member, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	member.Deactivate()
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) ReactivateMember(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	member, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	member.Reactivate()
	if err := s.repos.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
