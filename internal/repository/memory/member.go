package memory

import (
	"context"
	"fmt"

	"equiprent/internal/domain"
)

type memberRepository struct {
	state *state
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := member.Snapshot()
	if _, exists := r.state.members[snap.ID]; exists {
		return fmt.Errorf("member %s already exists", snap.ID)
	}
	if _, taken := r.state.emailIndex[snap.Email]; taken {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, snap.Email)
	}
	r.state.members[snap.ID] = snap
	r.state.emailIndex[snap.Email] = snap.ID
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	snap, ok := r.state.members[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}
	return domain.ReconstituteMember(snap)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	id, ok := r.state.emailIndex[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, email)
	}
	return domain.ReconstituteMember(r.state.members[id])
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := member.Snapshot()
	previous, ok := r.state.members[snap.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMemberNotFound, snap.ID)
	}
	if snap.Email != previous.Email {
		if owner, taken := r.state.emailIndex[snap.Email]; taken && owner != snap.ID {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, snap.Email)
		}
		delete(r.state.emailIndex, previous.Email)
		r.state.emailIndex[snap.Email] = snap.ID
	}
	r.state.members[snap.ID] = snap
	return nil
}
