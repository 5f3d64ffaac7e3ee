package domain

import (
	"fmt"
	"strings"
	"time"
)

// Member is a registered customer. The tier fixes rental entitlements;
// activeRentals counts currently open rentals and must stay within the
// tier's concurrent cap, checked at booking time.
type Member struct {
	id            MemberID
	name          string
	email         string
	passwordHash  string
	tier          Tier
	active        bool
	activeRentals int
	totalRentals  int
	joinedAt      time.Time
}

// NewMember registers a customer. Email is normalized to lower case;
// uniqueness is the repository's contract. The password arrives already
// hashed.
func NewMember(name, email, passwordHash string, tier Tier, now time.Time) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return &Member{
		id:           NewMemberID(),
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		tier:         tier,
		active:       true,
		joinedAt:     now.UTC(),
	}, nil
}

func (m *Member) ID() MemberID         { return m.id }
func (m *Member) Name() string         { return m.name }
func (m *Member) Email() string        { return m.email }
func (m *Member) PasswordHash() string { return m.passwordHash }
func (m *Member) Tier() Tier           { return m.tier }
func (m *Member) IsActive() bool       { return m.active }
func (m *Member) ActiveRentals() int   { return m.activeRentals }
func (m *Member) TotalRentals() int    { return m.totalRentals }
func (m *Member) JoinedAt() time.Time  { return m.joinedAt }

// MaxRentalDays reports the longest single rental the member's tier
// allows.
func (m *Member) MaxRentalDays() int {
	return m.tier.MaxRentalDays()
}

// MaxConcurrentRentals reports how many rentals the member's tier
// allows open at once.
func (m *Member) MaxConcurrentRentals() int {
	return m.tier.MaxConcurrentRentals()
}

// CanRent checks the member-side booking rules: the account is active
// and the tier's concurrent cap has room. Period length is checked
// against MaxRentalDays wherever a period is priced; the overdue check
// needs the rental book and lives in the service.
func (m *Member) CanRent() error {
	if !m.active {
		return fmt.Errorf("%w: member %s", ErrMemberInactive, m.id)
	}
	if m.activeRentals >= m.tier.MaxConcurrentRentals() {
		return fmt.Errorf("%w: %s tier allows %d concurrent rentals", ErrLimitExceeded,
			m.tier, m.tier.MaxConcurrentRentals())
	}
	return nil
}

// ApplyDiscount prices a cost after the tier's discount.
func (m *Member) ApplyDiscount(cost Money) Money {
	return cost.DiscountPercent(m.tier.DiscountPercent())
}

// IncrementActiveRentals records a rental opening. The lifetime total
// moves with it.
func (m *Member) IncrementActiveRentals() {
	m.activeRentals++
	m.totalRentals++
}

// DecrementActiveRentals records a rental closing.
func (m *Member) DecrementActiveRentals() error {
	if m.activeRentals == 0 {
		return fmt.Errorf("%w: member %s has no active rentals", ErrInvalidState, m.id)
	}
	m.activeRentals--
	return nil
}

// UpdateName changes the display name.
func (m *Member) UpdateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	m.name = name
	return nil
}

// UpdateEmail changes the contact address. Uniqueness across members is
// the repository's contract, enforced when the change is persisted.
func (m *Member) UpdateEmail(email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	m.email = email
	return nil
}

// UpdatePassword swaps in a new password hash. Verifying the old
// password and hashing the new one happen in the service layer.
func (m *Member) UpdatePassword(hash string) error {
	if hash == "" {
		return fmt.Errorf("%w: empty password hash", ErrInvalidState)
	}
	m.passwordHash = hash
	return nil
}

// UpgradeTier moves the member to a higher tier. Downgrades are not a
// thing this business does.
func (m *Member) UpgradeTier(target Tier) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, target)
	}
	if !target.Above(m.tier) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, m.tier, target)
	}
	m.tier = target
	return nil
}

// Deactivate suspends the account. Open rentals stay open so the
// member can still return equipment; only new bookings are blocked.
func (m *Member) Deactivate() {
	m.active = false
}

// Reactivate lifts a suspension.
func (m *Member) Reactivate() {
	m.active = true
}

// MemberSnapshot is the flat persistence form of Member.
type MemberSnapshot struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Tier          string
	Active        bool
	ActiveRentals int
	TotalRentals  int
	JoinedAt      time.Time
}

// Snapshot exports the entity's state for storage.
func (m *Member) Snapshot() MemberSnapshot {
	return MemberSnapshot{
		ID:            m.id.String(),
		Name:          m.name,
		Email:         m.email,
		PasswordHash:  m.passwordHash,
		Tier:          m.tier.String(),
		Active:        m.active,
		ActiveRentals: m.activeRentals,
		TotalRentals:  m.totalRentals,
		JoinedAt:      m.joinedAt,
	}
}

// ReconstituteMember rebuilds the entity from a stored snapshot,
// re-checking every invariant.
func ReconstituteMember(s MemberSnapshot) (*Member, error) {
	id, err := ParseMemberID(s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("%w: member %s has no name", ErrInvalidSnapshot, s.ID)
	}
	email, err := normalizeEmail(s.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	tier, err := ParseTier(s.Tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.ActiveRentals < 0 || s.ActiveRentals > s.TotalRentals {
		return nil, fmt.Errorf("%w: member %s rental counters %d/%d", ErrInvalidSnapshot,
			s.ID, s.ActiveRentals, s.TotalRentals)
	}
	return &Member{
		id:            id,
		name:          strings.TrimSpace(s.Name),
		email:         email,
		passwordHash:  s.PasswordHash,
		tier:          tier,
		active:        s.Active,
		activeRentals: s.ActiveRentals,
		totalRentals:  s.TotalRentals,
		joinedAt:      s.JoinedAt.UTC(),
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
