package domain

import "fmt"

// Tier is a membership level. Each tier fixes the member's rental
// entitlements: how long a single rental may run, how many rentals may
// be open at once, and the percentage knocked off every rental cost.
type Tier string

const (
	TierBasic    Tier = "BASIC"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

type tierPolicy struct {
	maxRentalDays        int
	maxConcurrentRentals int
	discountPercent      int
}

var tierPolicies = map[Tier]tierPolicy{
	TierBasic:    {maxRentalDays: 7, maxConcurrentRentals: 2, discountPercent: 0},
	TierSilver:   {maxRentalDays: 10, maxConcurrentRentals: 3, discountPercent: 5},
	TierGold:     {maxRentalDays: 14, maxConcurrentRentals: 4, discountPercent: 10},
	TierPlatinum: {maxRentalDays: 21, maxConcurrentRentals: 6, discountPercent: 15},
}

// tierOrder ranks tiers for upgrade checks, lowest first.
var tierOrder = map[Tier]int{
	TierBasic:    0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

// ParseTier validates a stored or user-supplied tier string.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierPolicies[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the known tiers.
func (t Tier) IsValid() bool {
	_, ok := tierPolicies[t]
	return ok
}

// MaxRentalDays reports the longest single rental the tier allows.
func (t Tier) MaxRentalDays() int {
	return tierPolicies[t].maxRentalDays
}

// MaxConcurrentRentals reports how many rentals the tier allows open at
// once.
func (t Tier) MaxConcurrentRentals() int {
	return tierPolicies[t].maxConcurrentRentals
}

// DiscountPercent reports the tier's percentage discount on rental
// costs.
func (t Tier) DiscountPercent() int {
	return tierPolicies[t].discountPercent
}

// Above reports whether t outranks other.
func (t Tier) Above(other Tier) bool {
	return tierOrder[t] > tierOrder[other]
}

func (t Tier) String() string {
	return string(t)
}
