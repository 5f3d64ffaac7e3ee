package domain

import "fmt"

// Condition grades the physical state of a piece of equipment, from
// EXCELLENT down to DAMAGED.
type Condition string

const (
	ConditionExcellent Condition = "EXCELLENT"
	ConditionGood      Condition = "GOOD"
	ConditionFair      Condition = "FAIR"
	ConditionPoor      Condition = "POOR"
	ConditionDamaged   Condition = "DAMAGED"
)

// conditionRank orders conditions from worst (0) to best. The gap
// between two ranks is the degradation level count used for damage
// fees.
var conditionRank = map[Condition]int{
	ConditionDamaged:   0,
	ConditionPoor:      1,
	ConditionFair:      2,
	ConditionGood:      3,
	ConditionExcellent: 4,
}

// ParseCondition validates a stored or user-supplied condition string.
func ParseCondition(s string) (Condition, error) {
	c := Condition(s)
	if _, ok := conditionRank[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCondition, s)
	}
	return c, nil
}

// IsValid reports whether c is one of the known grades.
func (c Condition) IsValid() bool {
	_, ok := conditionRank[c]
	return ok
}

// WorseThan reports whether c is a lower grade than other.
func (c Condition) WorseThan(other Condition) bool {
	return conditionRank[c] < conditionRank[other]
}

// DegradationFrom reports how many grade levels c has dropped from a
// previous condition. Zero when c is the same grade or better.
func (c Condition) DegradationFrom(previous Condition) int {
	drop := conditionRank[previous] - conditionRank[c]
	if drop < 0 {
		return 0
	}
	return drop
}

func (c Condition) String() string {
	return string(c)
}
