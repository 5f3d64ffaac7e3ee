package domain

import "fmt"

// Money is a non-negative amount of US dollars held as whole cents.
// The zero value is $0.00. Money is comparable; == means same amount.
type Money struct {
	cents int64
}

// Cents builds Money from a cent count.
func Cents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, fmt.Errorf("%w: %d cents", ErrInvalidAmount, cents)
	}
	return Money{cents: cents}, nil
}

// Dollars builds Money from a whole dollar count.
func Dollars(dollars int64) (Money, error) {
	return Cents(dollars * 100)
}

// MustCents is Cents for compile-time constants such as fee schedules.
// It panics on a negative amount.
func MustCents(cents int64) Money {
	m, err := Cents(cents)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns $0.00.
func ZeroMoney() Money {
	return Money{}
}

// Cents reports the amount in whole cents.
func (m Money) Cents() int64 {
	return m.cents
}

// IsZero reports whether the amount is $0.00.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Subtract returns m - other, clamped at zero so the result stays a
// valid amount.
func (m Money) Subtract(other Money) Money {
	if other.cents >= m.cents {
		return Money{}
	}
	return Money{cents: m.cents - other.cents}
}

// LessThan reports whether m is a smaller amount than other.
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// GreaterThan reports whether m is a larger amount than other.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// MultiplyDays returns the amount scaled by a day count. Negative day
// counts are treated as zero.
func (m Money) MultiplyDays(days int) Money {
	if days <= 0 {
		return Money{}
	}
	return Money{cents: m.cents * int64(days)}
}

// DiscountPercent returns the amount after deducting percent, rounding
// half-up to the nearest cent. Percent is clamped to [0, 100].
func (m Money) DiscountPercent(percent int) Money {
	if percent <= 0 {
		return m
	}
	if percent >= 100 {
		return Money{}
	}
	return Money{cents: (m.cents*int64(100-percent) + 50) / 100}
}

// String formats the amount as "$12.34".
func (m Money) String() string {
	return fmt.Sprintf("$%d.%02d", m.cents/100, m.cents%100)
}
