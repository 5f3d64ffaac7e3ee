package domain

import (
	"fmt"
	"time"
)

// hoursPerDay is the billing resolution: any started 24h block counts
// as a full day.
const hoursPerDay = 24

// DateRange is a half-open time interval [Start, End). The end instant
// itself is excluded, so back-to-back bookings sharing a boundary do
// not overlap. Instants are normalized to UTC.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange builds a range and rejects empty or inverted intervals.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if !start.Before(end) {
		return DateRange{}, fmt.Errorf("%w: start %s, end %s", ErrInvalidPeriod,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DateRange{start: start.UTC(), end: end.UTC()}, nil
}

// Start reports the inclusive lower bound.
func (r DateRange) Start() time.Time {
	return r.start
}

// End reports the exclusive upper bound.
func (r DateRange) End() time.Time {
	return r.end
}

// IsZero reports whether the range is the uninitialized zero value.
func (r DateRange) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

// Equal reports whether both ranges cover the same interval.
func (r DateRange) Equal(other DateRange) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

// Overlaps reports whether the two half-open intervals intersect.
// Sharing a single boundary instant is not an overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

// ContainsInstant reports whether t falls inside the interval. The end
// instant is excluded.
func (r DateRange) ContainsInstant(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

// HasStarted reports whether the range's start has been reached.
func (r DateRange) HasStarted(now time.Time) bool {
	return !now.Before(r.start)
}

// HasEnded reports whether the range's end has been reached.
func (r DateRange) HasEnded(now time.Time) bool {
	return !now.Before(r.end)
}

// Days reports the billable length of the range. Any started 24h block
// counts as a full day, so a 4.5 day range bills 5 days.
func (r DateRange) Days() int {
	return ceilDays(r.end.Sub(r.start))
}

// DaysUntilEnd reports how many billable days remain before the range
// ends, counting any started 24h block as a full day. Zero once the end
// has been reached.
func (r DateRange) DaysUntilEnd(now time.Time) int {
	return ceilDays(r.end.Sub(now))
}

// DaysOverdueAt reports how many late days have accrued by now, counting
// any started 24h block past the end as a full day. Zero while the range
// has not ended.
func (r DateRange) DaysOverdueAt(now time.Time) int {
	if !r.HasEnded(now) {
		return 0
	}
	return ceilDays(now.Sub(r.end))
}

// ExtendedBy returns a copy of the range with the end pushed out by a
// positive number of days. The start is unchanged.
func (r DateRange) ExtendedBy(days int) (DateRange, error) {
	if days <= 0 {
		return DateRange{}, fmt.Errorf("%w: extension of %d days", ErrInvalidPeriod, days)
	}
	return DateRange{start: r.start, end: r.end.Add(time.Duration(days) * hoursPerDay * time.Hour)}, nil
}

// TrailingExtension returns the window an extension of the given length
// would add after the current end, as its own range. Conflict checks run
// against this window only, since the original period is already held.
func (r DateRange) TrailingExtension(days int) (DateRange, error) {
	if days <= 0 {
		return DateRange{}, fmt.Errorf("%w: extension of %d days", ErrInvalidPeriod, days)
	}
	return DateRange{start: r.end, end: r.end.Add(time.Duration(days) * hoursPerDay * time.Hour)}, nil
}

// String formats the range as "[start, end)" in RFC 3339.
func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / (hoursPerDay * time.Hour))
	if d%(hoursPerDay*time.Hour) != 0 {
		days++
	}
	return days
}
