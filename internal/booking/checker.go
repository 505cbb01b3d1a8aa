package booking

import (
	"fmt"
	"time"
)

// DefaultMinSpacing is the minimum gap between two bookings for one provider.
const DefaultMinSpacing = 30 * time.Minute

// Checker decides whether a candidate start is too close to a provider's
// existing bookings. It is pure: no I/O, no side effects.
type Checker struct {
	minSpacing time.Duration
}

// NewChecker rejects non-positive spacing; a zero or negative window is a
// configuration error, not a per-call condition.
func NewChecker(minSpacing time.Duration) (*Checker, error) {
	if minSpacing <= 0 {
		return nil, fmt.Errorf("min spacing must be positive, got %s", minSpacing)
	}
	return &Checker{minSpacing: minSpacing}, nil
}

func (c *Checker) MinSpacing() time.Duration { return c.minSpacing }

// HasConflict reports whether any element of existing lies strictly within the
// minimum spacing of candidate on either side. A gap exactly equal to the
// spacing is not a conflict. existing holds the booked starts for a single
// provider and may be unsorted, so every element is scanned.
func (c *Checker) HasConflict(candidate time.Time, existing []time.Time) bool {
	for _, booked := range existing {
		gap := booked.Sub(candidate)
		if gap < 0 {
			gap = -gap
		}
		if gap < c.minSpacing {
			return true
		}
	}
	return false
}
