// Package since resolves relative time expressions into concrete instants.
package since

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"what_bot/internal/model"
)

var periodRe = regexp.MustCompile(`(?i)^(\d+)\s*(hour|day|week)s?$`)

var units = map[string]time.Duration{
	"hour": time.Hour,
	"day":  24 * time.Hour,
	"week": 7 * 24 * time.Hour,
}

// Resolver turns time tokens into instants in a fixed reference timezone.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Resolver for the given reference timezone.
func New(loc *time.Location) *Resolver {
	return &Resolver{loc: loc, now: time.Now}
}

// NewWithClock creates a Resolver with a custom clock (useful for testing).
func NewWithClock(loc *time.Location, now func() time.Time) *Resolver {
	return &Resolver{loc: loc, now: now}
}

// Resolve maps "today", "<N> hour(s)", "<N> day(s)" or "<N> week(s)" to the
// instant it denotes. Anything else is a validation error.
func (r *Resolver) Resolve(period string) (time.Time, error) {
	now := r.now().In(r.loc)
	token := strings.TrimSpace(period)

	if strings.EqualFold(token, "today") {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, r.loc), nil
	}

	match := periodRe.FindStringSubmatch(token)
	if match == nil {
		return time.Time{}, model.Invalidf("Invalid time period: %s", period)
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	unit := units[strings.ToLower(match[2])]
	if err != nil || n > math.MaxInt64/int64(unit) {
		return time.Time{}, model.Invalidf("Invalid time period: %s", period)
	}
	return now.Add(-time.Duration(n) * unit), nil
}

// Bound returns the lower bound for s: absolute instants pass through,
// relative tokens go through Resolve.
func (r *Resolver) Bound(s model.Since) (time.Time, error) {
	if s.IsAbsolute() {
		return s.At, nil
	}
	return r.Resolve(s.Relative)
}
