package since

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"

	"what_bot/internal/model"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %q: %v", name, err)
	}
	return loc
}

func TestResolve(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	// 2024-09-04 06:09:11 UTC is 2024-09-03 23:09:11 in Los Angeles.
	now := time.Date(2024, 9, 4, 6, 9, 11, 500, time.UTC)
	r := NewWithClock(la, func() time.Time { return now })

	tests := []struct {
		period string
		want   time.Time
	}{
		{"today", time.Date(2024, 9, 3, 0, 0, 0, 0, la)},
		{"TODAY", time.Date(2024, 9, 3, 0, 0, 0, 0, la)},
		{"3 hours", now.Add(-3 * time.Hour)},
		{"1 hour", now.Add(-time.Hour)},
		{"2 days", now.Add(-48 * time.Hour)},
		{"2days", now.Add(-48 * time.Hour)},
		{"1 week", now.Add(-7 * 24 * time.Hour)},
		{"4 Weeks", now.Add(-4 * 7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := r.Resolve(tt.period)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.period, got, tt.want)
			}
			if got.After(now) {
				t.Errorf("Resolve(%q) = %v is after now", tt.period, got)
			}
			if got.Location() != la {
				t.Errorf("Resolve(%q) location = %v, want %v", tt.period, got.Location(), la)
			}
		})
	}
}

func TestResolveTodayIsMidnight(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	r := New(la)

	got, err := r.Resolve("today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, m, s := got.Clock()
	if diff := cmp.Diff([3]int{0, 0, 0}, [3]int{h, m, s}); diff != "" {
		t.Errorf("clock mismatch (-want +got):\n%s", diff)
	}
	if got.Nanosecond() != 0 {
		t.Errorf("nanoseconds = %d, want 0", got.Nanosecond())
	}
	if got.After(time.Now()) {
		t.Errorf("today midnight %v is in the future", got)
	}
}

func TestResolveInvalid(t *testing.T) {
	r := New(time.UTC)
	for _, period := range []string{"", "yesterday", "3 months", "hours", "-1 days", "2 days ago", "99999999999999999999 weeks", "9999999999999 weeks"} {
		t.Run(period, func(t *testing.T) {
			_, err := r.Resolve(period)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *model.ValidationError, got %v", err)
			}
			if diff := cmp.Diff("Invalid time period: "+period, verr.Msg); diff != "" {
				t.Errorf("message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBound(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	r := NewWithClock(time.UTC, func() time.Time { return now })

	at := time.Date(2025, 1, 9, 8, 30, 0, 0, time.UTC)
	got, err := r.Bound(model.SinceAt(at))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("absolute bound = %v, want %v", got, at)
	}

	got, err = r.Bound(model.SinceRelative("2 hours"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(now.Add(-2 * time.Hour)) {
		t.Errorf("relative bound = %v, want %v", got, now.Add(-2*time.Hour))
	}
}
