// README: Slot availability tests; pure interval math, no database.
package consultation

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	hour := time.Hour

	cases := []struct {
		name string
		a    time.Time
		ad   time.Duration
		b    time.Time
		bd   time.Duration
		want bool
	}{
		{"identical", base, hour, base, hour, true},
		{"contained", base, hour, base.Add(15 * time.Minute), 30 * time.Minute, true},
		{"partial overlap", base, hour, base.Add(30 * time.Minute), hour, true},
		{"touching endpoints", base, hour, base.Add(hour), hour, false},
		{"disjoint", base, hour, base.Add(2 * time.Hour), hour, false},
		{"reversed partial", base.Add(30 * time.Minute), hour, base, hour, true},
	}
	for _, tc := range cases {
		if got := overlaps(tc.a, tc.ad, tc.b, tc.bd); got != tc.want {
			t.Errorf("%s: overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAvailableSlotsSkipsWeekends(t *testing.T) {
	// Friday 2026-03-06 08:00 UTC; a 3-day horizon covers Fri, Sat, Sun.
	from := time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC)
	slots := AvailableSlots(from, 3, nil)

	if len(slots) != len(slotHours) {
		t.Fatalf("expected %d Friday slots, got %d", len(slotHours), len(slots))
	}
	for _, s := range slots {
		if wd := s.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend slot offered: %s", s)
		}
	}
}

func TestAvailableSlotsSkipsPast(t *testing.T) {
	// Monday 2026-03-02 14:30 UTC; morning slots and the 14:00 slot are gone.
	from := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	slots := AvailableSlots(from, 1, nil)

	want := []int{15, 16, 17}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d (%v)", len(want), len(slots), slots)
	}
	for i, s := range slots {
		if s.Hour() != want[i] {
			t.Errorf("slot %d = %02d:00, want %02d:00", i, s.Hour(), want[i])
		}
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // Monday morning
	booked := []Interval{
		{Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Duration: time.Hour},
		// 90-minute booking starting 14:30 blocks both 14:00 and 15:00.
		{Start: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC), Duration: 90 * time.Minute},
	}
	slots := AvailableSlots(from, 1, booked)

	want := []int{9, 11, 16, 17}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d (%v)", len(want), len(slots), slots)
	}
	for i, s := range slots {
		if s.Hour() != want[i] {
			t.Errorf("slot %d = %02d:00, want %02d:00", i, s.Hour(), want[i])
		}
	}
}
