// README: Slot availability rules; pure interval math over booked consultations.
package consultation

import "time"

// Business-hour slot starts offered every weekday.
var slotHours = []int{9, 10, 11, 14, 15, 16, 17}

// slotDuration is the window each offered slot occupies.
const slotDuration = time.Hour

// Interval is a booked consultation window.
type Interval struct {
	Start    time.Time
	Duration time.Duration
}

func (i Interval) End() time.Time { return i.Start.Add(i.Duration) }

// overlaps reports whether [a, a+ad) intersects [b, b+bd).
func overlaps(a time.Time, ad time.Duration, b time.Time, bd time.Duration) bool {
	return a.Before(b.Add(bd)) && b.Before(a.Add(ad))
}

// AvailableSlots enumerates hour-long candidate slots over the next `days`
// days starting at `from`, Monday through Friday only, skipping candidates
// in the past and candidates that overlap a booked interval.
func AvailableSlots(from time.Time, days int, busy []Interval) []time.Time {
	var out []time.Time
	loc := from.Location()
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	for d := 0; d < days; d++ {
		current := day.AddDate(0, 0, d)
		wd := current.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, h := range slotHours {
			slot := time.Date(current.Year(), current.Month(), current.Day(), h, 0, 0, 0, loc)
			if !slot.After(from) {
				continue
			}
			if slotBooked(slot, busy) {
				continue
			}
			out = append(out, slot)
		}
	}
	return out
}

func slotBooked(slot time.Time, busy []Interval) bool {
	for _, b := range busy {
		if overlaps(slot, slotDuration, b.Start, b.Duration) {
			return true
		}
	}
	return false
}
