package meeting

import (
	"fmt"
	"math"
)

// TimeOfDay is a wall-clock time as fractional hours in [0, 24).
// 13:20 is 13 + 20/60.
type TimeOfDay float64

// NewTimeOfDay builds a TimeOfDay from an hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d out of range", ErrMalformedTime, hour, minute)
	}
	return TimeOfDay(float64(hour) + float64(minute)/60.0), nil
}

// Hour returns the whole hour.
func (t TimeOfDay) Hour() int {
	return int(math.Floor(float64(t)))
}

// Minute returns the minute past the hour, rounded to the nearest minute.
func (t TimeOfDay) Minute() int {
	return int(math.Round((float64(t) - math.Floor(float64(t))) * 60))
}

// Clock returns hour and minute, carrying a rounded 60 into the next hour.
func (t TimeOfDay) Clock() (hour, minute int) {
	total := int(math.Round(float64(t) * 60))
	return total / 60, total % 60
}

// String formats as 24-hour "HH:MM".
func (t TimeOfDay) String() string {
	h, m := t.Clock()
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Kitchen formats as "1:20PM".
func (t TimeOfDay) Kitchen() string {
	h, m := t.Clock()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d%s", h12, m, suffix)
}
