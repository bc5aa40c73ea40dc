package grid

import (
	"errors"
	"fmt"
)

// Default axis geometry: 8:00 to 21:00, 80px per hour.
const (
	DefaultStartHour   = 8
	DefaultEndHour     = 21
	DefaultRowHeightPx = 80.0
)

// ErrInvalidTimeAxis is returned for an axis that cannot hold any row.
var ErrInvalidTimeAxis = errors.New("invalid time axis")

// TimeAxis is the vertical axis of the weekly grid: one row per hour in
// [StartHour, EndHour).
type TimeAxis struct {
	StartHour   int     `json:"start_hour"`
	EndHour     int     `json:"end_hour"`
	RowHeightPx float64 `json:"row_height_px"`
}

// DefaultTimeAxis returns the 8-21 axis at 80px per row.
func DefaultTimeAxis() TimeAxis {
	return TimeAxis{StartHour: DefaultStartHour, EndHour: DefaultEndHour, RowHeightPx: DefaultRowHeightPx}
}

// NewTimeAxis validates and returns an axis.
func NewTimeAxis(startHour, endHour int, rowHeightPx float64) (TimeAxis, error) {
	a := TimeAxis{StartHour: startHour, EndHour: endHour, RowHeightPx: rowHeightPx}
	if err := a.Validate(); err != nil {
		return TimeAxis{}, err
	}
	return a, nil
}

// Validate reports configuration mistakes.
func (a TimeAxis) Validate() error {
	switch {
	case a.StartHour < 0:
		return fmt.Errorf("%w: start hour %d is negative", ErrInvalidTimeAxis, a.StartHour)
	case a.EndHour > 24:
		return fmt.Errorf("%w: end hour %d is past midnight", ErrInvalidTimeAxis, a.EndHour)
	case a.EndHour <= a.StartHour:
		return fmt.Errorf("%w: end hour %d must be after start hour %d", ErrInvalidTimeAxis, a.EndHour, a.StartHour)
	case a.RowHeightPx <= 0:
		return fmt.Errorf("%w: row height %v must be positive", ErrInvalidTimeAxis, a.RowHeightPx)
	}
	return nil
}

// Rows is the number of hour rows.
func (a TimeAxis) Rows() int {
	return a.EndHour - a.StartHour
}

// HeightPx is the full grid height.
func (a TimeAxis) HeightPx() float64 {
	return float64(a.Rows()) * a.RowHeightPx
}

// Hours lists the hour at the top of each row.
func (a TimeAxis) Hours() []int {
	hours := make([]int, 0, a.Rows())
	for h := a.StartHour; h < a.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// RowLabel formats a row header the way the calendar shows it ("8:00").
func (a TimeAxis) RowLabel(row int) string {
	return fmt.Sprintf("%d:00", a.StartHour+row)
}
