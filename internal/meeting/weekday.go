package meeting

import (
	"fmt"
	"strings"
)

// Weekday is a day of the week numbered the ISO 8601 way: Monday=1 … Sunday=7.
// The zero value is not a valid day.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// Weekdays lists every day in canonical order.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Valid reports whether d is one of Monday … Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Short returns the three-letter abbreviation ("Mon").
func (d Weekday) Short() string {
	if !d.Valid() {
		return "?"
	}
	return weekdayNames[d][:3]
}

// MarshalText encodes the day by name so JSON payloads read "Monday".
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("meeting: invalid weekday %d", int(d))
	}
	return []byte(weekdayNames[d]), nil
}

// UnmarshalText accepts a full or abbreviated day name, or an ISO number 1-7.
func (d *Weekday) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if len(s) == 1 && s[0] >= '1' && s[0] <= '7' {
		*d = Weekday(s[0] - '0')
		return nil
	}
	if wd, ok := lookupDayName(s); ok {
		*d = wd
		return nil
	}
	return &ParseError{Field: "weekday", Input: s, Err: ErrUnknownDayCode}
}

// dayNames maps lowercase full and abbreviated names to days.
var dayNames = map[string]Weekday{
	"monday": Monday, "mon": Monday, "mondays": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "tues": Tuesday, "tuesdays": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "weds": Wednesday, "wednesdays": Wednesday,
	"thursday": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursdays": Thursday,
	"friday": Friday, "fri": Friday, "fridays": Friday,
	"saturday": Saturday, "sat": Saturday, "saturdays": Saturday,
	"sunday": Sunday, "sun": Sunday, "sundays": Sunday,
}

func lookupDayName(s string) (Weekday, bool) {
	wd, ok := dayNames[strings.ToLower(strings.TrimSuffix(s, "."))]
	return wd, ok
}
