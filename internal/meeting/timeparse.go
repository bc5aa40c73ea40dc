package meeting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholders are meeting texts that mean "no fixed slot".
var placeholders = map[string]bool{
	"":                    true,
	"-":                   true,
	"tba":                 true,
	"tbd":                 true,
	"n/a":                 true,
	"na":                  true,
	"none":                true,
	"online":              true,
	"arranged":            true,
	"arr":                 true,
	"async":               true,
	"asynchronous":        true,
	"online asynchronous": true,
	"asynchronous online": true,
	"cancelled":           true,
	"canceled":            true,
	"days and times tba":  true,
	"remote":              true,
	"independent study":   true,
	"to be announced":     true,
	"time tba":            true,
	"days tba":            true,
	"see instructor":      true,
	"by arrangement":      true,
}

// IsPlaceholder reports whether raw is placeholder text such as "TBA".
func IsPlaceholder(raw string) bool {
	return placeholders[strings.ToLower(strings.Join(strings.Fields(raw), " "))]
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(?:([AaPp])\.?\s*[Mm]\.?)?$`)

// clock is one side of a range before its meridiem is settled.
type clock struct {
	hour, minute int
	hasMinute    bool
	meridiem     byte // 0, 'a' or 'p'
}

func lexClock(token string) (clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return clock{}, fmt.Errorf("%w: %q", ErrMalformedTime, token)
	}
	c := clock{}
	c.hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		c.minute, _ = strconv.Atoi(m[2])
		c.hasMinute = true
	}
	if m[3] != "" {
		c.meridiem = strings.ToLower(m[3])[0]
	}
	return c, nil
}

// resolve applies meridiem (0 means 24-hour) and validates ranges.
func (c clock) resolve(meridiem byte) (TimeOfDay, error) {
	if c.minute > 59 {
		return 0, fmt.Errorf("%w: minute %d", ErrMalformedTime, c.minute)
	}
	if meridiem == 0 {
		if !c.hasMinute {
			return 0, fmt.Errorf("%w: %d has neither minutes nor AM/PM", ErrMalformedTime, c.hour)
		}
		return NewTimeOfDay(c.hour, c.minute)
	}
	if c.hour < 1 || c.hour > 12 {
		return 0, fmt.Errorf("%w: hour %d with AM/PM", ErrMalformedTime, c.hour)
	}
	h := c.hour % 12
	if meridiem == 'p' {
		h += 12
	}
	return NewTimeOfDay(h, c.minute)
}

func flip(meridiem byte) byte {
	if meridiem == 'a' {
		return 'p'
	}
	return 'a'
}

// ParseTime parses a single clock token: "13:00", "1:20PM", "9 am".
func ParseTime(token string) (TimeOfDay, error) {
	c, err := lexClock(token)
	if err != nil {
		return 0, &ParseError{Field: "time", Input: token, Err: err}
	}
	t, err := c.resolve(c.meridiem)
	if err != nil {
		return 0, &ParseError{Field: "time", Input: token, Err: err}
	}
	return t, nil
}

// ParseTimeRange parses a start-end range in either the 12-hour form
// ("01:20PM-02:25PM", "1:20 pm - 2:25 pm") or the 24-hour form ("13:00 - 14:15").
//
// When only one side carries AM/PM the other side inherits it, flipped if that
// would put start at or after end. Placeholder text returns ErrNoMeetingTime.
func ParseTimeRange(raw string) (start, end TimeOfDay, err error) {
	if IsPlaceholder(raw) {
		return 0, 0, ErrNoMeetingTime
	}

	fail := func(e error) (TimeOfDay, TimeOfDay, error) {
		return 0, 0, &ParseError{Field: "time", Input: raw, Err: e}
	}

	left, right, ok := splitRange(raw)
	if !ok {
		return fail(fmt.Errorf("%w: expected start-end", ErrMalformedTime))
	}
	sc, err := lexClock(left)
	if err != nil {
		return fail(err)
	}
	ec, err := lexClock(right)
	if err != nil {
		return fail(err)
	}

	switch {
	case sc.meridiem == 0 && ec.meridiem != 0:
		if end, err = ec.resolve(ec.meridiem); err != nil {
			return fail(err)
		}
		start, err = pickBefore(sc, end, ec.meridiem)
	case sc.meridiem != 0 && ec.meridiem == 0:
		if start, err = sc.resolve(sc.meridiem); err != nil {
			return fail(err)
		}
		end, err = pickAfter(ec, start, sc.meridiem)
	default:
		if start, err = sc.resolve(sc.meridiem); err != nil {
			return fail(err)
		}
		if end, err = ec.resolve(ec.meridiem); err != nil {
			return fail(err)
		}
	}
	if err != nil {
		return fail(err)
	}
	if start >= end {
		return fail(fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end))
	}
	return start, end, nil
}

// pickBefore resolves a bare start against a known end.
func pickBefore(c clock, end TimeOfDay, inherited byte) (TimeOfDay, error) {
	var firstErr error
	for _, m := range []byte{inherited, flip(inherited), 0} {
		t, err := c.resolve(m)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t < end {
			return t, nil
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return 0, ErrInvalidRange
}

// pickAfter resolves a bare end against a known start.
func pickAfter(c clock, start TimeOfDay, inherited byte) (TimeOfDay, error) {
	var firstErr error
	for _, m := range []byte{inherited, flip(inherited), 0} {
		t, err := c.resolve(m)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t > start {
			return t, nil
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return 0, ErrInvalidRange
}

var rangeDashes = strings.NewReplacer("–", "-", "—", "-", " to ", "-", " TO ", "-")

func splitRange(raw string) (string, string, bool) {
	s := rangeDashes.Replace(strings.TrimSpace(raw))
	if i := strings.Index(s, " - "); i >= 0 {
		return s[:i], s[i+3:], !strings.Contains(s[i+3:], "-")
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
