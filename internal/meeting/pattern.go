package meeting

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags a MeetingPattern variant.
type Kind string

const (
	KindScheduled    Kind = "scheduled"
	KindAsynchronous Kind = "asynchronous"
)

// OnlineLocation is the location shown for patterns without a room.
const OnlineLocation = "Online"

// SectionKey identifies one meeting component of a course. A lecture and its
// lab share a CourseID but have different SectionTypes. Section tells apart
// two offerings of the same type, by section number or by meeting time.
type SectionKey struct {
	CourseID    string `json:"course_id"`
	SectionType string `json:"section_type,omitempty"`
	Section     string `json:"section,omitempty"`
}

func (k SectionKey) String() string {
	parts := make([]string, 0, 3)
	for _, v := range []string{k.CourseID, k.SectionType, k.Section} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// MeetingPattern is one occurrence of a course in the week. A Scheduled
// pattern has a weekday and a start < end range. An Asynchronous pattern has
// neither and is never placed on the grid.
type MeetingPattern struct {
	Kind        Kind      `json:"kind"`
	CourseID    string    `json:"course_id"`
	SectionType string    `json:"section_type,omitempty"`
	Section     string    `json:"section,omitempty"`
	Title       string    `json:"title,omitempty"`
	Weekday     Weekday   `json:"weekday,omitempty"`
	Start       TimeOfDay `json:"start"`
	End         TimeOfDay `json:"end"`
	Location    string    `json:"location"`
	// Raw keeps the original meeting text when a record degraded to
	// asynchronous because it could not be parsed.
	Raw string `json:"raw,omitempty"`
}

// Scheduled builds a fixed-slot pattern.
func Scheduled(key SectionKey, day Weekday, start, end TimeOfDay, location string) MeetingPattern {
	return MeetingPattern{
		Kind:        KindScheduled,
		CourseID:    key.CourseID,
		SectionType: key.SectionType,
		Section:     key.Section,
		Weekday:     day,
		Start:       start,
		End:         end,
		Location:    location,
	}
}

// Asynchronous builds a no-slot pattern.
func Asynchronous(key SectionKey, location string) MeetingPattern {
	if location == "" {
		location = OnlineLocation
	}
	return MeetingPattern{
		Kind:        KindAsynchronous,
		CourseID:    key.CourseID,
		SectionType: key.SectionType,
		Section:     key.Section,
		Location:    location,
	}
}

// MarshalJSON writes start and end for scheduled patterns only, so a class
// at midnight keeps its times and an asynchronous pattern has none.
func (p MeetingPattern) MarshalJSON() ([]byte, error) {
	type plain MeetingPattern
	out := struct {
		plain
		Start *TimeOfDay `json:"start,omitempty"`
		End   *TimeOfDay `json:"end,omitempty"`
	}{plain: plain(p)}
	if p.IsScheduled() {
		out.Start, out.End = &p.Start, &p.End
	}
	return json.Marshal(out)
}

// IsScheduled reports whether p occupies a slot on the grid.
func (p MeetingPattern) IsScheduled() bool {
	return p.Kind == KindScheduled
}

// Key returns the section this pattern belongs to.
func (p MeetingPattern) Key() SectionKey {
	return SectionKey{CourseID: p.CourseID, SectionType: p.SectionType, Section: p.Section}
}

// Duration is the length of the meeting in hours.
func (p MeetingPattern) Duration() float64 {
	if !p.IsScheduled() {
		return 0
	}
	return float64(p.End - p.Start)
}

// Covers reports whether p meets on day during the hour starting at hour.
// The end is exclusive: a 13:00-14:00 class does not cover 14.
func (p MeetingPattern) Covers(day Weekday, hour int) bool {
	if !p.IsScheduled() || p.Weekday != day {
		return false
	}
	h := TimeOfDay(hour)
	return p.Start <= h && h < p.End
}

// Overlaps reports whether two scheduled patterns share time on the same day.
func (p MeetingPattern) Overlaps(o MeetingPattern) bool {
	if !p.IsScheduled() || !o.IsScheduled() || p.Weekday != o.Weekday {
		return false
	}
	return p.Start < o.End && o.Start < p.End
}

func (p MeetingPattern) String() string {
	if !p.IsScheduled() {
		return fmt.Sprintf("%s async @ %s", p.Key(), p.Location)
	}
	return fmt.Sprintf("%s %s %s-%s @ %s", p.Key(), p.Weekday.Short(), p.Start, p.End, p.Location)
}

// Signature summarizes when patterns meet, for example
// "Mon/Wed 13:00-14:15, Fri 09:00-10:00". Ranges keep first-seen order.
// Patterns with no slot give "async".
func Signature(patterns []MeetingPattern) string {
	type span struct{ start, end TimeOfDay }
	var order []span
	days := make(map[span][]string)
	for _, p := range patterns {
		if !p.IsScheduled() {
			continue
		}
		sp := span{p.Start, p.End}
		if _, ok := days[sp]; !ok {
			order = append(order, sp)
		}
		days[sp] = append(days[sp], p.Weekday.Short())
	}
	if len(order) == 0 {
		return "async"
	}
	parts := make([]string, 0, len(order))
	for _, sp := range order {
		parts = append(parts, fmt.Sprintf("%s %s-%s", strings.Join(days[sp], "/"), sp.start, sp.end))
	}
	return strings.Join(parts, ", ")
}
