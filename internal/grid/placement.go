package grid

import "github.com/ashtonliu88/SlugScheduler/internal/meeting"

// Drop outcomes shown to the student while dragging.
const (
	ReasonMeets        = "course meets at this time"
	ReasonAsynchronous = "online/asynchronous: no fixed slot"
	ReasonWrongSlot    = "course does not meet at this time"
	ReasonNoPatterns   = "course has no meeting information"
	ReasonScheduled    = "course is already scheduled"
)

// PlacementDecision is the accept/reject answer for one drop target.
type PlacementDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// ValidateDrop decides whether a course may be dropped on day at hour. It
// is allowed only if some scheduled pattern meets that day with
// start <= hour < end. Courses with only asynchronous patterns never fit a
// slot.
func ValidateDrop(patterns []meeting.MeetingPattern, day meeting.Weekday, hour int) PlacementDecision {
	if len(patterns) == 0 {
		return PlacementDecision{Allowed: false, Reason: ReasonNoPatterns}
	}
	scheduled := false
	for _, p := range patterns {
		if !p.IsScheduled() {
			continue
		}
		scheduled = true
		if p.Covers(day, hour) {
			return PlacementDecision{Allowed: true, Reason: ReasonMeets}
		}
	}
	if !scheduled {
		return PlacementDecision{Allowed: false, Reason: ReasonAsynchronous}
	}
	return PlacementDecision{Allowed: false, Reason: ReasonWrongSlot}
}
