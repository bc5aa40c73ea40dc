// Package planner holds a student's working set: recommended courses and the
// courses placed on the schedule. A Plan is a value. Every transition returns
// a new Plan and leaves the receiver untouched, so callers own the state and
// decide where it lives.
package planner

import (
	"errors"
	"fmt"
	"maps"

	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ErrEntryNotFound is returned when a key names no entry in the list acted on.
var ErrEntryNotFound = errors.New("course not found in plan")

// Entry is one course record with the patterns built from it. Key is unique
// within a plan.
type Entry struct {
	Key      meeting.SectionKey       `json:"key"`
	Title    string                   `json:"title,omitempty"`
	Record   meeting.RawCourseRecord  `json:"record"`
	Patterns []meeting.MeetingPattern `json:"patterns"`
	Issues   []meeting.Issue          `json:"issues,omitempty"`

	// base is the key the record names by itself, before the plan told it
	// apart from other records with the same one.
	base meeting.SectionKey
}

// NewEntry builds the patterns for record with b.
func NewEntry(b *meeting.Builder, record meeting.RawCourseRecord) Entry {
	res := b.Build(record)
	key := meeting.SectionKey{CourseID: res.CourseID}
	if len(res.Patterns) > 0 {
		key = res.Patterns[0].Key()
	}
	return Entry{
		Key:      key,
		Title:    res.Title,
		Record:   record,
		Patterns: res.Patterns,
		Issues:   res.Issues,
		base:     key,
	}
}

func (e Entry) baseKey() meeting.SectionKey {
	if e.base == (meeting.SectionKey{}) {
		return e.Key
	}
	return e.base
}

// primary returns the patterns of the entry's own section, leaving out
// nested lab and discussion sections.
func (e Entry) primary() []meeting.MeetingPattern {
	var out []meeting.MeetingPattern
	for _, p := range e.Patterns {
		if p.Key() == e.Key {
			out = append(out, p)
		}
	}
	return out
}

func (e Entry) location() string {
	for _, p := range e.primary() {
		if p.Location != "" {
			return p.Location
		}
	}
	return ""
}

// withKey returns e under key, with its primary patterns relabelled.
func (e Entry) withKey(key meeting.SectionKey) Entry {
	e.base = e.baseKey()
	if e.Key == key {
		return e
	}
	cur := e.Key
	e.Key = key
	patterns := make([]meeting.MeetingPattern, len(e.Patterns))
	for i, p := range e.Patterns {
		if p.Key() == cur {
			p.Section = key.Section
		}
		patterns[i] = p
	}
	e.Patterns = patterns
	return e
}

// Plan is the working set.
type Plan struct {
	Recommendations []Entry `json:"recommendations"`
	Scheduled       []Entry `json:"scheduled"`
}

// Rebuild parses the records of a stored plan. Stored plans keep raw records
// only, so the patterns always come from the current builder.
func Rebuild(b *meeting.Builder, recommended, scheduled []meeting.RawCourseRecord) Plan {
	p := Plan{
		Recommendations: make([]Entry, 0, len(recommended)),
		Scheduled:       make([]Entry, 0, len(scheduled)),
	}
	for _, r := range recommended {
		p.Recommendations = append(p.Recommendations, NewEntry(b, r))
	}
	for _, r := range scheduled {
		p.Scheduled = append(p.Scheduled, NewEntry(b, r))
	}
	return p.keyed()
}

// Records returns the raw records of both lists, in order.
func (p Plan) Records() (recommended, scheduled []meeting.RawCourseRecord) {
	recommended = make([]meeting.RawCourseRecord, 0, len(p.Recommendations))
	for _, e := range p.Recommendations {
		recommended = append(recommended, e.Record)
	}
	scheduled = make([]meeting.RawCourseRecord, 0, len(p.Scheduled))
	for _, e := range p.Scheduled {
		scheduled = append(scheduled, e.Record)
	}
	return recommended, scheduled
}

// RecommendOutcome says what happened to each incoming entry. Added holds
// the keys the new entries ended up with. Duplicates holds entries whose
// record is already in the plan word for word; nothing else is skipped.
type RecommendOutcome struct {
	Added      []meeting.SectionKey
	Duplicates []meeting.SectionKey
}

// Recommend appends entries to the recommendations. Records that differ but
// name the same course and section type are all kept: the plan gives each a
// Section telling it apart (see keyed).
func (p Plan) Recommend(entries ...Entry) (Plan, RecommendOutcome) {
	next := p.clone()
	var out RecommendOutcome
	var added []int
	for _, e := range entries {
		if next.contains(e.Record) {
			out.Duplicates = append(out.Duplicates, e.baseKey())
			continue
		}
		added = append(added, len(next.Recommendations))
		next.Recommendations = append(next.Recommendations, e.withKey(e.baseKey()))
	}
	next = next.keyed()
	for _, i := range added {
		out.Added = append(out.Added, next.Recommendations[i].Key)
	}
	return next, out
}

func (p Plan) contains(record meeting.RawCourseRecord) bool {
	for _, list := range [][]Entry{p.Recommendations, p.Scheduled} {
		for _, e := range list {
			if maps.Equal(e.Record, record) {
				return true
			}
		}
	}
	return false
}

// Drop tries to place a recommended course by dragging it onto day at hour.
// An accepted drop moves the entry to the schedule. A rejected drop returns
// p unchanged.
func (p Plan) Drop(key meeting.SectionKey, day meeting.Weekday, hour int) (Plan, grid.PlacementDecision, error) {
	i := indexOf(p.Recommendations, key)
	if i < 0 {
		if indexOf(p.Scheduled, key) >= 0 {
			return p, grid.PlacementDecision{Allowed: false, Reason: grid.ReasonScheduled}, nil
		}
		return p, grid.PlacementDecision{}, ErrEntryNotFound
	}
	decision := grid.ValidateDrop(p.Recommendations[i].Patterns, day, hour)
	if !decision.Allowed {
		return p, decision, nil
	}
	return p.move(i), decision, nil
}

// Schedule moves a recommendation to the schedule without a drop target.
// Scheduling an entry that is already scheduled is a no-op.
func (p Plan) Schedule(key meeting.SectionKey) (Plan, error) {
	if indexOf(p.Scheduled, key) >= 0 {
		return p, nil
	}
	i := indexOf(p.Recommendations, key)
	if i < 0 {
		return p, ErrEntryNotFound
	}
	return p.move(i), nil
}

// Unschedule moves a scheduled entry back to the recommendations.
func (p Plan) Unschedule(key meeting.SectionKey) (Plan, error) {
	i := indexOf(p.Scheduled, key)
	if i < 0 {
		return p, ErrEntryNotFound
	}
	next := p.clone()
	e := next.Scheduled[i]
	next.Scheduled = append(next.Scheduled[:i], next.Scheduled[i+1:]...)
	next.Recommendations = append(next.Recommendations, e)
	return next.keyed(), nil
}

// Dismiss removes a recommendation.
func (p Plan) Dismiss(key meeting.SectionKey) (Plan, error) {
	i := indexOf(p.Recommendations, key)
	if i < 0 {
		return p, ErrEntryNotFound
	}
	next := p.clone()
	next.Recommendations = append(next.Recommendations[:i], next.Recommendations[i+1:]...)
	return next.keyed(), nil
}

// Remove deletes the entry from whichever list holds it.
func (p Plan) Remove(key meeting.SectionKey) (Plan, error) {
	if i := indexOf(p.Scheduled, key); i >= 0 {
		next := p.clone()
		next.Scheduled = append(next.Scheduled[:i], next.Scheduled[i+1:]...)
		return next.keyed(), nil
	}
	return p.Dismiss(key)
}

// Find returns the entry for key and whether it is scheduled.
func (p Plan) Find(key meeting.SectionKey) (Entry, bool, bool) {
	if i := indexOf(p.Scheduled, key); i >= 0 {
		return p.Scheduled[i], true, true
	}
	if i := indexOf(p.Recommendations, key); i >= 0 {
		return p.Recommendations[i], false, true
	}
	return Entry{}, false, false
}

// Patterns flattens the patterns of the scheduled entries.
func (p Plan) Patterns() []meeting.MeetingPattern {
	var out []meeting.MeetingPattern
	for _, e := range p.Scheduled {
		out = append(out, e.Patterns...)
	}
	return out
}

// Calendar lays out the scheduled entries.
func (p Plan) Calendar(axis grid.TimeAxis, palette grid.Palette) (grid.Calendar, error) {
	return grid.LayoutCalendar(p.Patterns(), axis, palette)
}

// Conflicts lists pairs of scheduled patterns from different sections that
// overlap in time.
func (p Plan) Conflicts() [][2]meeting.MeetingPattern {
	patterns := p.Patterns()
	var out [][2]meeting.MeetingPattern
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			a, b := patterns[i], patterns[j]
			if a.Key() != b.Key() && a.Overlaps(b) {
				out = append(out, [2]meeting.MeetingPattern{a, b})
			}
		}
	}
	return out
}

func (p Plan) move(i int) Plan {
	next := p.clone()
	e := next.Recommendations[i]
	next.Recommendations = append(next.Recommendations[:i], next.Recommendations[i+1:]...)
	next.Scheduled = append(next.Scheduled, e)
	return next.keyed()
}

func (p Plan) clone() Plan {
	return Plan{
		Recommendations: append([]Entry(nil), p.Recommendations...),
		Scheduled:       append([]Entry(nil), p.Scheduled...),
	}
}

// keyed gives every entry a key no other entry of the plan shares. Entries
// whose own key is unique keep it. Entries that share one get a Section
// built from when they meet ("Mon/Wed 13:00-14:15"), then from where, then
// a running number. Keys depend only on the records, so a rebuilt plan gets
// the same keys back.
func (p Plan) keyed() Plan {
	next := p.clone()
	lists := [][]Entry{next.Recommendations, next.Scheduled}

	type ref struct{ list, i int }
	groups := make(map[meeting.SectionKey][]ref)
	var order []meeting.SectionKey
	for li, list := range lists {
		for i, e := range list {
			b := e.baseKey()
			if _, ok := groups[b]; !ok {
				order = append(order, b)
			}
			groups[b] = append(groups[b], ref{li, i})
		}
	}

	for _, b := range order {
		members := groups[b]
		if len(members) == 1 {
			r := members[0]
			lists[r.list][r.i] = lists[r.list][r.i].withKey(b)
			continue
		}
		labels := make([]string, len(members))
		for k, r := range members {
			labels[k] = meeting.Signature(lists[r.list][r.i].primary())
		}
		refine(labels, func(k int) string {
			r := members[k]
			if loc := lists[r.list][r.i].location(); loc != "" {
				return labels[k] + " @ " + loc
			}
			return labels[k]
		})
		refine(labels, func(k int) string {
			return fmt.Sprintf("%s #%d", labels[k], k+1)
		})
		for k, r := range members {
			key := b
			if key.Section != "" {
				key.Section += " " + labels[k]
			} else {
				key.Section = labels[k]
			}
			lists[r.list][r.i] = lists[r.list][r.i].withKey(key)
		}
	}
	return next
}

// refine replaces every label that is not unique with more(i).
func refine(labels []string, more func(i int) string) {
	count := make(map[string]int, len(labels))
	for _, l := range labels {
		count[l]++
	}
	next := make([]string, len(labels))
	for i, l := range labels {
		next[i] = l
		if count[l] > 1 {
			next[i] = more(i)
		}
	}
	copy(labels, next)
}

func indexOf(entries []Entry, key meeting.SectionKey) int {
	for i, e := range entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}
