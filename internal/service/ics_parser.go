package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	ics "github.com/arran4/golang-ical"

	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ── ICS parser ──────────────────────────────────────────────
//
// Turns an iCalendar (RFC 5545) class calendar into raw course records.
//
//   - DTSTART/DTEND give the weekday and the clock range
//   - RRULE BYDAY adds the other meeting days of a weekly event
//   - events with the same summary, range and location merge into one course
//   - records carry split "days"/"time" fields in 24h form
//   - a lab or discussion word in the summary sets the section type
//   - same-course events at different slots get a "section" from their slot
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024
	icsFetchTimeout = 30 * time.Second
)

// parsedCourseEvent is one VEVENT reduced to what a course record needs.
type parsedCourseEvent struct {
	Name      string
	Location  string
	Days      []meeting.Weekday
	StartTime string
	EndTime   string
}

// FetchICSContent downloads a calendar. webcal:// is treated as https://.
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return nil, fmt.Errorf("unsupported calendar url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ics: %w", err)
	}
	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch ics: HTTP %d", resp.StatusCode)
	}
	// Bound the body so a hostile URL cannot exhaust memory.
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICS reads every VEVENT in reader as a course meeting. Times are
// converted to loc before the weekday and clock are taken.
func ParseICS(reader io.Reader, loc *time.Location) ([]meeting.RawCourseRecord, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParseFailed, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	var events []parsedCourseEvent
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp, loc)
		if !ok {
			continue
		}
		events = append(events, evt)
	}

	merged := mergeEvents(events)

	type course struct{ name, sectionType string }
	slots := make(map[course]int, len(merged))
	for _, evt := range merged {
		slots[course{evt.Name, icsSectionType(evt.Name)}]++
	}

	result := make([]meeting.RawCourseRecord, 0, len(merged))
	for _, evt := range merged {
		names := make([]string, 0, len(evt.Days))
		for _, d := range evt.Days {
			names = append(names, d.String())
		}
		r := meeting.RawCourseRecord{
			"Class Code": evt.Name,
			"Class Name": evt.Name,
			"days":       strings.Join(names, ", "),
			"time":       evt.StartTime + " - " + evt.EndTime,
			"source":     "ics",
		}
		if evt.Location != "" {
			r["Location"] = evt.Location
		}
		st := icsSectionType(evt.Name)
		if st != "" {
			r["Class Type"] = st
		}
		if slots[course{evt.Name, st}] > 1 {
			r["section"] = evt.slot()
		}
		result = append(result, r)
	}
	return result, nil
}

func parseVEvent(evt *ics.VEvent, loc *time.Location) (parsedCourseEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedCourseEvent{}, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedCourseEvent{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		durProp := evt.GetProperty(ics.ComponentPropertyDuration)
		if durProp == nil {
			return parsedCourseEvent{}, false
		}
		d, ok := parseICSDuration(durProp.Value)
		if !ok {
			return parsedCourseEvent{}, false
		}
		dtEnd = dtStart.Add(d)
	}
	// Multi-day events are not class meetings.
	if !dtEnd.After(dtStart) || dtEnd.Sub(dtStart) >= 24*time.Hour || dtEnd.YearDay() != dtStart.YearDay() {
		return parsedCourseEvent{}, false
	}

	days := []meeting.Weekday{goWeekdayToISO(dtStart.Weekday())}
	if rruleProp := evt.GetProperty(ics.ComponentPropertyRrule); rruleProp != nil {
		rule := parseRRule(rruleProp.Value)
		if rule.freq == "WEEKLY" {
			days = append(days, rule.byDay...)
		}
	}

	location := ""
	if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
		location = strings.TrimSpace(p.Value)
	}

	return parsedCourseEvent{
		Name:      strings.TrimSpace(summary.Value),
		Location:  location,
		Days:      dedupeDays(days),
		StartTime: dtStart.Format("15:04"),
		EndTime:   dtEnd.Format("15:04"),
	}, true
}

// slot reads like "Mon/Wed 13:00-14:15".
func (e parsedCourseEvent) slot() string {
	days := make([]string, 0, len(e.Days))
	for _, d := range e.Days {
		days = append(days, d.Short())
	}
	return strings.Join(days, "/") + " " + e.StartTime + "-" + e.EndTime
}

var icsSectionWords = map[string]string{
	"lab":        "Lab",
	"laboratory": "Lab",
	"disc":       "Discussion",
	"discussion": "Discussion",
	"sem":        "Seminar",
	"seminar":    "Seminar",
	"tut":        "Tutorial",
	"tutorial":   "Tutorial",
}

// icsSectionType guesses the section type from a summary such as
// "CSE 101 Lab". Summaries without one of the words are left to the builder.
func icsSectionType(summary string) string {
	words := strings.FieldsFunc(strings.ToLower(summary), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if st, ok := icsSectionWords[w]; ok {
			return st
		}
	}
	return ""
}

type rruleParams struct {
	freq  string
	byDay []meeting.Weekday
}

var icsDayCodes = map[string]meeting.Weekday{
	"MO": meeting.Monday,
	"TU": meeting.Tuesday,
	"WE": meeting.Wednesday,
	"TH": meeting.Thursday,
	"FR": meeting.Friday,
	"SA": meeting.Saturday,
	"SU": meeting.Sunday,
}

// parseRRule reads FREQ and BYDAY from an RRULE value such as
// FREQ=WEEKLY;BYDAY=MO,WE,FR;COUNT=30.
func parseRRule(value string) rruleParams {
	var r rruleParams
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "BYDAY":
			for _, code := range strings.Split(kv[1], ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				// Ordinal prefixes ("1MO") only occur in monthly rules.
				if len(code) > 2 {
					code = code[len(code)-2:]
				}
				if d, ok := icsDayCodes[code]; ok {
					r.byDay = append(r.byDay, d)
				}
			}
		}
	}
	return r
}

// parseICSDuration handles the PTnHnM form class calendars use.
func parseICSDuration(v string) (time.Duration, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if !strings.HasPrefix(v, "PT") {
		return 0, false
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(v, "PT")))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// mergeEvents folds events for the same course and slot into one, joining
// their days. Calendars often emit one weekly event per meeting day.
func mergeEvents(events []parsedCourseEvent) []parsedCourseEvent {
	type key struct {
		Name      string
		Location  string
		StartTime string
		EndTime   string
	}
	merged := make(map[key]*parsedCourseEvent)
	order := []key{}

	for _, e := range events {
		k := key{Name: e.Name, Location: e.Location, StartTime: e.StartTime, EndTime: e.EndTime}
		if existing, ok := merged[k]; ok {
			existing.Days = dedupeDays(append(existing.Days, e.Days...))
		} else {
			cp := e
			merged[k] = &cp
			order = append(order, k)
		}
	}

	result := make([]parsedCourseEvent, 0, len(merged))
	for _, k := range order {
		result = append(result, *merged[k])
	}
	return result
}

// ── helpers ──

// goWeekdayToISO maps time.Weekday (0=Sunday) to Monday=1 … Sunday=7.
func goWeekdayToISO(wd time.Weekday) meeting.Weekday {
	if wd == time.Sunday {
		return meeting.Sunday
	}
	return meeting.Weekday(wd)
}

func dedupeDays(days []meeting.Weekday) []meeting.Weekday {
	seen := make(map[meeting.Weekday]bool, len(days))
	out := days[:0:0]
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	// All-day dates have no clock time and never describe a class meeting.
	return time.Time{}, fmt.Errorf("cannot parse date-time %s", val)
}
