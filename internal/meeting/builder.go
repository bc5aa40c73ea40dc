package meeting

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// FieldVariants lists, per logical field, the record keys tried in priority
// order. Sources disagree on naming, so every caller shares one list instead
// of guessing its own.
type FieldVariants struct {
	CourseID     []string
	Title        []string
	SectionType  []string
	Section      []string
	DaysAndTimes []string
	Days         []string
	Times        []string
	Location     []string
}

// DefaultFieldVariants covers the recommender payload ("Class Code",
// "Days & Times", "Room"), the catalog documents ("days", "times", "location")
// and the nested meetingInformation shape.
func DefaultFieldVariants() FieldVariants {
	return FieldVariants{
		CourseID:     []string{"Class Code", "Course Code", "course_id", "code", "id", "section_address", "class_number"},
		Title:        []string{"Class Name", "Course Title", "name", "title"},
		SectionType:  []string{"Class Type", "section_type", "activity_type", "type"},
		Section:      []string{"Class Section", "section", "section_number"},
		DaysAndTimes: []string{"Days & Times", "days_and_times", "schedule", "meeting_times"},
		Days:         []string{"days", "day", "meeting_days", "meetingInformation.days"},
		Times:        []string{"time", "times", "meeting_time", "meetingInformation.time", "times_12h"},
		Location:     []string{"Room", "Location", "meeting_location", "meetingInformation.location", "building"},
	}
}

// DefaultSectionType is used when a record does not say what it is.
const DefaultSectionType = "Lecture"

// associatedPrefix holds lab and discussion sections nested in a course.
const associatedPrefix = "associatedSections"

// Builder turns raw records into meeting patterns.
type Builder struct {
	Fields FieldVariants
	Lexer  DayCodeLexer
	// IncludeAssociatedSections emits patterns for nested lab and discussion
	// sections under their own section type.
	IncludeAssociatedSections bool
}

// NewBuilder returns a builder with the default field variants.
func NewBuilder(style ThursdayStyle) *Builder {
	return &Builder{
		Fields:                    DefaultFieldVariants(),
		Lexer:                     DayCodeLexer{Thursday: style},
		IncludeAssociatedSections: true,
	}
}

var defaultBuilder = NewBuilder(ThursdayAuto)

// BuildPatterns runs the default builder and drops the issues.
func BuildPatterns(record RawCourseRecord) []MeetingPattern {
	return defaultBuilder.BuildPatterns(record)
}

// BuildResult is the outcome for one record.
type BuildResult struct {
	CourseID string           `json:"course_id"`
	Title    string           `json:"title,omitempty"`
	Patterns []MeetingPattern `json:"patterns"`
	Issues   []Issue          `json:"issues,omitempty"`
}

// Scheduled returns only the patterns that occupy a grid slot.
func (r BuildResult) Scheduled() []MeetingPattern {
	var out []MeetingPattern
	for _, p := range r.Patterns {
		if p.IsScheduled() {
			out = append(out, p)
		}
	}
	return out
}

// BuildPatterns returns the patterns for record.
func (b *Builder) BuildPatterns(record RawCourseRecord) []MeetingPattern {
	return b.Build(record).Patterns
}

// Build returns every pattern for record along with the problems met on the
// way. It never fails: a record that cannot be read still yields an
// asynchronous pattern so the course stays visible.
func (b *Builder) Build(record RawCourseRecord) BuildResult {
	courseID, _, _ := record.Lookup(b.Fields.CourseID...)
	title, _, _ := record.Lookup(b.Fields.Title...)
	sectionType, _, ok := record.Lookup(b.Fields.SectionType...)
	if !ok {
		sectionType = DefaultSectionType
	}

	section, _, _ := record.Lookup(b.Fields.Section...)

	res := BuildResult{CourseID: courseID, Title: title}
	b.buildSection(&res, record, SectionKey{CourseID: courseID, SectionType: sectionType, Section: section})

	if b.IncludeAssociatedSections {
		for i, sub := range record.Sub(associatedPrefix) {
			subType, _, ok := sub.Lookup(b.Fields.SectionType...)
			if !ok {
				subType = fmt.Sprintf("Section %d", i+1)
			}
			if num, _, ok := sub.Lookup("number", "section"); ok {
				subType += " " + num
			}
			b.buildSection(&res, sub, SectionKey{CourseID: courseID, SectionType: subType})
		}
	}

	for i := range res.Patterns {
		res.Patterns[i].Title = title
	}
	return res
}

func (b *Builder) buildSection(res *BuildResult, record RawCourseRecord, key SectionKey) {
	location, _, _ := record.Lookup(b.Fields.Location...)

	degrade := func(kind IssueKind, field, input string, err error) {
		p := Asynchronous(key, input)
		p.Raw = input
		res.Patterns = append(res.Patterns, p)
		res.Issues = append(res.Issues, Issue{
			Kind:     kind,
			CourseID: key.CourseID,
			Field:    field,
			Input:    input,
			Message:  err.Error(),
		})
	}

	combined, combinedKey, hasCombined := record.Lookup(b.Fields.DaysAndTimes...)
	daysText, daysKey, hasDays := record.Lookup(b.Fields.Days...)
	timeText, timeKey, hasTime := record.Lookup(b.Fields.Times...)

	if !hasCombined && !hasDays && !hasTime {
		res.Patterns = append(res.Patterns, Asynchronous(key, location))
		if !strings.EqualFold(location, OnlineLocation) {
			res.Issues = append(res.Issues, Issue{
				Kind:     IssueUnknownFieldShape,
				CourseID: key.CourseID,
				Field:    "days",
				Input:    location,
				Message:  "no day or time field found",
			})
		}
		return
	}

	var (
		days       []Weekday
		start, end TimeOfDay
		err        error
		field      string
		input      string
	)
	if hasCombined {
		field, input = combinedKey, combined
		days, start, end, err = b.Lexer.ParseMeeting(combined)
	} else {
		field, input = daysKey+"+"+timeKey, strings.TrimSpace(daysText+" "+timeText)
		switch {
		case hasDays && !hasTime && IsPlaceholder(daysText), hasTime && !hasDays && IsPlaceholder(timeText):
			err = ErrNoMeetingTime
		case !hasDays:
			field = timeKey
			err = fmt.Errorf("%w: days missing for %q", ErrUnknownFieldShape, timeText)
		case !hasTime:
			field = daysKey
			err = fmt.Errorf("%w: time missing for %q", ErrUnknownFieldShape, daysText)
		default:
			days, start, end, err = b.Lexer.parseSplit(daysText, timeText)
		}
	}

	switch {
	case errors.Is(err, ErrNoMeetingTime):
		res.Patterns = append(res.Patterns, Asynchronous(key, location))
		return
	case errors.Is(err, ErrUnknownFieldShape):
		degrade(IssueUnknownFieldShape, field, input, err)
		return
	case err != nil:
		degrade(IssueParseError, field, input, err)
		return
	}

	for _, d := range days {
		res.Patterns = append(res.Patterns, Scheduled(key, d, start, end, location))
	}
}

// ParseMeeting parses a combined day-and-time string such as
// "MWF 01:20PM-02:25PM" or "Monday, Wednesday 13:00 - 14:15". The day code
// is everything before the first digit.
func (l DayCodeLexer) ParseMeeting(raw string) ([]Weekday, TimeOfDay, TimeOfDay, error) {
	if IsPlaceholder(raw) {
		return nil, 0, 0, ErrNoMeetingTime
	}
	i := strings.IndexFunc(raw, unicode.IsDigit)
	if i < 0 {
		return nil, 0, 0, &ParseError{Field: "time", Input: raw, Err: fmt.Errorf("%w: no time range", ErrMalformedTime)}
	}
	if strings.TrimSpace(raw[:i]) == "" {
		return nil, 0, 0, &ParseError{Field: "days", Input: raw, Err: fmt.Errorf("%w: no day code", ErrUnknownDayCode)}
	}
	return l.parseSplit(raw[:i], raw[i:])
}

// ParseMeeting parses a combined day-and-time string with the default lexer.
func ParseMeeting(raw string) ([]Weekday, TimeOfDay, TimeOfDay, error) {
	return defaultLexer.ParseMeeting(raw)
}

func (l DayCodeLexer) parseSplit(daysText, timeText string) ([]Weekday, TimeOfDay, TimeOfDay, error) {
	if IsPlaceholder(daysText) || IsPlaceholder(timeText) {
		return nil, 0, 0, ErrNoMeetingTime
	}
	days, err := l.Parse(daysText)
	if err != nil {
		return nil, 0, 0, err
	}
	start, end, err := ParseTimeRange(timeText)
	if err != nil {
		return nil, 0, 0, err
	}
	return days, start, end, nil
}
