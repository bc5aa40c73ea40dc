package meeting

import (
	"errors"
	"fmt"
)

// ── Parse errors ──

var (
	ErrUnknownDayCode = errors.New("unknown day code")
	ErrMalformedTime  = errors.New("malformed time")
	ErrInvalidRange   = errors.New("start time is not before end time")

	// ErrUnknownFieldShape marks a record with a day field but no time field,
	// or the reverse.
	ErrUnknownFieldShape = errors.New("unknown field shape")

	// ErrNoMeetingTime marks placeholder text such as "TBA" or "Online".
	// It is not a failure: callers treat the course as asynchronous.
	ErrNoMeetingTime = errors.New("no fixed meeting time")
)

// ParseError reports which field failed and on what input.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ── Builder issues ──

// IssueKind classifies a problem found while building patterns for a record.
type IssueKind string

const (
	IssueParseError        IssueKind = "parse_error"
	IssueUnknownFieldShape IssueKind = "unknown_field_shape"
)

// Issue is a non-fatal problem recorded while building patterns. The record
// still yields an asynchronous pattern so it stays visible.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	CourseID string    `json:"course_id"`
	Field    string    `json:"field,omitempty"`
	Input    string    `json:"input,omitempty"`
	Message  string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.CourseID, i.Message, i.Kind)
}
