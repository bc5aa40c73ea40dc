// Package meeting turns loosely structured course records into canonical
// meeting patterns.
//
// A record is whatever a source sent: "Days & Times": "MWF 01:20PM-02:25PM"
// from the recommender, separate "days" and "times" fields from the catalog,
// or nested meetingInformation objects. The Builder tries a fixed list of key
// variants, lexes the day code, parses the time range and emits one Scheduled
// pattern per weekday. Anything it cannot read degrades to a single
// Asynchronous pattern plus an Issue, so a bad record never hides a course.
//
// Everything here is pure and safe for concurrent use.
package meeting
