// Package catalog reads course sections from the Firestore course catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ErrSectionNotFound is returned by GetSection for a missing document.
var ErrSectionNotFound = errors.New("catalog section not found")

// Section is one section document under
// courses/{course_prefix}/numbers/{course_number}/sections/{section_address}.
type Section struct {
	SectionAddress string `firestore:"section_address" json:"section_address"`
	CoursePrefix   string `firestore:"course_prefix"   json:"course_prefix"`
	CourseNumber   string `firestore:"course_number"   json:"course_number"`
	Section        string `firestore:"section"         json:"section"`
	Term           string `firestore:"term"            json:"term"`
	ClassNumber    string `firestore:"class_number"    json:"class_number"`
	Title          string `firestore:"title"           json:"title"`
	Instructors    string `firestore:"instructors"     json:"instructors"`
	Days           string `firestore:"days"            json:"days"`      // "Monday, Wednesday"
	Times          string `firestore:"times"           json:"times"`     // "13:00 - 14:15"
	Times12h       string `firestore:"times_12h"       json:"times_12h"` // "1:00pm - 2:15pm"
	Location       string `firestore:"location"        json:"location"`
	ActivityType   string `firestore:"activity_type"   json:"activity_type"`
}

// CourseID is the display code, prefix plus number ("CSE101").
func (s Section) CourseID() string {
	return strings.ToUpper(strings.TrimSpace(s.CoursePrefix)) + strings.ToUpper(strings.TrimSpace(s.CourseNumber))
}

// ToRecord converts the section into a raw course record the pattern
// builder reads through its split day and time fields.
func (s Section) ToRecord() meeting.RawCourseRecord {
	r := meeting.RawCourseRecord{
		"Class Code":      s.CourseID(),
		"section_address": s.SectionAddress,
		"section":         strings.TrimSpace(s.Section),
		"term":            s.Term,
	}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			r[k] = v
		}
	}
	set("Class Name", s.Title)
	set("Class Type", s.ActivityType)
	set("instructors", s.Instructors)
	set("class_number", s.ClassNumber)
	set("Location", s.Location)

	times := s.Times
	if strings.TrimSpace(times) == "" {
		times = s.Times12h
	}
	set("days", s.Days)
	set("time", times)
	return r
}

// Query selects sections of one term.
type Query struct {
	Term         string
	CoursePrefix string
	CourseNumber string
	Limit        int
}

func (q Query) normalized() Query {
	return Query{
		Term:         strings.ToLower(strings.TrimSpace(q.Term)),
		CoursePrefix: strings.ToLower(strings.TrimSpace(q.CoursePrefix)),
		CourseNumber: strings.ToLower(strings.TrimSpace(q.CourseNumber)),
		Limit:        q.Limit,
	}
}

// Firestore wraps the Firestore client.
type Firestore struct {
	*firestore.Client
}

// NewFirestore opens the catalog with a service account key file. An empty
// path uses application default credentials.
func NewFirestore(ctx context.Context, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
	}
	return &Firestore{Client: client}, nil
}

func (c *Firestore) sectionsCollection(prefix, number string) *firestore.CollectionRef {
	return c.Collection("courses").
		Doc(prefix).
		Collection("numbers").
		Doc(number).
		Collection("sections")
}

// QuerySections lists the sections matching q. Term and prefix are required.
func (c *Firestore) QuerySections(ctx context.Context, q Query) ([]Section, error) {
	q = q.normalized()
	if q.Term == "" || q.CoursePrefix == "" {
		return []Section{}, nil
	}

	query := c.CollectionGroup("sections").
		Where("term", "==", q.Term).
		Where("course_prefix", "==", q.CoursePrefix)
	if q.CourseNumber != "" {
		query = query.Where("course_number", "==", q.CourseNumber)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var sections []Section
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				break
			}
			return nil, fmt.Errorf("failed to get next document: %w", err)
		}

		var s Section
		if err := doc.DataTo(&s); err != nil {
			continue
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// GetSection reads one section document.
func (c *Firestore) GetSection(ctx context.Context, prefix, number, sectionAddress string) (*Section, error) {
	doc, err := c.sectionsCollection(strings.ToLower(prefix), strings.ToLower(number)).
		Doc(strings.ToLower(sectionAddress)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}

	var s Section
	if err := doc.DataTo(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
