package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/internal/catalog"
	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/pkg/recommender"
)

// ── Mock Recommender ──

type mockRecommender struct {
	reply      *recommender.ChatReply
	analysis   *recommender.TranscriptAnalysis
	err        error
	calls      int
	lastUpload string
}

func (m *mockRecommender) Chat(_ context.Context, _ string) (*recommender.ChatReply, error) {
	m.calls++
	return m.reply, m.err
}

func (m *mockRecommender) UploadTranscript(_ context.Context, filename string, content io.Reader) (*recommender.TranscriptAnalysis, error) {
	m.calls++
	data, _ := io.ReadAll(content)
	m.lastUpload = filename + ":" + string(data)
	return m.analysis, m.err
}

// ── Mock CatalogReader ──

type mockCatalog struct {
	sections []catalog.Section
	err      error
	lastQ    catalog.Query
}

func (m *mockCatalog) QuerySections(_ context.Context, q catalog.Query) ([]catalog.Section, error) {
	m.lastQ = q
	return m.sections, m.err
}

func setupTestImportService(rec Recommender, cat CatalogReader) (ImportService, *mockPlanRepo) {
	repo, planRepo := newMockRepository()
	plans := NewPlanService(repo, DefaultEngine(), zap.NewNop())
	planRepo.seed(testPlanID, testStudent, nil, nil)
	return NewImportService(plans, rec, cat, time.UTC, zap.NewNop()), planRepo
}

// ── Chat ──

func TestImportService_Chat(t *testing.T) {
	rec := &mockRecommender{reply: &recommender.ChatReply{
		Response: "Try these",
		Courses:  []meeting.RawCourseRecord{cse101Record(), math19aRecord()},
	}}
	svc, planRepo := setupTestImportService(rec, nil)

	resp, err := svc.Chat(context.Background(), testStudent, testPlanID, &dto.ChatSourceRequest{Message: "what next?"})
	if err != nil {
		t.Fatalf("Chat should succeed: %v", err)
	}
	if resp.Reply != "Try these" || resp.Added != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if len(planRepo.plans[testPlanID].Recommendations) != 2 {
		t.Error("records not stored")
	}
}

func TestImportService_Chat_NoCourses(t *testing.T) {
	rec := &mockRecommender{reply: &recommender.ChatReply{Response: "Hello!"}}
	svc, planRepo := setupTestImportService(rec, nil)

	resp, err := svc.Chat(context.Background(), testStudent, testPlanID, &dto.ChatSourceRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Chat should succeed: %v", err)
	}
	if resp.Added != 0 || resp.Plan == nil || planRepo.updates != 0 {
		t.Errorf("resp = %+v updates=%d", resp, planRepo.updates)
	}
}

func TestImportService_Chat_BackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", fmt.Errorf("%w: status 502", recommender.ErrUnavailable), ErrSourceUnavailable},
		{"rejected", fmt.Errorf("%w: bad input", recommender.ErrRejected), ErrSourceRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupTestImportService(&mockRecommender{err: tt.err}, nil)
			_, err := svc.Chat(context.Background(), testStudent, testPlanID, &dto.ChatSourceRequest{Message: "hi"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestImportService_ChecksOwnerBeforeCallingBackend(t *testing.T) {
	rec := &mockRecommender{reply: &recommender.ChatReply{}}
	svc, _ := setupTestImportService(rec, nil)

	_, err := svc.Chat(context.Background(), "intruder", testPlanID, &dto.ChatSourceRequest{Message: "hi"})
	if !errors.Is(err, ErrPlanNotOwner) {
		t.Errorf("expected ErrPlanNotOwner, got %v", err)
	}
	if rec.calls != 0 {
		t.Error("backend should not be called for a foreign plan")
	}
}

// ── Transcript ──

func TestImportService_Transcript(t *testing.T) {
	rec := &mockRecommender{analysis: &recommender.TranscriptAnalysis{
		Major:              "CS",
		RecommendedCourses: []meeting.RawCourseRecord{cse101Record()},
	}}
	svc, _ := setupTestImportService(rec, nil)

	resp, err := svc.Transcript(context.Background(), testStudent, testPlanID, "t.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Transcript should succeed: %v", err)
	}
	if resp.Added != 1 || resp.Transcript == nil || resp.Transcript.Major != "CS" {
		t.Errorf("resp = %+v", resp)
	}
	if rec.lastUpload != "t.pdf:%PDF" {
		t.Errorf("upload = %q", rec.lastUpload)
	}
}

// ── Catalog ──

func TestImportService_Catalog(t *testing.T) {
	cat := &mockCatalog{sections: []catalog.Section{{
		CoursePrefix: "cse", CourseNumber: "101", Term: "2248",
		Days: "Monday, Wednesday, Friday", Times: "13:20 - 14:25",
		Location: "Eng2 192", ActivityType: "Lecture",
	}}}
	svc, _ := setupTestImportService(&mockRecommender{}, cat)

	resp, err := svc.Catalog(context.Background(), testStudent, testPlanID, &dto.CatalogSourceRequest{Term: "2248", CoursePrefix: "CSE"})
	if err != nil {
		t.Fatalf("Catalog should succeed: %v", err)
	}
	if resp.Added != 1 || len(resp.Plan.Recommendations[0].Patterns) != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if cat.lastQ.CoursePrefix != "CSE" || cat.lastQ.Term != "2248" {
		t.Errorf("query = %+v", cat.lastQ)
	}
}

func TestImportService_Catalog_Errors(t *testing.T) {
	svc, _ := setupTestImportService(&mockRecommender{}, nil)
	_, err := svc.Catalog(context.Background(), testStudent, testPlanID, &dto.CatalogSourceRequest{Term: "2248", CoursePrefix: "CSE"})
	if !errors.Is(err, ErrCatalogDisabled) {
		t.Errorf("expected ErrCatalogDisabled, got %v", err)
	}

	svc, _ = setupTestImportService(&mockRecommender{}, &mockCatalog{})
	_, err = svc.Catalog(context.Background(), testStudent, testPlanID, &dto.CatalogSourceRequest{Term: "2248", CoursePrefix: "CSE"})
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}

	svc, _ = setupTestImportService(&mockRecommender{}, &mockCatalog{err: errors.New("deadline exceeded")})
	_, err = svc.Catalog(context.Background(), testStudent, testPlanID, &dto.CatalogSourceRequest{Term: "2248", CoursePrefix: "CSE"})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

// ── ICS ──

func TestImportService_ICS(t *testing.T) {
	svc, planRepo := setupTestImportService(&mockRecommender{}, nil)

	resp, err := svc.ICS(context.Background(), testStudent, testPlanID, strings.NewReader(icsCalendar(icsWeeklyMWF)))
	if err != nil {
		t.Fatalf("ICS should succeed: %v", err)
	}
	if resp.Added != 1 || len(resp.Issues) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if planRepo.plans[testPlanID].Recommendations[0]["source"] != "ics" {
		t.Error("stored record should keep its source")
	}

	_, err = svc.ICS(context.Background(), testStudent, testPlanID, strings.NewReader(icsCalendar(icsAllDay)))
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestImportService_ICSFromURL(t *testing.T) {
	svc, _ := setupTestImportService(&mockRecommender{}, nil)
	impl := svc.(*importService)

	var fetched string
	impl.fetch = func(_ context.Context, url string) (io.ReadCloser, error) {
		fetched = url
		return io.NopCloser(strings.NewReader(icsCalendar(icsTuesday, icsThursday))), nil
	}
	resp, err := svc.ICSFromURL(context.Background(), testStudent, testPlanID, "webcal://example.edu/classes.ics")
	if err != nil {
		t.Fatalf("ICSFromURL should succeed: %v", err)
	}
	if fetched != "webcal://example.edu/classes.ics" || resp.Added != 1 {
		t.Errorf("fetched=%q resp=%+v", fetched, resp)
	}

	impl.fetch = func(context.Context, string) (io.ReadCloser, error) {
		return nil, errors.New("fetch ics: HTTP 404")
	}
	_, err = svc.ICSFromURL(context.Background(), testStudent, testPlanID, "https://example.edu/missing.ics")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
