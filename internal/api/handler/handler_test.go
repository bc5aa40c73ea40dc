package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/internal/api/middleware"
	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/model"
	"github.com/ashtonliu88/SlugScheduler/internal/planner"
	"github.com/ashtonliu88/SlugScheduler/internal/service"
	pkgerrors "github.com/ashtonliu88/SlugScheduler/pkg/errors"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock SessionService ──

type mockSessionService struct {
	result *dto.SessionResponse
	err    error
}

func (m *mockSessionService) Create(_ context.Context) (*dto.SessionResponse, error) {
	return m.result, m.err
}

// ── Mock PlanService ──

type mockPlanService struct {
	plan     *dto.PlanResponse
	list     []dto.PlanSummary
	drop     *dto.DropResponse
	calendar *dto.CalendarResponse
	err      error

	lastStudent string
	lastRef     dto.CourseRef
	lastDrop    *dto.DropRequest
	lastAxis    *dto.AxisRequest
}

func (m *mockPlanService) Create(_ context.Context, studentID string, _ *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	m.lastStudent = studentID
	return m.plan, m.err
}
func (m *mockPlanService) List(_ context.Context, studentID string) ([]dto.PlanSummary, error) {
	m.lastStudent = studentID
	return m.list, m.err
}
func (m *mockPlanService) Get(_ context.Context, studentID, _ string) (*dto.PlanResponse, error) {
	m.lastStudent = studentID
	return m.plan, m.err
}
func (m *mockPlanService) Delete(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockPlanService) AddRecommendations(_ context.Context, _, _ string, records []meeting.RawCourseRecord, _ *int) (*dto.RecommendResponse, error) {
	return &dto.RecommendResponse{Added: len(records), Plan: m.plan}, m.err
}
func (m *mockPlanService) Dismiss(_ context.Context, _, _ string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	m.lastRef = ref
	return m.plan, m.err
}
func (m *mockPlanService) Drop(_ context.Context, _, _ string, req *dto.DropRequest) (*dto.DropResponse, error) {
	m.lastDrop = req
	return m.drop, m.err
}
func (m *mockPlanService) Schedule(_ context.Context, _, _ string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	m.lastRef = ref
	return m.plan, m.err
}
func (m *mockPlanService) Unschedule(_ context.Context, _, _ string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	m.lastRef = ref
	return m.plan, m.err
}
func (m *mockPlanService) Calendar(_ context.Context, _, _ string, axis *dto.AxisRequest) (*dto.CalendarResponse, error) {
	m.lastAxis = axis
	return m.calendar, m.err
}
func (m *mockPlanService) Working(_ context.Context, _, _ string) (*model.Plan, planner.Plan, error) {
	return nil, planner.Plan{}, m.err
}

// ── Mock ImportService ──

type mockImportService struct {
	result       *dto.SourceResponse
	err          error
	lastFilename string
	lastURL      string
	icsBody      string
}

func (m *mockImportService) Chat(_ context.Context, _, _ string, _ *dto.ChatSourceRequest) (*dto.SourceResponse, error) {
	return m.result, m.err
}
func (m *mockImportService) Transcript(_ context.Context, _, _, filename string, _ io.Reader) (*dto.SourceResponse, error) {
	m.lastFilename = filename
	return m.result, m.err
}
func (m *mockImportService) Catalog(_ context.Context, _, _ string, _ *dto.CatalogSourceRequest) (*dto.SourceResponse, error) {
	return m.result, m.err
}
func (m *mockImportService) ICS(_ context.Context, _, _ string, content io.Reader) (*dto.SourceResponse, error) {
	data, _ := io.ReadAll(content)
	m.icsBody = string(data)
	return m.result, m.err
}
func (m *mockImportService) ICSFromURL(_ context.Context, _, _, url string) (*dto.SourceResponse, error) {
	m.lastURL = url
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf       *bytes.Buffer
	filename  string
	err       error
	lastWeeks int
}

func (m *mockExportService) ExportXLSX(_ context.Context, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportICS(_ context.Context, _, _, _ string, weeks int) (*bytes.Buffer, string, error) {
	m.lastWeeks = weeks
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const testStudent = "student-1"

// newRouter returns an engine that injects the student like JWTAuth would.
func newRouter(authed bool) *gin.Engine {
	r := gin.New()
	if authed {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyStudentID, testStudent)
			c.Next()
		})
	}
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func doJSON(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func samplePlan() *dto.PlanResponse {
	return &dto.PlanResponse{ID: "p1", Name: "Fall", Version: 1,
		Recommendations: []planner.Entry{}, Scheduled: []planner.Entry{}}
}

// ═══════════════════════════════════════════════════════════
// SessionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSessionHandler_CreateSession(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{result: &dto.SessionResponse{Token: "tok", StudentID: "s", ExpiresIn: 60}})
	r := newRouter(false)
	r.POST("/sessions", h.CreateSession)

	w := doJSON(r, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PatternHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPatternHandler_ValidatePlacement(t *testing.T) {
	h := NewPatternHandler(service.NewPatternService(service.DefaultEngine(), zap.NewNop()))
	r := newRouter(false)
	r.POST("/placements/validate", h.ValidatePlacement)

	body := `{"record":{"Class Code":"CSE101","Days & Times":"MWF 01:20PM-02:25PM"},"weekday":"Wed","hour":14}`
	w := doJSON(r, http.MethodPost, "/placements/validate", bytes.NewBufferString(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Data dto.ValidatePlacementResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Data.Allowed || len(out.Data.Patterns) != 3 {
		t.Errorf("decision = %+v", out.Data)
	}
}

func TestPatternHandler_BadRequests(t *testing.T) {
	h := NewPatternHandler(service.NewPatternService(service.DefaultEngine(), zap.NewNop()))
	r := newRouter(false)
	r.POST("/patterns", h.BuildPatterns)
	r.POST("/layout", h.Layout)
	r.POST("/placements/validate", h.ValidatePlacement)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"empty records", "/patterns", `{"records":[]}`, 10001},
		{"bad weekday", "/placements/validate", `{"record":{"Class Code":"X"},"weekday":"Funday","hour":9}`, 10001},
		{"missing hour", "/placements/validate", `{"record":{"Class Code":"X"},"weekday":"Mon"}`, 10001},
		{"bad axis", "/layout", `{"records":[{"Class Code":"X"}],"axis":{"start_hour":10,"end_hour":9}}`, 12001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// PlanHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPlanHandler_RequiresSession(t *testing.T) {
	h := NewPlanHandler(&mockPlanService{})
	r := newRouter(false)
	r.GET("/plans", h.ListPlans)

	w := doJSON(r, http.MethodGet, "/plans", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPlanHandler_CreatePlan(t *testing.T) {
	mock := &mockPlanService{plan: samplePlan()}
	h := NewPlanHandler(mock)
	r := newRouter(true)
	r.POST("/plans", h.CreatePlan)

	w := doJSON(r, http.MethodPost, "/plans", jsonBody(dto.CreatePlanRequest{Name: "Fall"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if mock.lastStudent != testStudent {
		t.Errorf("student = %q", mock.lastStudent)
	}

	w = doJSON(r, http.MethodPost, "/plans", jsonBody(dto.CreatePlanRequest{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", w.Code)
	}
}

func TestPlanHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"not found", service.ErrPlanNotFound, http.StatusNotFound, 13001},
		{"not owner", service.ErrPlanNotOwner, http.StatusForbidden, 13002},
		{"course missing", service.ErrCourseNotInPlan, http.StatusNotFound, 13003},
		{"stale version", pkgerrors.ErrOptimisticLock, http.StatusConflict, 13004},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPlanHandler(&mockPlanService{err: tt.err})
			r := newRouter(true)
			r.GET("/plans/:id", h.GetPlan)

			w := doJSON(r, http.MethodGet, "/plans/p1", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestPlanHandler_Drop(t *testing.T) {
	mock := &mockPlanService{drop: &dto.DropResponse{
		Decision: grid.PlacementDecision{Allowed: false, Reason: grid.ReasonWrongSlot},
		Plan:     samplePlan(),
	}}
	h := NewPlanHandler(mock)
	r := newRouter(true)
	r.POST("/plans/:id/drop", h.Drop)

	body := `{"course_id":"CSE101","weekday":"2","hour":9,"version":1}`
	w := doJSON(r, http.MethodPost, "/plans/p1/drop", bytes.NewBufferString(body))
	if w.Code != http.StatusOK {
		t.Fatalf("rejected drop should still be 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.lastDrop.Weekday != meeting.Tuesday || *mock.lastDrop.Hour != 9 || *mock.lastDrop.Version != 1 {
		t.Errorf("request = %+v", mock.lastDrop)
	}
	if mock.lastDrop.Key() != (meeting.SectionKey{CourseID: "CSE101", SectionType: meeting.DefaultSectionType}) {
		t.Errorf("key = %+v", mock.lastDrop.Key())
	}

	w = doJSON(r, http.MethodPost, "/plans/p1/drop", bytes.NewBufferString(`{"course_id":"CSE101","weekday":"Mon","hour":24}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("hour 24: expected 400, got %d", w.Code)
	}
}

func TestPlanHandler_CourseInPath(t *testing.T) {
	mock := &mockPlanService{plan: samplePlan()}
	h := NewPlanHandler(mock)
	r := newRouter(true)
	r.DELETE("/plans/:id/recommendations/:course", h.DismissRecommendation)
	r.DELETE("/plans/:id/schedule/:course", h.Unschedule)

	w := doJSON(r, http.MethodDelete, "/plans/p1/recommendations/CSE101?section=Lab&version=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastRef.Key() != (meeting.SectionKey{CourseID: "CSE101", SectionType: "Lab"}) || *mock.lastRef.Version != 3 {
		t.Errorf("ref = %+v", mock.lastRef)
	}

	w = doJSON(r, http.MethodDelete, "/plans/p1/schedule/CSE101?version=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad version: expected 400, got %d", w.Code)
	}
}

func TestPlanHandler_Calendar_AxisQuery(t *testing.T) {
	mock := &mockPlanService{calendar: &dto.CalendarResponse{}}
	h := NewPlanHandler(mock)
	r := newRouter(true)
	r.GET("/plans/:id/calendar", h.Calendar)

	w := doJSON(r, http.MethodGet, "/plans/p1/calendar?start_hour=9&end_hour=18", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastAxis == nil || mock.lastAxis.StartHour == nil || *mock.lastAxis.StartHour != 9 || mock.lastAxis.RowHeightPx != nil {
		t.Errorf("axis = %+v", mock.lastAxis)
	}
}

// ═══════════════════════════════════════════════════════════
// SourceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSourceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"unavailable", service.ErrSourceUnavailable, http.StatusBadGateway, 14001},
		{"rejected", service.ErrSourceRejected, http.StatusUnprocessableEntity, 14002},
		{"catalog off", service.ErrCatalogDisabled, http.StatusServiceUnavailable, 14003},
		{"plan missing", service.ErrPlanNotFound, http.StatusNotFound, 13001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSourceHandler(&mockImportService{err: tt.err})
			r := newRouter(true)
			r.POST("/plans/:id/sources/chat", h.Chat)

			w := doJSON(r, http.MethodPost, "/plans/p1/sources/chat", jsonBody(dto.ChatSourceRequest{Message: "hi"}))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestSourceHandler_Transcript(t *testing.T) {
	mock := &mockImportService{result: &dto.SourceResponse{}}
	h := NewSourceHandler(mock)
	r := newRouter(true)
	r.POST("/plans/:id/sources/transcript", h.Transcript)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "transcript.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plans/p1/sources/transcript", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastFilename != "transcript.pdf" {
		t.Errorf("filename = %q", mock.lastFilename)
	}

	w = doJSON(r, http.MethodPost, "/plans/p1/sources/transcript", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no file: expected 400, got %d", w.Code)
	}
}

func TestSourceHandler_ICS(t *testing.T) {
	mock := &mockImportService{result: &dto.SourceResponse{}}
	h := NewSourceHandler(mock)
	r := newRouter(true)
	r.POST("/plans/:id/sources/ics", h.ICS)

	// url form
	w := doJSON(r, http.MethodPost, "/plans/p1/sources/ics", jsonBody(dto.ICSSourceRequest{URL: "https://example.edu/c.ics"}))
	if w.Code != http.StatusOK || mock.lastURL != "https://example.edu/c.ics" {
		t.Fatalf("url import: %d %q", w.Code, mock.lastURL)
	}

	// file form
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "classes.ics")
	part.Write([]byte("BEGIN:VCALENDAR"))
	mw.Close()
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plans/p1/sources/ics", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || mock.icsBody != "BEGIN:VCALENDAR" {
		t.Fatalf("file import: %d %q", w.Code, mock.icsBody)
	}

	// neither
	w = doJSON(r, http.MethodPost, "/plans/p1/sources/ics", bytes.NewBufferString(`{}`))
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != 14006 {
		t.Errorf("empty import: %d %d", w.Code, parseResponse(w).Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportXLSX(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("PK..."), filename: "Fall.xlsx"})
	r := newRouter(true)
	r.GET("/plans/:id/export.xlsx", h.ExportXLSX)

	w := doJSON(r, http.MethodGet, "/plans/p1/export.xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''Fall.xlsx" {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestExportHandler_ExportICS(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "Fall.ics"}
	h := NewExportHandler(mock)
	r := newRouter(true)
	r.GET("/plans/:id/export.ics", h.ExportICS)

	w := doJSON(r, http.MethodGet, "/plans/p1/export.ics?term_start=2024-09-26&weeks=11", nil)
	if w.Code != http.StatusOK || mock.lastWeeks != 11 {
		t.Fatalf("expected 200 with weeks 11, got %d %d", w.Code, mock.lastWeeks)
	}

	w = doJSON(r, http.MethodGet, "/plans/p1/export.ics", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing term_start: expected 400, got %d", w.Code)
	}

	mock.err = service.ErrExportNothingScheduled
	w = doJSON(r, http.MethodGet, "/plans/p1/export.ics?term_start=2024-09-26", nil)
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != 15001 {
		t.Errorf("nothing scheduled: %d %d", w.Code, parseResponse(w).Code)
	}
}
