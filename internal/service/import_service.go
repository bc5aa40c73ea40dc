package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/internal/catalog"
	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/pkg/recommender"
)

// ── source module errors ──

var (
	ErrSourceUnavailable = errors.New("course source unavailable")
	ErrSourceRejected    = errors.New("course source rejected the request")
	ErrCatalogDisabled   = errors.New("course catalog is not configured")
	ErrICSParseFailed    = errors.New("failed to parse calendar file")
	ErrNoRecords         = errors.New("source returned no course records")
)

// Recommender is the recommendation backend.
type Recommender interface {
	Chat(ctx context.Context, message string) (*recommender.ChatReply, error)
	UploadTranscript(ctx context.Context, filename string, content io.Reader) (*recommender.TranscriptAnalysis, error)
}

// CatalogReader queries the course catalog.
type CatalogReader interface {
	QuerySections(ctx context.Context, q catalog.Query) ([]catalog.Section, error)
}

// ImportService pulls raw course records from a source and adds them to a
// plan's recommendations.
//
// Sources:
//   - chat: free-text question to the recommendation backend
//   - transcript: uploaded transcript, analysed by the same backend
//   - catalog: Firestore course catalog
//   - ics: an iCalendar file or URL exported from a class schedule
type ImportService interface {
	Chat(ctx context.Context, studentID, planID string, req *dto.ChatSourceRequest) (*dto.SourceResponse, error)
	Transcript(ctx context.Context, studentID, planID, filename string, content io.Reader) (*dto.SourceResponse, error)
	Catalog(ctx context.Context, studentID, planID string, req *dto.CatalogSourceRequest) (*dto.SourceResponse, error)
	ICS(ctx context.Context, studentID, planID string, content io.Reader) (*dto.SourceResponse, error)
	ICSFromURL(ctx context.Context, studentID, planID, url string) (*dto.SourceResponse, error)
}

type importService struct {
	plans       PlanService
	recommender Recommender
	catalog     CatalogReader
	loc         *time.Location
	fetch       func(ctx context.Context, url string) (io.ReadCloser, error)
	logger      *zap.Logger
}

// NewImportService creates an ImportService. A nil catalog disables the
// catalog source. loc is the zone calendar times are read in.
func NewImportService(plans PlanService, rec Recommender, cat CatalogReader, loc *time.Location, logger *zap.Logger) ImportService {
	if loc == nil {
		loc = time.UTC
	}
	return &importService{
		plans:       plans,
		recommender: rec,
		catalog:     cat,
		loc:         loc,
		fetch:       FetchICSContent,
		logger:      logger,
	}
}

// ────────────────────── Chat ──────────────────────

func (s *importService) Chat(ctx context.Context, studentID, planID string, req *dto.ChatSourceRequest) (*dto.SourceResponse, error) {
	if _, _, err := s.plans.Working(ctx, studentID, planID); err != nil {
		return nil, err
	}

	reply, err := s.recommender.Chat(ctx, req.Message)
	if err != nil {
		return nil, s.sourceError("chat", err)
	}

	resp, err := s.add(ctx, studentID, planID, reply.Courses)
	if err != nil {
		return nil, err
	}
	resp.Reply = reply.Response
	return resp, nil
}

// ────────────────────── Transcript ──────────────────────

func (s *importService) Transcript(ctx context.Context, studentID, planID, filename string, content io.Reader) (*dto.SourceResponse, error) {
	if _, _, err := s.plans.Working(ctx, studentID, planID); err != nil {
		return nil, err
	}

	analysis, err := s.recommender.UploadTranscript(ctx, filename, content)
	if err != nil {
		return nil, s.sourceError("transcript", err)
	}

	resp, err := s.add(ctx, studentID, planID, analysis.RecommendedCourses)
	if err != nil {
		return nil, err
	}
	resp.Transcript = analysis
	return resp, nil
}

// ────────────────────── Catalog ──────────────────────

func (s *importService) Catalog(ctx context.Context, studentID, planID string, req *dto.CatalogSourceRequest) (*dto.SourceResponse, error) {
	if s.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	if _, _, err := s.plans.Working(ctx, studentID, planID); err != nil {
		return nil, err
	}

	sections, err := s.catalog.QuerySections(ctx, catalog.Query{
		Term:         req.Term,
		CoursePrefix: req.CoursePrefix,
		CourseNumber: req.CourseNumber,
		Limit:        req.Limit,
	})
	if err != nil {
		s.logger.Error("catalog query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if len(sections) == 0 {
		return nil, ErrNoRecords
	}

	records := make([]meeting.RawCourseRecord, 0, len(sections))
	for _, sec := range sections {
		records = append(records, sec.ToRecord())
	}
	return s.add(ctx, studentID, planID, records)
}

// ────────────────────── ICS ──────────────────────

func (s *importService) ICS(ctx context.Context, studentID, planID string, content io.Reader) (*dto.SourceResponse, error) {
	if _, _, err := s.plans.Working(ctx, studentID, planID); err != nil {
		return nil, err
	}
	return s.importICS(ctx, studentID, planID, io.LimitReader(content, icsMaxFileSize))
}

func (s *importService) ICSFromURL(ctx context.Context, studentID, planID, url string) (*dto.SourceResponse, error) {
	if _, _, err := s.plans.Working(ctx, studentID, planID); err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, url)
	if err != nil {
		s.logger.Warn("calendar download failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer body.Close()

	return s.importICS(ctx, studentID, planID, body)
}

func (s *importService) importICS(ctx context.Context, studentID, planID string, content io.Reader) (*dto.SourceResponse, error) {
	records, err := ParseICS(content, s.loc)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return s.add(ctx, studentID, planID, records)
}

// ── helpers ──

// add appends records to the plan. An empty list leaves the plan as it is.
func (s *importService) add(ctx context.Context, studentID, planID string, records []meeting.RawCourseRecord) (*dto.SourceResponse, error) {
	if len(records) == 0 {
		plan, err := s.plans.Get(ctx, studentID, planID)
		if err != nil {
			return nil, err
		}
		return &dto.SourceResponse{RecommendResponse: dto.RecommendResponse{Plan: plan}}, nil
	}

	rec, err := s.plans.AddRecommendations(ctx, studentID, planID, records, nil)
	if err != nil {
		return nil, err
	}
	return &dto.SourceResponse{RecommendResponse: *rec}, nil
}

func (s *importService) sourceError(source string, err error) error {
	if errors.Is(err, recommender.ErrRejected) {
		return fmt.Errorf("%w: %v", ErrSourceRejected, err)
	}
	s.logger.Error("recommendation backend failed", zap.String("source", source), zap.Error(err))
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
