package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/planner"
)

// ── pattern module errors ──

var (
	ErrInvalidAxis = errors.New("invalid grid axis")
)

// Engine bundles the configured parser and grid settings.
type Engine struct {
	Builder *meeting.Builder
	Axis    grid.TimeAxis
	Palette grid.Palette
}

// NewEngine reads the parser and grid sections of cfg.
func NewEngine(cfg *config.Config) (Engine, error) {
	b, err := cfg.Parser.Builder()
	if err != nil {
		return Engine{}, err
	}
	axis, err := cfg.Grid.Axis()
	if err != nil {
		return Engine{}, err
	}
	return Engine{
		Builder: b,
		Axis:    axis,
		Palette: grid.Palette(cfg.Grid.Palette).OrDefault(),
	}, nil
}

// DefaultEngine uses the built-in parser and grid settings.
func DefaultEngine() Engine {
	return Engine{
		Builder: meeting.NewBuilder(meeting.ThursdayAuto),
		Axis:    grid.DefaultTimeAxis(),
		Palette: grid.DefaultPalette,
	}
}

// axis applies a request override to the configured axis.
func (e Engine) axis(req *dto.AxisRequest) (grid.TimeAxis, error) {
	a := e.Axis
	if req == nil {
		return a, nil
	}
	if req.StartHour != nil {
		a.StartHour = *req.StartHour
	}
	if req.EndHour != nil {
		a.EndHour = *req.EndHour
	}
	if req.RowHeightPx != nil {
		a.RowHeightPx = *req.RowHeightPx
	}
	if err := a.Validate(); err != nil {
		return grid.TimeAxis{}, fmt.Errorf("%w: %v", ErrInvalidAxis, err)
	}
	return a, nil
}

// calendar lays out a plan's schedule and collects its overlaps.
func (e Engine) calendar(p planner.Plan, axis grid.TimeAxis) (*dto.CalendarResponse, error) {
	cal, err := p.Calendar(axis, e.Palette)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAxis, err)
	}
	resp := &dto.CalendarResponse{Calendar: cal}
	for _, entry := range p.Scheduled {
		resp.Issues = append(resp.Issues, entry.Issues...)
	}
	for _, pair := range p.Conflicts() {
		resp.Conflicts = append(resp.Conflicts, dto.Conflict{
			Weekday: pair[0].Weekday,
			A:       pair[0].Key(),
			B:       pair[1].Key(),
		})
	}
	return resp, nil
}

// PatternService runs the parser and layout over posted records without
// touching any stored plan.
type PatternService interface {
	Build(ctx context.Context, req *dto.BuildPatternsRequest) *dto.BuildPatternsResponse
	Layout(ctx context.Context, req *dto.LayoutRequest) (*dto.CalendarResponse, error)
	ValidatePlacement(ctx context.Context, req *dto.ValidatePlacementRequest) *dto.ValidatePlacementResponse
}

type patternService struct {
	engine Engine
	logger *zap.Logger
}

// NewPatternService creates a PatternService.
func NewPatternService(engine Engine, logger *zap.Logger) PatternService {
	return &patternService{engine: engine, logger: logger}
}

// ────────────────────── Build ──────────────────────

func (s *patternService) Build(_ context.Context, req *dto.BuildPatternsRequest) *dto.BuildPatternsResponse {
	results := make([]meeting.BuildResult, 0, len(req.Records))
	issues := 0
	for _, r := range req.Records {
		res := s.engine.Builder.Build(r)
		issues += len(res.Issues)
		results = append(results, res)
	}
	if issues > 0 {
		s.logger.Debug("records built with issues",
			zap.Int("records", len(req.Records)), zap.Int("issues", issues))
	}
	return &dto.BuildPatternsResponse{Results: results}
}

// ────────────────────── Layout ──────────────────────

func (s *patternService) Layout(_ context.Context, req *dto.LayoutRequest) (*dto.CalendarResponse, error) {
	axis, err := s.engine.axis(req.Axis)
	if err != nil {
		return nil, err
	}

	p := planner.Rebuild(s.engine.Builder, nil, req.Records)
	return s.engine.calendar(p, axis)
}

// ────────────────────── ValidatePlacement ──────────────────────

func (s *patternService) ValidatePlacement(_ context.Context, req *dto.ValidatePlacementRequest) *dto.ValidatePlacementResponse {
	patterns := s.engine.Builder.BuildPatterns(req.Record)
	hour := 0
	if req.Hour != nil {
		hour = *req.Hour
	}
	return &dto.ValidatePlacementResponse{
		PlacementDecision: grid.ValidateDrop(patterns, req.Weekday, hour),
		Patterns:          patterns,
	}
}
