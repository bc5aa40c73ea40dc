package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ErrNotScheduled is returned when laying out a pattern that has no slot.
var ErrNotScheduled = errors.New("pattern has no fixed slot")

// Edge names the axis boundary a cell was clipped against.
type Edge string

const (
	EdgeBeforeStart Edge = "before_start"
	EdgeAfterEnd    Edge = "after_end"
)

// OutOfRangeWarning flags a valid meeting that does not fit the visible
// axis. The cell is still rendered, pinned to the nearest boundary.
type OutOfRangeWarning struct {
	CourseID    string            `json:"course_id"`
	SectionType string            `json:"section_type,omitempty"`
	Section     string            `json:"section,omitempty"`
	Weekday     meeting.Weekday   `json:"weekday"`
	Start       meeting.TimeOfDay `json:"start"`
	End         meeting.TimeOfDay `json:"end"`
	Edges       []Edge            `json:"edges"`
}

func (w OutOfRangeWarning) Error() string {
	return fmt.Sprintf("%s %s %s-%s outside visible hours (%v)", w.CourseID, w.Weekday.Short(), w.Start, w.End, w.Edges)
}

// GridCell is the geometry of one scheduled pattern on the weekly grid.
type GridCell struct {
	CourseID          string             `json:"course_id"`
	SectionType       string             `json:"section_type,omitempty"`
	Section           string             `json:"section,omitempty"`
	Title             string             `json:"title,omitempty"`
	Location          string             `json:"location"`
	Weekday           meeting.Weekday    `json:"weekday"`
	Start             meeting.TimeOfDay  `json:"start"`
	End               meeting.TimeOfDay  `json:"end"`
	Row               int                `json:"row"`
	TopOffsetFraction float64            `json:"top_offset_fraction"`
	TopPx             float64            `json:"top_px"`
	HeightPx          float64            `json:"height_px"`
	Color             int                `json:"color"`
	Lane              int                `json:"lane"`
	Lanes             int                `json:"lanes"`
	Clipped           bool               `json:"clipped"`
	Warning           *OutOfRangeWarning `json:"warning,omitempty"`
}

// Layout places one scheduled pattern on axis, colored from DefaultPalette.
func Layout(p meeting.MeetingPattern, axis TimeAxis) (GridCell, error) {
	if err := axis.Validate(); err != nil {
		return GridCell{}, err
	}
	return layout(p, axis, DefaultPalette)
}

func layout(p meeting.MeetingPattern, axis TimeAxis, palette Palette) (GridCell, error) {
	if !p.IsScheduled() {
		return GridCell{}, fmt.Errorf("%w: %s", ErrNotScheduled, p.Key())
	}

	cell := GridCell{
		CourseID:    p.CourseID,
		SectionType: p.SectionType,
		Section:     p.Section,
		Title:       p.Title,
		Location:    p.Location,
		Weekday:     p.Weekday,
		Start:       p.Start,
		End:         p.End,
		Color:       palette.Index(p.CourseID),
		Lanes:       1,
	}

	lo, hi := float64(axis.StartHour), float64(axis.EndHour)
	start, end := float64(p.Start), float64(p.End)
	rh := axis.RowHeightPx

	var edges []Edge
	switch {
	case start < lo:
		edges = append(edges, EdgeBeforeStart)
		cell.Row = 0
		cell.TopPx = 0
		cell.HeightPx = math.Max(0, math.Min(end, hi)-lo) * rh
	case start >= hi:
		edges = append(edges, EdgeAfterEnd)
		cell.Row = axis.Rows() - 1
		cell.TopPx = float64(cell.Row) * rh
		cell.HeightPx = 0
	default:
		whole := math.Floor(start)
		cell.Row = int(whole) - axis.StartHour
		cell.TopOffsetFraction = start - whole
		cell.TopPx = (start - lo) * rh
		cell.HeightPx = (end - start) * rh
	}
	if end > hi && start < hi {
		edges = append(edges, EdgeAfterEnd)
		cell.HeightPx = (hi - math.Max(start, lo)) * rh
	}

	if len(edges) > 0 {
		cell.Clipped = true
		cell.Warning = &OutOfRangeWarning{
			CourseID:    p.CourseID,
			SectionType: p.SectionType,
			Section:     p.Section,
			Weekday:     p.Weekday,
			Start:       p.Start,
			End:         p.End,
			Edges:       edges,
		}
	}
	return cell, nil
}

// Calendar is a laid-out week.
type Calendar struct {
	Axis        TimeAxis                 `json:"axis"`
	Days        []meeting.Weekday        `json:"days"`
	RowLabels   []string                 `json:"row_labels"`
	Palette     Palette                  `json:"palette"`
	Cells       []GridCell               `json:"cells"`
	Unscheduled []meeting.MeetingPattern `json:"unscheduled"`
	Warnings    []OutOfRangeWarning      `json:"warnings,omitempty"`
}

// LayoutCalendar lays out every scheduled pattern and lists the rest under
// Unscheduled. Blocks that overlap on the same day share the row width
// through Lane and Lanes. Only an invalid axis is an error.
func LayoutCalendar(patterns []meeting.MeetingPattern, axis TimeAxis, palette Palette) (Calendar, error) {
	if err := axis.Validate(); err != nil {
		return Calendar{}, err
	}
	palette = palette.OrDefault()

	cal := Calendar{
		Axis:        axis,
		Days:        []meeting.Weekday{meeting.Monday, meeting.Tuesday, meeting.Wednesday, meeting.Thursday, meeting.Friday},
		Palette:     palette,
		Cells:       []GridCell{},
		Unscheduled: []meeting.MeetingPattern{},
	}
	for row := 0; row < axis.Rows(); row++ {
		cal.RowLabels = append(cal.RowLabels, axis.RowLabel(row))
	}

	weekend := map[meeting.Weekday]bool{}
	for _, p := range patterns {
		if !p.IsScheduled() {
			cal.Unscheduled = append(cal.Unscheduled, p)
			continue
		}
		cell, err := layout(p, axis, palette)
		if err != nil {
			continue
		}
		if p.Weekday == meeting.Saturday || p.Weekday == meeting.Sunday {
			weekend[p.Weekday] = true
		}
		cal.Cells = append(cal.Cells, cell)
	}
	if weekend[meeting.Saturday] {
		cal.Days = append(cal.Days, meeting.Saturday)
	}
	if weekend[meeting.Sunday] {
		cal.Days = append(cal.Days, meeting.Sunday)
	}

	sort.SliceStable(cal.Cells, func(i, j int) bool {
		a, b := cal.Cells[i], cal.Cells[j]
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if a.SectionType != b.SectionType {
			return a.SectionType < b.SectionType
		}
		return a.Section < b.Section
	})
	assignLanes(cal.Cells)

	for _, c := range cal.Cells {
		if c.Warning != nil {
			cal.Warnings = append(cal.Warnings, *c.Warning)
		}
	}
	return cal, nil
}

// assignLanes gives overlapping cells on the same day distinct lanes. Cells
// must be sorted by day then start.
func assignLanes(cells []GridCell) {
	for i := 0; i < len(cells); {
		// A cluster is a run of cells that overlap transitively.
		j, clusterEnd := i+1, cells[i].End
		for j < len(cells) && cells[j].Weekday == cells[i].Weekday && cells[j].Start < clusterEnd {
			if cells[j].End > clusterEnd {
				clusterEnd = cells[j].End
			}
			j++
		}

		var laneEnds []meeting.TimeOfDay
		for k := i; k < j; k++ {
			lane := -1
			for l, e := range laneEnds {
				if e <= cells[k].Start {
					lane = l
					break
				}
			}
			if lane < 0 {
				lane = len(laneEnds)
				laneEnds = append(laneEnds, 0)
			}
			laneEnds[lane] = cells[k].End
			cells[k].Lane = lane
		}
		for k := i; k < j; k++ {
			cells[k].Lanes = len(laneEnds)
		}
		i = j
	}
}
