package grid

import "hash/fnv"

// DefaultPalette is the eight course colors of the calendar view.
var DefaultPalette = Palette{
	"#4a90e2",
	"#50c878",
	"#f39c12",
	"#e74c3c",
	"#9b59b6",
	"#1abc9c",
	"#f1c40f",
	"#e67e22",
}

// Palette is an ordered list of CSS colors.
type Palette []string

// ColorIndex maps a course id onto [0, size). The same id always gets the
// same index. Different ids may collide.
func ColorIndex(courseID string, size int) int {
	if size <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseID))
	return int(h.Sum32() % uint32(size))
}

// Index returns the palette slot for courseID.
func (p Palette) Index(courseID string) int {
	return ColorIndex(courseID, len(p))
}

// Color returns the color for courseID, or "" for an empty palette.
func (p Palette) Color(courseID string) string {
	if len(p) == 0 {
		return ""
	}
	return p[p.Index(courseID)]
}

// OrDefault returns p, or DefaultPalette when p is empty.
func (p Palette) OrDefault() Palette {
	if len(p) == 0 {
		return DefaultPalette
	}
	return p
}
