package engine

import (
	"fmt"
	"strings"
)

// Heading is the cardinal direction the avatar faces, ordered clockwise
type Heading int

const (
	North Heading = iota
	East
	South
	West

	headingCount = 4
)

type headingInfo struct {
	name  string
	label string
	glyph rune
	dRow  int
	dCol  int
}

// headings is indexed by Heading; its length pins the enum to four values
var headings = [headingCount]headingInfo{
	North: {name: "North", label: "North ↑", glyph: '^', dRow: -1, dCol: 0},
	East:  {name: "East", label: "East →", glyph: '>', dRow: 0, dCol: 1},
	South: {name: "South", label: "South ↓", glyph: 'v', dRow: 1, dCol: 0},
	West:  {name: "West", label: "West ←", glyph: '<', dRow: 0, dCol: -1},
}

// AllHeadings returns every heading in clockwise order starting at North
func AllHeadings() []Heading {
	return []Heading{North, East, South, West}
}

// Valid reports whether h is one of the four cardinal headings
func (h Heading) Valid() bool {
	return h >= North && h <= West
}

// String returns the plain heading name
func (h Heading) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Heading(%d)", int(h))
	}
	return headings[h].name
}

// Label returns the heading name with an arrow, e.g. "East →"
func (h Heading) Label() string {
	if !h.Valid() {
		return h.String()
	}
	return headings[h].label
}

// Glyph returns the single-character avatar used by text renderers
func (h Heading) Glyph() rune {
	if !h.Valid() {
		return '?'
	}
	return headings[h].glyph
}

// Delta returns the row and column offsets of one step in this heading
func (h Heading) Delta() (dRow, dCol int) {
	if !h.Valid() {
		return 0, 0
	}
	return headings[h].dRow, headings[h].dCol
}

// Right returns the heading after a clockwise quarter turn
func (h Heading) Right() Heading {
	return Heading(mod4(int(h) + 1))
}

// Left returns the heading after a counter-clockwise quarter turn
func (h Heading) Left() Heading {
	return Heading(mod4(int(h) - 1))
}

// ParseHeading accepts a heading name or its first letter, case-insensitive
func ParseHeading(s string) (Heading, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, h := range AllHeadings() {
		name := strings.ToLower(headings[h].name)
		if s == name || s == name[:1] {
			return h, nil
		}
	}
	return North, fmt.Errorf("unknown heading %q", s)
}

// MarshalText encodes a heading by name so snapshots read well in JSON and YAML
func (h Heading) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid heading %d", int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText decodes a heading name
func (h *Heading) UnmarshalText(text []byte) error {
	parsed, err := ParseHeading(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// mod4 is a modulo that never returns a negative value
func mod4(n int) int {
	return ((n % headingCount) + headingCount) % headingCount
}
