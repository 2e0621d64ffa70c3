package host

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Cell is one styled terminal character, the terminal re-typing of a DOM
// text node / styled span.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Line is one physical terminal row of cells.
type Line []Cell

// Width returns the display width of the line accounting for double-wide
// runes, using go-runewidth — the same width-aware layout primitive used
// throughout the teacher's terminal stack (texel/apps/texelterm).
func (l Line) Width() int {
	w := 0
	for _, c := range l {
		cw := runewidth.RuneWidth(c.Ch)
		if cw == 0 {
			cw = 1
		}
		w += cw
	}
	return w
}

// RowContent is the "element" spec.md §3/§6 describes: what a DataSource's
// MakeRow/MakeDummyRow produces for one logical row. A row may wrap to
// more than one physical terminal line, which is that row's height in the
// RowHeightIndex.
type RowContent struct {
	Lines []Line
}

// Height is the number of physical terminal rows this content occupies.
func (c RowContent) Height() int { return len(c.Lines) }

// PadTo returns a copy of c padded or truncated to exactly h lines, used
// when a dummy row's height must track the RowHeightIndex's currently
// stored height for that row (spec.md §4.5: "apply their current heights
// from RowHeightIndex").
func (c RowContent) PadTo(h int, style tcell.Style) RowContent {
	if len(c.Lines) == h {
		return c
	}
	out := make([]Line, h)
	for i := 0; i < h; i++ {
		if i < len(c.Lines) {
			out[i] = c.Lines[i]
		} else {
			out[i] = Line{}
		}
	}
	return RowContent{Lines: out}
}

// BlankLine returns a single blank line of the given width in style — the
// typical dummy/placeholder row content.
func BlankLine(width int, style tcell.Style) Line {
	l := make(Line, width)
	for i := range l {
		l[i] = Cell{Ch: ' ', Style: style}
	}
	return l
}
