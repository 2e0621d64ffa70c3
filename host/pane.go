package host

import (
	"sort"

	"github.com/mattn/go-runewidth"
)

// Canvas is a Block's "host element": an absolutely positioned, Y-
// translated region of rows, attached to and detached from the Pane as a
// unit. This mirrors spec.md §4.5's DOM element that gets repositioned via
// a Y translate rather than relaid-out, and texelui/scroll/scrollpane.go's
// pattern of moving a child widget's Y by the scroll offset instead of
// reflowing it.
type Canvas struct {
	id      int
	content RowContent
	top     int // row-space top (RowHeightIndex.prefixSum(range.top), rounded)
}

// SetContent replaces the canvas's rendered rows ("clear the host element,
// attach the fragment" in spec.md §4.5).
func (c *Canvas) SetContent(content RowContent) { c.content = content }

// SetTop repositions the canvas ("reapply position" in spec.md §4.5 /
// updatePos in §4.5).
func (c *Canvas) SetTop(top int) { c.top = top }

// Top returns the canvas's current row-space top.
func (c *Canvas) Top() int { return c.top }

// Pane is the scrollable inner surface BlockSet paints its Blocks' Canvases
// into. It is the terminal re-typing of "the host rendering surface: a
// container element with a scrollable inner pane" from spec.md §1.
type Pane struct {
	width, height int
	scrollOffset  int
	canvases      []*Canvas
	nextID        int

	// fullRepaint forces Flush to repaint every visible row, set whenever
	// the viewport's row-to-screen-row mapping changes wholesale (resize,
	// scroll, row-height change) rather than just one region's content.
	// dirtyTop/dirtyBot bound the row-space region Flush otherwise needs to
	// touch, fed by a Dispatcher EventRegionDirty subscriber (spec.md §1
	// "avoid visible flicker").
	fullRepaint        bool
	dirtyTop, dirtyBot int
	hasDirty           bool
}

// NewPane builds an empty pane of the given viewport dimensions.
func NewPane(width, height int) *Pane {
	return &Pane{width: width, height: height, fullRepaint: true}
}

// Resize updates the pane's viewport dimensions. Every row's screen
// position may change, so the next Flush repaints unconditionally.
func (p *Pane) Resize(w, h int) {
	p.width, p.height = w, h
	p.fullRepaint = true
}

// SetScrollOffset sets the row-space offset the viewport is scrolled to.
// A changed offset shifts every canvas's screen row, so the next Flush
// repaints unconditionally rather than trusting the prior dirty region.
func (p *Pane) SetScrollOffset(off int) {
	if off != p.scrollOffset {
		p.fullRepaint = true
	}
	p.scrollOffset = off
}

// MarkFullRepaint forces the next Flush to repaint every visible row,
// the response to an event whose row-space effect isn't a bounded
// rectangle (e.g. a row-height change, which shifts every row below it).
func (p *Pane) MarkFullRepaint() { p.fullRepaint = true }

// MarkDirty records that row-space [top, bot) changed and needs
// repainting on the next Flush, unioning with any already-pending dirty
// region. Fed by a Dispatcher subscriber translating EventRegionDirty
// into pane-local invalidation; EventRowResized goes to MarkFullRepaint
// instead.
func (p *Pane) MarkDirty(top, bot int) {
	if bot <= top {
		return
	}
	if !p.hasDirty {
		p.dirtyTop, p.dirtyBot = top, bot
		p.hasDirty = true
		return
	}
	if top < p.dirtyTop {
		p.dirtyTop = top
	}
	if bot > p.dirtyBot {
		p.dirtyBot = bot
	}
}

// ScrollOffset returns the current row-space scroll offset, a
// layout-sensitive read meant to be called only from a scheduled read
// phase (spec.md §5's "all layout-sensitive reads happen only in
// read-phase completions").
func (p *Pane) ScrollOffset() int { return p.scrollOffset }

// Height returns the viewport's client height in rows, the terminal
// analogue of clientHeight.
func (p *Pane) Height() int { return p.height }

// Width returns the viewport's width in columns.
func (p *Pane) Width() int { return p.width }

// Canvases returns the currently attached canvases, mostly useful for
// tests asserting that Free/Remove actually detached one.
func (p *Pane) Canvases() []*Canvas { return p.canvases }

// NewCanvas allocates and attaches a new Canvas, returning it for the
// caller (a Block) to own.
func (p *Pane) NewCanvas() *Canvas {
	p.nextID++
	c := &Canvas{id: p.nextID}
	p.canvases = append(p.canvases, c)
	return c
}

// Remove detaches a Canvas ("dispose the host element" in spec.md §4.5's
// free()).
func (p *Pane) Remove(c *Canvas) {
	for i, other := range p.canvases {
		if other == c {
			p.canvases = append(p.canvases[:i], p.canvases[i+1:]...)
			return
		}
	}
}

// Flush composites every attached canvas into the surface, skipping rows
// entirely outside the current viewport. This is the terminal analogue of
// a browser compositing absolutely-positioned, translated DOM nodes: each
// canvas keeps its own buffer and only the visible slice gets painted.
//
// Outside a full repaint (forced by Resize/SetScrollOffset/MarkFullRepaint,
// the last of which updateRowSize's EventRowResized triggers), only rows
// inside the accumulated dirty region are repainted — the Block.Render
// idle-write's EventRegionDirty is its producer — so an async content arrival under a static viewport touches only the
// canvas rows that actually changed (spec.md §1 "avoid visible flicker").
func (p *Pane) Flush(s Surface, originX, originY int) {
	full := p.fullRepaint
	dirtyTop, dirtyBot := p.dirtyTop, p.dirtyBot
	hasDirty := p.hasDirty
	p.fullRepaint = false
	p.hasDirty = false
	p.dirtyTop, p.dirtyBot = 0, 0

	if !full && !hasDirty {
		return
	}

	sorted := make([]*Canvas, len(p.canvases))
	copy(sorted, p.canvases)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].top < sorted[j].top })

	for _, c := range sorted {
		bot := c.top + len(c.content.Lines)
		if !full && (bot <= dirtyTop || c.top >= dirtyBot) {
			continue
		}
		for li, line := range c.content.Lines {
			screenRow := c.top + li - p.scrollOffset
			if screenRow < 0 || screenRow >= p.height {
				continue
			}
			p.paintLine(s, originX, originY+screenRow, line)
		}
	}
}

// paintLine advances by each cell's display width rather than by one column
// per cell, so a double-wide rune (e.g. most CJK characters) doesn't collide
// with the cell painted after it — the same width accounting Line.Width()
// uses via go-runewidth.
func (p *Pane) paintLine(s Surface, x, y int, line Line) {
	col := 0
	for _, cell := range line {
		if col >= p.width {
			break
		}
		s.SetContent(x+col, y, cell.Ch, nil, cell.Style)
		w := runewidth.RuneWidth(cell.Ch)
		if w == 0 {
			w = 1
		}
		col += w
	}
}
