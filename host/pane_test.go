package host

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

type fakeSurface struct {
	grid map[[2]int]Cell
	w, h int
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{grid: make(map[[2]int]Cell), w: w, h: h}
}

func (f *fakeSurface) Init() error { return nil }
func (f *fakeSurface) Fini()       {}
func (f *fakeSurface) Size() (int, int) { return f.w, f.h }
func (f *fakeSurface) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	f.grid[[2]int{x, y}] = Cell{Ch: mainc, Style: style}
}
func (f *fakeSurface) Show()                  {}
func (f *fakeSurface) PollEvent() tcell.Event { return nil }
func (f *fakeSurface) HideCursor()            {}

func TestPaneFlushSkipsOffscreenRows(t *testing.T) {
	pane := NewPane(10, 5)
	c := pane.NewCanvas()
	c.SetTop(0)
	lines := make([]Line, 20)
	for i := range lines {
		lines[i] = Line{{Ch: rune('a' + i%26), Style: tcell.StyleDefault}}
	}
	c.SetContent(RowContent{Lines: lines})

	pane.SetScrollOffset(8)
	surf := newFakeSurface(10, 5)
	pane.Flush(surf, 0, 0)

	// Row 8 of content should land at screen row 0.
	cell, ok := surf.grid[[2]int{0, 0}]
	if !ok || cell.Ch != rune('a'+8%26) {
		t.Fatalf("expected row 8 content at screen row 0, got %+v ok=%v", cell, ok)
	}
	// Screen rows at or past the viewport height (5) stay unpainted.
	if _, ok := surf.grid[[2]int{0, 20}]; ok {
		t.Fatal("painted a row beyond the viewport height")
	}
}

func TestPaintLineAdvancesByDisplayWidth(t *testing.T) {
	pane := NewPane(10, 5)
	c := pane.NewCanvas()
	c.SetTop(0)
	// '世' is a double-wide CJK rune; the following 'x' must land one
	// screen column further right to account for that, not directly
	// adjacent to it.
	line := Line{{Ch: '世', Style: tcell.StyleDefault}, {Ch: 'x', Style: tcell.StyleDefault}}
	c.SetContent(RowContent{Lines: []Line{line}})

	surf := newFakeSurface(10, 5)
	pane.Flush(surf, 0, 0)

	if cell, ok := surf.grid[[2]int{0, 0}]; !ok || cell.Ch != '世' {
		t.Fatalf("expected the wide rune at column 0, got %+v ok=%v", cell, ok)
	}
	if cell, ok := surf.grid[[2]int{2, 0}]; !ok || cell.Ch != 'x' {
		t.Fatalf("expected 'x' at column 2 (after the double-wide rune), got %+v ok=%v", cell, ok)
	}
	if _, ok := surf.grid[[2]int{1, 0}]; ok {
		t.Fatal("column 1 should be left unpainted, the second half of the wide rune's cell")
	}
}

func TestPaneRemoveDetachesCanvas(t *testing.T) {
	pane := NewPane(5, 5)
	c := pane.NewCanvas()
	c.SetContent(RowContent{Lines: []Line{{{Ch: 'x', Style: tcell.StyleDefault}}}})
	pane.Remove(c)

	surf := newFakeSurface(5, 5)
	pane.Flush(surf, 0, 0)
	if len(surf.grid) != 0 {
		t.Fatalf("expected nothing painted after Remove, got %v", surf.grid)
	}
}

func TestScrollbarThumbProportions(t *testing.T) {
	sb := NewScrollbar(DefaultScrollbarConfig(tcell.StyleDefault))
	surf := newFakeSurface(10, 20)
	// Viewport shows the first half of a 1000-row pane, track height 20.
	sb.Draw(surf, 9, 0, 20, 1000, 0, 500)

	thumbRows := 0
	for y := 0; y < 20; y++ {
		cell := surf.grid[[2]int{9, y}]
		if cell.Ch == sb.Config.ThumbGlyph {
			thumbRows++
		}
	}
	if thumbRows < 9 || thumbRows > 11 {
		t.Fatalf("expected ~half the track (10 rows) as thumb, got %d", thumbRows)
	}
}

func TestFlushSkipsCleanCanvasesOutsideDirtyRegion(t *testing.T) {
	pane := NewPane(10, 20)
	dirty := pane.NewCanvas()
	dirty.SetTop(0)
	dirty.SetContent(RowContent{Lines: []Line{{{Ch: 'd', Style: tcell.StyleDefault}}}})
	clean := pane.NewCanvas()
	clean.SetTop(5)
	clean.SetContent(RowContent{Lines: []Line{{{Ch: 'c', Style: tcell.StyleDefault}}}})

	surf := newFakeSurface(10, 20)
	pane.Flush(surf, 0, 0) // initial Flush is always a full repaint
	if _, ok := surf.grid[[2]int{0, 5}]; !ok {
		t.Fatal("expected the initial full repaint to paint the clean canvas too")
	}

	surf2 := newFakeSurface(10, 20)
	pane.MarkDirty(0, 1) // only the first canvas's row changed
	pane.Flush(surf2, 0, 0)

	if _, ok := surf2.grid[[2]int{0, 0}]; !ok {
		t.Fatal("expected the dirty canvas to be repainted")
	}
	if _, ok := surf2.grid[[2]int{0, 5}]; ok {
		t.Fatal("expected the canvas outside the dirty region to be skipped")
	}
}

func TestFlushNoopsWhenNothingDirty(t *testing.T) {
	pane := NewPane(10, 20)
	c := pane.NewCanvas()
	c.SetTop(0)
	c.SetContent(RowContent{Lines: []Line{{{Ch: 'a', Style: tcell.StyleDefault}}}})

	pane.Flush(newFakeSurface(10, 20), 0, 0) // consumes the initial full-repaint flag

	surf := newFakeSurface(10, 20)
	pane.Flush(surf, 0, 0)
	if len(surf.grid) != 0 {
		t.Fatalf("expected no repaint when nothing is dirty and no resize/scroll occurred, got %v", surf.grid)
	}
}

func TestResizeAndScrollForceFullRepaint(t *testing.T) {
	pane := NewPane(10, 20)
	c := pane.NewCanvas()
	c.SetTop(0)
	lines := make([]Line, 5)
	for i := range lines {
		lines[i] = Line{{Ch: rune('a' + i), Style: tcell.StyleDefault}}
	}
	c.SetContent(RowContent{Lines: lines})
	pane.Flush(newFakeSurface(10, 20), 0, 0)

	pane.SetScrollOffset(1)
	surf := newFakeSurface(10, 20)
	pane.Flush(surf, 0, 0)
	if _, ok := surf.grid[[2]int{0, 0}]; !ok {
		t.Fatal("expected SetScrollOffset to force a full repaint of rows still in view")
	}

	pane.Resize(10, 20)
	surf2 := newFakeSurface(10, 20)
	pane.Flush(surf2, 0, 0)
	if _, ok := surf2.grid[[2]int{0, 0}]; !ok {
		t.Fatal("expected Resize to force a full repaint of rows still in view")
	}
}

func TestDispatcherPublishReachesSubscribers(t *testing.T) {
	d := NewDispatcher()
	var got []Event
	unsub := d.Subscribe(func(e Event) { got = append(got, e) })

	d.Publish(Event{Type: EventRegionDirty, Payload: RegionDirtyPayload{Rect: Rect{X: 1, Y: 2, W: 3, H: 4}}})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}

	unsub()
	d.Publish(Event{Type: EventRowResized})
	if len(got) != 1 {
		t.Fatalf("expected unsubscribed listener to not receive further events, got %d", len(got))
	}
}
