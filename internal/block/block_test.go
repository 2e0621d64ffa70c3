package block

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/datasource"
	"github.com/gridscroll/longscroll/host"
	"github.com/gridscroll/longscroll/internal/geom"
	"github.com/gridscroll/longscroll/internal/rowindex"
	"github.com/gridscroll/longscroll/internal/scheduler"
)

func newTestRig(n int) (*scheduler.Scheduler, *rowindex.Index, *host.Pane, *datasource.Memory) {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = "row"
	}
	return scheduler.New(scheduler.DefaultThresholds()), rowindex.New(n), host.NewPane(80, 24), datasource.NewMemory(rows, 80)
}

func TestBlockConstructionBuildsPlaceholdersImmediately(t *testing.T) {
	sched, idx, pane, src := newTestRig(100)
	rng := geom.Must(10, 20)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)

	if len(b.placeholder) != 10 {
		t.Fatalf("expected 10 placeholder rows, got %d", len(b.placeholder))
	}
	if b.Prepared() {
		t.Fatal("block should not be prepared before Prepare() is called")
	}
}

func TestBlockPrepareThenRenderClearsDirty(t *testing.T) {
	sched, idx, pane, src := newTestRig(100)
	rng := geom.Must(10, 20)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)

	b.Prepare()
	if !b.Prepared() {
		t.Fatal("expected Prepared() true after Prepare()")
	}
	b.Render()
	sched.Drain(0)
	if b.dirty {
		t.Fatal("expected dirty cleared after Render + Drain")
	}
}

func TestBlockRenderNoopWhenNotDirty(t *testing.T) {
	sched, idx, pane, src := newTestRig(100)
	rng := geom.Must(10, 20)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)
	b.dirty = false

	before := sched.PendingCount()
	b.Render()
	if sched.PendingCount() != before {
		t.Fatal("Render on a non-dirty block should not schedule anything")
	}
}

func TestBlockFreeCancelsTasksAndNotifiesSource(t *testing.T) {
	sched, idx, pane, mem := newTestRig(100)
	src := &countingSource{Memory: *mem}
	rng := geom.Must(10, 20)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)

	b.Free(pane)
	if sched.PendingCount() != 0 {
		t.Fatal("expected Free to cancel all pending tasks owned by the block")
	}
	if len(pane.Canvases()) != 0 {
		t.Fatal("expected Free to detach the block's canvas")
	}
	if src.freedDummy != 10 {
		t.Fatalf("expected Free to hand all 10 placeholder rows back to the source, got %d", src.freedDummy)
	}
}

func TestBlockFreeIsIdempotent(t *testing.T) {
	sched, idx, pane, mem := newTestRig(100)
	src := &countingSource{Memory: *mem}
	rng := geom.Must(10, 20)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)

	b.Free(pane)
	b.Free(pane) // must not double-notify the source or panic
	if src.freedDummy != 10 {
		t.Fatalf("expected placeholders freed exactly once (10), got %d", src.freedDummy)
	}
}

func TestBlockUpdatePosTracksRowIndex(t *testing.T) {
	sched, idx, pane, src := newTestRig(100)
	rng := geom.Must(5, 10)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)

	idx.Set(0, 60) // grow row 0's height, shifting every row from 1 onward
	b.UpdatePos()

	want := int(idx.PrefixSum(5))
	if got := b.canvas.Top(); got != want {
		t.Fatalf("expected canvas top %d after UpdatePos, got %d", want, got)
	}
}

func TestBlockRenderReportsRowSizeChanges(t *testing.T) {
	sched, idx, pane, _ := newTestRig(5)
	rng := geom.Must(0, 5)
	src := &sizingSource{Memory: *datasource.NewMemory([]string{"a", "b", "c", "d", "e"}, 80), realHeight: 3}

	var got []RowSizeChange
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, func(changes []RowSizeChange) {
		got = append(got, changes...)
	}, nil)

	b.Prepare()
	b.Render()
	sched.Drain(0)

	if len(got) != 5 {
		t.Fatalf("expected all 5 rows to report a size change (default height 30 -> 3), got %d", len(got))
	}
	for _, ch := range got {
		if ch.NewSize != 3 {
			t.Fatalf("expected NewSize 3, got %d", ch.NewSize)
		}
	}
}

func TestBlockRenderPublishesRegionDirty(t *testing.T) {
	sched, idx, pane, src := newTestRig(10)
	rng := geom.Must(0, 10)
	d := host.NewDispatcher()

	var got []host.RegionDirtyPayload
	d.Subscribe(func(e host.Event) {
		if e.Type != host.EventRegionDirty {
			t.Fatalf("expected only EventRegionDirty, got %v", e.Type)
		}
		p, ok := e.Payload.(host.RegionDirtyPayload)
		if !ok {
			t.Fatalf("expected RegionDirtyPayload, got %T", e.Payload)
		}
		got = append(got, p)
	})

	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, d, nil, nil)
	b.Render()
	sched.Drain(0)

	if len(got) != 1 {
		t.Fatalf("expected exactly one EventRegionDirty from a single Render, got %d", len(got))
	}
	// Each of the 10 placeholder rows is DefaultHeight lines tall, so the
	// rect covers 10 * DefaultHeight lines of row space.
	wantH := int(idx.SumRange(0, 10))
	if got[0].Rect.Y != 0 || got[0].Rect.H != wantH {
		t.Fatalf("expected rect covering the full 10-row block (%d lines) at Y=0, got %+v", wantH, got[0].Rect)
	}
}

func TestBlockRenderWithNilDispatcherDoesNotPanic(t *testing.T) {
	sched, idx, pane, src := newTestRig(10)
	rng := geom.Must(0, 10)
	b := New(rng, pane, idx, sched, src, tcell.StyleDefault, nil, nil, nil)
	b.Render()
	sched.Drain(0)
}

// countingSource wraps Memory and counts FreeDummyRow calls, so tests can
// check how often Free hands placeholder rows back to the source.
type countingSource struct {
	datasource.Memory
	freedDummy int
}

func (c *countingSource) FreeDummyRow(int, host.RowContent) { c.freedDummy++ }

// sizingSource wraps Memory but returns multi-line RowContent from MakeRow
// so its Height() differs from the rowindex default, exercising the
// render-time resize-detection path.
type sizingSource struct {
	datasource.Memory
	realHeight int
}

func (s *sizingSource) MakeRow(i int) host.RowContent {
	lines := make([]host.Line, s.realHeight)
	for j := range lines {
		lines[j] = host.Line{{Ch: 'x', Style: tcell.StyleDefault}}
	}
	return host.RowContent{Lines: lines}
}
