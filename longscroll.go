// Package longscroll is the coordinator of a virtualized long-list
// renderer over a terminal host: it wires scroll events, viewport
// tracking, and the buffer-region computation to a row-height index, a
// frame-phase scheduler, and a block set, so that a list of up to
// hundreds of thousands of variable-height rows scrolls smoothly while
// only the rows near the viewport are ever materialized (spec.md §1,
// §4.6, §4.7).
//
// Grounded on texel/desktop_engine_core.go's composition-root shape
// (one struct owning the scheduler, the dispatcher, and the set of live
// panes, exposing a small public surface to the host loop) and
// internal/runtime/server/publish_scheduler.go's mutex-guarded public
// entry points, here guarding LongScroll's own state so its methods stay
// safe to call from both a FrameTimer-driven ticking goroutine and a
// host input-polling goroutine, without reintroducing the real
// concurrency the scheduler's single-threaded cooperative model
// (spec.md §5) must not observe.
package longscroll

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/datasource"
	"github.com/gridscroll/longscroll/host"
	"github.com/gridscroll/longscroll/internal/block"
	"github.com/gridscroll/longscroll/internal/errs"
	"github.com/gridscroll/longscroll/internal/frametimer"
	"github.com/gridscroll/longscroll/internal/geom"
	"github.com/gridscroll/longscroll/internal/rowindex"
	"github.com/gridscroll/longscroll/internal/scheduler"
	"github.com/gridscroll/longscroll/internal/velocity"
)

// Range is the pixel-space half-open interval exposed on the public
// surface (the viewport accessor, row-top/row-height lookups).
type Range = geom.Range[float64]

// bufferScaleSpeedDivisor is the constant divisor in
// scaleFactor = max(1, sqrt(|v|/5)) (spec.md §4.7) — distinct from
// Config.CornerSpeed even though both happen to default to 5.
const bufferScaleSpeedDivisor = 5

// LongScroll is the render-pipeline coordinator (spec.md §4.6). Its
// public methods are safe for concurrent use; internally, all scheduler
// interaction happens while holding mu, so within any one call the
// cooperative single-threaded semantics spec.md §5 describes still hold.
type LongScroll struct {
	mu sync.Mutex

	cfg    Config
	source datasource.Source
	logger *log.Logger
	style  tcell.Style
	owner  scheduler.Owner

	sched           *scheduler.Scheduler
	velocity        *velocity.Tracker
	frameTimer      *frametimer.FrameTimer
	dispatcher      *host.Dispatcher
	dispatcherUnsub func()

	surface   host.Surface
	pane      *host.Pane
	scrollbar *host.Scrollbar

	n        int
	rowIdx   *rowindex.Index
	blockSet *block.Set

	initialized       bool
	viewport          Range
	viewportValid     bool
	paneContentHeight float64
}

// New constructs a LongScroll over source, applying opts to the default
// Config. Call MakeDom once a host.Surface is available to begin
// rendering (spec.md §6's constructor/makeDom split).
func New(source datasource.Source, opts ...Option) *LongScroll {
	cfg := buildConfig(opts)
	ls := &LongScroll{
		cfg:        cfg,
		source:     source,
		logger:     log.Default(),
		style:      tcell.StyleDefault,
		owner:      scheduler.NewOwner(),
		sched:      scheduler.New(cfg.SchedulerThresh),
		velocity:   velocity.New(),
		dispatcher: host.NewDispatcher(),
	}
	return ls
}

// Dispatcher exposes the dirty-region/row-resize event bus for a host to
// subscribe to (spec.md §1's "avoid visible flicker", concretized per
// SPEC_FULL.md §4).
func (ls *LongScroll) Dispatcher() *host.Dispatcher { return ls.dispatcher }

// handleDispatcherEvent translates dispatcher events into pane-local
// dirty-region bookkeeping, consumed by the next tickLocked's Flush.
// Publish always fires synchronously from inside a scheduler
// continuation reached through an already mu-locked LongScroll method
// (Block.Render's idle-write, updateRowSizeLocked), so this must not
// re-acquire mu.
func (ls *LongScroll) handleDispatcherEvent(evt host.Event) {
	switch evt.Type {
	case host.EventRegionDirty:
		if p, ok := evt.Payload.(host.RegionDirtyPayload); ok {
			ls.pane.MarkDirty(p.Rect.Y, p.Rect.Bottom())
		}
	case host.EventRowResized:
		// A row's committed height shifts the screen position of every
		// row below it, not just the resized one; MarkDirty's bounded
		// rectangle can't express that, so fall back to a full repaint.
		ls.pane.MarkFullRepaint()
	}
}

// MakeDom builds the inner pane over surface and starts the frame timer.
// Mirrors spec.md §6's "makeDom(containerElement): builds the inner
// pane, attaches scroll listener" — the "scroll listener" attachment is
// the host's responsibility (it owns input polling); this only builds
// the pane/scrollbar and begins ticking.
func (ls *LongScroll) MakeDom(surface host.Surface) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	w, h := surface.Size()
	ls.surface = surface
	ls.pane = host.NewPane(w, h)
	ls.scrollbar = host.NewScrollbar(host.DefaultScrollbarConfig(ls.style))
	ls.n = ls.source.Length()
	ls.initialized = true

	ls.dispatcherUnsub = ls.dispatcher.Subscribe(ls.handleDispatcherEvent)

	ls.reinitLocked()

	ls.frameTimer = frametimer.New(ls.cfg.FrameInterval, func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		ls.tickLocked()
	})
	ls.frameTimer.Start()
}

// Close stops the frame timer, releasing its ticking goroutine.
func (ls *LongScroll) Close() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.frameTimer != nil {
		ls.frameTimer.Stop()
	}
	if ls.dispatcherUnsub != nil {
		ls.dispatcherUnsub()
	}
}

// OnResize triggers a full reinit at the new surface dimensions
// (spec.md §4.6/§9: resize performs a full reinit, not incremental
// repair).
func (ls *LongScroll) OnResize(w, h int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return
	}
	ls.pane.Resize(w, h)
	ls.reinitLocked()
}

// OnDataChange re-reads the data source's length and triggers a full
// reinit (spec.md §4.6/§9).
func (ls *LongScroll) OnDataChange() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return
	}
	ls.n = ls.source.Length()
	ls.reinitLocked()
}

// reinitLocked rebuilds RowHeightIndex with N default-height rows, frees
// every live block, sets the declared pane content height to the new
// total, invalidates the cached viewport, and fires onScroll once to
// trigger initial buffering (spec.md §4.6).
func (ls *LongScroll) reinitLocked() {
	if ls.blockSet != nil {
		ls.blockSet.FreeAll()
	}
	ls.rowIdx = rowindex.New(ls.n)
	if h := ls.cfg.DefaultRowHeight; h != rowindex.DefaultHeight {
		for i := 0; i < ls.n; i++ {
			_ = ls.rowIdx.Set(i, h)
		}
	}
	ls.blockSet = block.New(ls.n, ls.cfg.InitialBlockSize, ls.cfg.MinBlockSize, ls.pane, ls.rowIdx, ls.sched, ls.source, ls.style, ls.dispatcher)
	ls.blockSet.OnRowSizeChanges = ls.updateRowSizeLocked
	ls.blockSet.OnInvariantViolation = ls.logInvariantViolation

	ls.paneContentHeight = ls.rowIdx.Total()
	ls.viewportValid = false

	ls.onScrollLocked()
}

// OnScroll requests a viewport recompute (a no-op before MakeDom,
// mirroring spec.md §4.6's documented behavior).
func (ls *LongScroll) OnScroll() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.onScrollLocked()
}

// Scroll sets the pane's scroll offset (in rows) and requests a viewport
// recompute — the terminal host's scroll-listener callback.
func (ls *LongScroll) Scroll(offsetRows int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return
	}
	ls.pane.SetScrollOffset(offsetRows)
	ls.onScrollLocked()
}

func (ls *LongScroll) onScrollLocked() {
	if !ls.initialized {
		return
	}
	ls.updateViewportLocked()
}

// updateViewportLocked schedules a read that recomputes the viewport
// from the pane's current scroll position and client height, feeds the
// velocity tracker, computes the buffer region (spec.md §4.7), converts
// its endpoints to rows, and hands the resulting target range/row to the
// block set (spec.md §4.6).
func (ls *LongScroll) updateViewportLocked() {
	ls.sched.ScheduleRead(ls.owner, func(_ scheduler.Event, err error) {
		if err != nil {
			return
		}

		top := float64(ls.pane.ScrollOffset())
		bot := top + float64(ls.pane.Height())
		vp := Range{Top: top, Bot: bot}
		ls.viewport = vp
		ls.viewportValid = true

		now := time.Now()
		ls.velocity.OnScroll(top, now)
		v := ls.velocity.GetVel(now)

		buf := ls.computeBufferRegion(vp, v)

		rowTop := ls.rowIdx.ClampedIndexAt(buf.Top)
		rowBot := ls.rowIdx.ClampedIndexAt(buf.Bot) + 1
		if rowBot > ls.n {
			rowBot = ls.n
		}
		if rowTop > rowBot {
			rowTop = rowBot
		}
		targetRange, terr := geom.New(rowTop, rowBot)
		if terr != nil {
			ls.logger.Printf("longscroll: invariant violation computing target range: %v", terr)
			return
		}
		targetRow := (rowTop + rowBot) / 2

		ls.blockSet.SetTarget(targetRange, targetRow)
		ls.blockSet.Render()
	})
}

// computeBufferRegion implements spec.md §4.7's asymmetric look-ahead
// buffer: at rest an equal slab surrounds the viewport's center; under
// fast scrolling the slab grows and shifts in the scroll direction.
func (ls *LongScroll) computeBufferRegion(vp Range, v float64) Range {
	ratio := math.Atan(v/ls.cfg.CornerSpeed)/math.Pi + 0.5
	scaleFactor := math.Max(1, math.Sqrt(math.Abs(v)/bufferScaleSpeedDivisor))
	width := ls.cfg.BufferWidthBase * scaleFactor
	center := (vp.Top + vp.Bot) / 2
	return Range{
		Top: center - width*(1-ratio),
		Bot: center + width*ratio,
	}
}

// updateRowSizeLocked applies measured row-height changes to
// RowHeightIndex, repositions every live block, and re-runs
// updateViewport (spec.md §4.6). The declared pane content height is
// deliberately NOT resynced to RowHeightIndex.total() here — spec.md §9
// documents this source behavior verbatim ("the scroll pane's height is
// not resized when rows grow... Preserve the coordinator seam so a
// future implementation can re-enable it").
//
// TODO(spec.md §9): re-sync paneContentHeight to rowIdx.Total() here once
// a host is willing to accept the resulting scrollbar-range jump mid-scroll.
func (ls *LongScroll) updateRowSizeLocked(changes []block.RowSizeChange) {
	for _, ch := range changes {
		if err := ls.rowIdx.Set(ch.Index, float64(ch.NewSize)); err != nil {
			ls.logger.Printf("longscroll: %v", err)
		}
		ls.dispatcher.Publish(host.Event{
			Type:    host.EventRowResized,
			Payload: host.RowResizedPayload{Index: ch.Index, NewSize: ch.NewSize},
		})
	}
	ls.blockSet.Reposition()
	ls.updateViewportLocked()
}

func (ls *LongScroll) logInvariantViolation(err error) {
	ls.logger.Printf("longscroll: %v", err)
}

// tickLocked runs one frame's worth of work: doWork is queued as an
// idle-write continuation, then the scheduler drains read, write, and
// idle-write in order (spec.md §4.6).
func (ls *LongScroll) tickLocked() {
	defer func() {
		if r := recover(); r != nil {
			ls.logger.Printf("longscroll: frame tick recovered from panic: %v", r)
		}
	}()
	ls.sched.ScheduleIdleWrite(ls.owner, func(evt scheduler.Event, err error) {
		if err != nil {
			return
		}
		ls.blockSet.DoWork(evt)
	})
	avg := ls.frameTimer.Average()
	ls.sched.Drain(avg)

	if ls.surface != nil {
		ls.pane.Flush(ls.surface, 0, 0)
		if ls.scrollbar != nil && ls.paneContentHeight > 0 {
			w, _ := ls.surface.Size()
			viewTop := float64(ls.pane.ScrollOffset())
			ls.scrollbar.Draw(ls.surface, w-1, 0, ls.pane.Height(), ls.paneContentHeight, viewTop, viewTop+float64(ls.pane.Height()))
		}
		ls.surface.Show()
	}
}

// Viewport returns the memoized viewport, or ErrInitRequired before the
// first successful updateViewport read following MakeDom.
func (ls *LongScroll) Viewport() (Range, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized || !ls.viewportValid {
		return Range{}, errs.ErrInitRequired
	}
	return ls.viewport, nil
}

// GetPaneHeight returns the scroll pane's declared total height, or
// ErrInitRequired before MakeDom.
func (ls *LongScroll) GetPaneHeight() (float64, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return 0, errs.ErrInitRequired
	}
	return ls.paneContentHeight, nil
}

// GetRowHeight returns row i's current height, or ErrInitRequired before
// MakeDom.
func (ls *LongScroll) GetRowHeight(i int) (float64, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return 0, errs.ErrInitRequired
	}
	return ls.rowIdx.Height(i), nil
}

// GetRowTop returns row i's pixel top (prefixSum(i)), or ErrInitRequired
// before MakeDom.
func (ls *LongScroll) GetRowTop(i int) (float64, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return 0, errs.ErrInitRequired
	}
	return ls.rowIdx.PrefixSum(i), nil
}

// GetRowAtPx returns the row at pixel px, erroring (invariant-violation)
// if px is out of bounds, or ErrInitRequired before MakeDom.
func (ls *LongScroll) GetRowAtPx(px float64) (int, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return 0, errs.ErrInitRequired
	}
	return ls.rowIdx.RowAt(px)
}

// GetClampedRowAtPx saturates px into a valid row index instead of
// erroring, or returns ErrInitRequired before MakeDom.
func (ls *LongScroll) GetClampedRowAtPx(px float64) (int, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.initialized {
		return 0, errs.ErrInitRequired
	}
	return ls.rowIdx.ClampedIndexAt(px), nil
}

