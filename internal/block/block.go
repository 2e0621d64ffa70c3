// Package block implements Block and Set (spec.md §4.4/§4.5): the unit of
// partial materialization over a contiguous row range, and the ordered,
// self-healing collection of live blocks that covers a target range.
//
// Grounded on other_examples' RedClaus-cortex block-virtual.go (visible-
// range/height-estimate bookkeeping for a virtualized block list) and on
// texelui/scroll/scrollpane.go's pattern of a scrollable container owning
// a repositioned child; the frame-phase choreography is original to this
// module's translation of spec.md §4.5 onto scheduler.Scheduler.
package block

import (
	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/datasource"
	"github.com/gridscroll/longscroll/host"
	"github.com/gridscroll/longscroll/internal/errs"
	"github.com/gridscroll/longscroll/internal/geom"
	"github.com/gridscroll/longscroll/internal/rowindex"
	"github.com/gridscroll/longscroll/internal/scheduler"
)

// RowSizeChange is one row's measured-height delta, reported by a Block's
// render() read phase and fanned out to the coordinator's updateRowSize
// (spec.md §4.5/§4.6).
type RowSizeChange struct {
	Index   int
	NewSize int
}

// Block owns one contiguous row range's host canvas: a placeholder
// rendering until prepare() populates real content, then render() swaps
// the canvas's content and measures it against RowHeightIndex.
type Block struct {
	rng    geom.Range[int]
	owner  scheduler.Owner
	sched  *scheduler.Scheduler
	rowIdx *rowindex.Index
	source datasource.Source
	style  tcell.Style
	canvas *host.Canvas

	placeholder []host.RowContent // one entry per row in rng
	real        []host.RowContent // populated by prepare; nil until then

	dirty    bool
	prepared bool
	freed    bool

	paneWidth  int
	dispatcher *host.Dispatcher

	onSizesChanged       func([]RowSizeChange)
	onInvariantViolation func(error)
}

// New constructs a Block over rng: allocates its canvas (attached to pane
// immediately), schedules a write task at the attachment seam that does no
// work of its own, and synchronously builds
// placeholder content from source so placeholders exist for every row in
// the block "from the instant the block enters the set" (spec.md §3).
// dispatcher may be nil, in which case Render publishes no dirty-region
// events (used by tests that don't care about repaint tracking).
func New(rng geom.Range[int], pane *host.Pane, rowIdx *rowindex.Index, sched *scheduler.Scheduler, source datasource.Source, style tcell.Style, dispatcher *host.Dispatcher, onSizesChanged func([]RowSizeChange), onInvariantViolation func(error)) *Block {
	b := &Block{
		rng:                  rng,
		owner:                scheduler.NewOwner(),
		sched:                sched,
		rowIdx:               rowIdx,
		source:               source,
		style:                style,
		canvas:               pane.NewCanvas(),
		paneWidth:            pane.Width(),
		dispatcher:           dispatcher,
		onSizesChanged:       onSizesChanged,
		onInvariantViolation: onInvariantViolation,
	}
	b.canvas.SetTop(int(rowIdx.PrefixSum(rng.Top)))

	sched.ScheduleWrite(b.owner, func(_ scheduler.Event, err error) {
		// Attachment itself already happened synchronously via NewCanvas;
		// this task is the seam spec.md §4.5 describes ("schedule a write
		// task that appends it to the pane"), kept so a future host that
		// defers DOM attachment has somewhere to hook in.
	})

	height := int(rng.Height())
	b.placeholder = make([]host.RowContent, height)
	for i := 0; i < height; i++ {
		row := rng.Top + i
		h := int(rowIdx.Height(row))
		b.placeholder[i] = source.MakeDummyRow(row, h, style)
	}
	b.dirty = true
	return b
}

// Range returns the block's fixed row range.
func (b *Block) Range() geom.Range[int] { return b.rng }

// Prepared reports whether prepare() has populated real content.
func (b *Block) Prepared() bool { return b.prepared }

// Owner returns the scheduler owner identity backing this block's tasks.
func (b *Block) Owner() scheduler.Owner { return b.owner }

// Prepare builds real content for every row in the block via the data
// source. Permitted to be slow — its duration drives BlockSet's adaptive
// sizing, so the caller (BlockSet.doWork) is responsible for timing it.
func (b *Block) Prepare() {
	height := int(b.rng.Height())
	real := make([]host.RowContent, height)
	for i := 0; i < height; i++ {
		row := b.rng.Top + i
		real[i] = b.source.MakeRow(row)
	}
	b.real = real
	b.prepared = true
	b.dirty = true
}

// Render swaps the canvas's content between placeholder and real rows and
// measures real content against RowHeightIndex, scheduling the
// idle-write/read/write sequence spec.md §4.5 describes. A no-op if the
// block isn't dirty.
func (b *Block) Render() {
	if !b.dirty {
		return
	}
	isPlaceholderRender := !b.prepared
	source := b.placeholder
	if b.prepared {
		source = b.real
	}
	flat := flatten(source)
	b.dirty = false

	b.sched.ScheduleIdleWrite(b.owner, func(_ scheduler.Event, err error) {
		if err != nil {
			return // task-cancelled: block was freed mid-render, swallow
		}
		top := int(b.rowIdx.PrefixSum(b.rng.Top))
		b.canvas.SetContent(flat)
		b.canvas.SetTop(top)
		if b.dispatcher != nil {
			b.dispatcher.Publish(host.Event{
				Type:    host.EventRegionDirty,
				Payload: host.RegionDirtyPayload{Rect: host.Rect{X: 0, Y: top, W: b.paneWidth, H: len(flat.Lines)}},
			})
		}
	})

	b.sched.ScheduleRead(b.owner, func(_ scheduler.Event, err error) {
		if err != nil {
			return
		}
		if isPlaceholderRender {
			return
		}
		b.measureAndReportSizes()
	})
}

func (b *Block) measureAndReportSizes() {
	if len(b.real) > 0 && b.real[0].Height() == 0 {
		if b.onInvariantViolation != nil {
			b.onInvariantViolation(errs.NewInvariantViolation("block: measured height of first real row is 0"))
		}
	}

	var changes []RowSizeChange
	for i, rc := range b.real {
		row := b.rng.Top + i
		newHeight := rc.Height()
		if float64(newHeight) == b.rowIdx.Height(row) {
			continue
		}
		changes = append(changes, RowSizeChange{Index: row, NewSize: newHeight})
	}
	if len(changes) == 0 {
		return
	}

	for _, ch := range changes {
		ch := ch
		b.sched.ScheduleWrite(b.owner, func(_ scheduler.Event, err error) {
			if err != nil {
				return
			}
			i := ch.Index - b.rng.Top
			b.placeholder[i] = b.placeholder[i].PadTo(ch.NewSize, b.style)
		})
	}
	if b.onSizesChanged != nil {
		b.onSizesChanged(changes)
	}
}

// UpdatePos repositions the canvas to the row range's current pixel top,
// used after a committed height change shifts everything below it.
func (b *Block) UpdatePos() {
	b.canvas.SetTop(int(b.rowIdx.PrefixSum(b.rng.Top)))
}

// Free surrenders every real and placeholder row to the data source,
// cancels every scheduler task owned by this block, and detaches its
// canvas. Calling CancelJobs before releasing any element guarantees no
// render continuation can observe a freed block's detached state
// (spec.md §5).
func (b *Block) Free(pane *host.Pane) {
	if b.freed {
		return
	}
	b.freed = true

	b.sched.CancelJobs(b.owner)

	for i, rc := range b.placeholder {
		b.source.FreeDummyRow(b.rng.Top+i, rc)
	}
	if b.prepared {
		for i, rc := range b.real {
			b.source.FreeRow(b.rng.Top+i, rc)
		}
	}
	pane.Remove(b.canvas)
}

func flatten(rows []host.RowContent) host.RowContent {
	var lines []host.Line
	for _, rc := range rows {
		lines = append(lines, rc.Lines...)
	}
	return host.RowContent{Lines: lines}
}
