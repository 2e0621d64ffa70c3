package block

import (
	"math"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/datasource"
	"github.com/gridscroll/longscroll/host"
	"github.com/gridscroll/longscroll/internal/geom"
	"github.com/gridscroll/longscroll/internal/rowindex"
	"github.com/gridscroll/longscroll/internal/scheduler"
)

const (
	// MinBlockSize is preferredBlockSize's floor (spec.md §4.4).
	MinBlockSize = 5
	// preferredBlockTime is the per-prepare duration budget; a shrink is
	// triggered when shrinkThreshold of the last historyLen same-size
	// prepares exceed it.
	preferredBlockTime = 12 * time.Millisecond
	// historyLen is how many same-size prepare durations are retained
	// before a shrink decision is made.
	historyLen = 5
	// shrinkThreshold is how many of historyLen must exceed
	// preferredBlockTime to trigger a shrink.
	shrinkThreshold = 4
	// renderThrottle bounds how often doWork requests a full Set.Render.
	renderThrottle = 10 * time.Millisecond
	// ensureCoversMaxIterations is the runaway safety cap on (c)'s
	// prepend/append loop.
	ensureCoversMaxIterations = 10
)

// Set is BlockSet: the ordered, contiguous collection of live blocks that
// covers targetRange, freeing blocks outside leaveRange and adaptively
// sizing new blocks by recent prepare cost (spec.md §4.4).
type Set struct {
	pane       *host.Pane
	rowIdx     *rowindex.Index
	sched      *scheduler.Scheduler
	source     datasource.Source
	style      tcell.Style
	dispatcher *host.Dispatcher
	owner      scheduler.Owner
	n          int

	blocks []*Block // contiguous, ordered by range, invariant maintained throughout

	targetRange geom.Range[int]
	leaveRange  geom.Range[int]
	targetRow   int
	hasTarget   bool

	preferredBlockSize int
	minBlockSize       int
	prepareHistory     []time.Duration // durations of prepares at the current preferredBlockSize

	lastRenderAt time.Time

	// RandFloat draws the uniform sample doWork uses for its probabilistic
	// skip; overridable in tests for determinism. Defaults to
	// math/rand's global source.
	RandFloat func() float64

	// OnRowSizeChanges is invoked with a non-empty list whenever a
	// render's read phase measures rows whose height changed, the hand-off
	// point to LongScroll.updateRowSize (spec.md §4.6).
	OnRowSizeChanges func([]RowSizeChange)
	// OnInvariantViolation is invoked when a block measures a 0-height
	// first real row (spec.md §4.5, §7).
	OnInvariantViolation func(error)
}

// New builds an empty Set over n rows, starting with initialBlockSize as
// preferredBlockSize and minBlockSize as its floor. minBlockSize below
// MinBlockSize is raised to MinBlockSize. dispatcher may be nil, in which
// case blocks publish no dirty-region events.
func New(n int, initialBlockSize, minBlockSize int, pane *host.Pane, rowIdx *rowindex.Index, sched *scheduler.Scheduler, source datasource.Source, style tcell.Style, dispatcher *host.Dispatcher) *Set {
	if minBlockSize < MinBlockSize {
		minBlockSize = MinBlockSize
	}
	if initialBlockSize < minBlockSize {
		initialBlockSize = minBlockSize
	}
	return &Set{
		pane:               pane,
		rowIdx:             rowIdx,
		sched:              sched,
		source:             source,
		style:              style,
		dispatcher:         dispatcher,
		owner:              scheduler.NewOwner(),
		n:                  n,
		preferredBlockSize: initialBlockSize,
		minBlockSize:       minBlockSize,
		RandFloat:          rand.Float64,
	}
}

// Blocks returns the live blocks in range order, for tests and the
// coordinator's introspection.
func (s *Set) Blocks() []*Block { return s.blocks }

// PreferredBlockSize returns the current adaptive block size.
func (s *Set) PreferredBlockSize() int { return s.preferredBlockSize }

// SetTarget records targetRange/targetRow, derives leaveRange (targetRange
// expanded by a third of its height on each side, clamped to [0, N)), and
// schedules ensureCovers under a write task (spec.md §4.4).
func (s *Set) SetTarget(target geom.Range[int], focus int) {
	s.targetRange = target
	s.targetRow = focus
	s.hasTarget = true

	delta := int(target.Height()) / 3
	expanded := target.Expand(delta)
	s.leaveRange = expanded.ClampTo(geom.Must(0, s.n))

	s.sched.ScheduleWrite(s.owner, func(_ scheduler.Event, err error) {
		if err != nil {
			return
		}
		s.ensureCovers()
	})
}

// ensureCovers frees blocks fully outside leaveRange, then grows the set
// (from empty, or by prepending/appending preferredBlockSize-row blocks)
// until targetRange is covered or the 10-iteration safety cap is hit.
func (s *Set) ensureCovers() {
	for len(s.blocks) > 0 && s.blocks[0].Range().Bot <= s.leaveRange.Top {
		b := s.blocks[0]
		s.blocks = s.blocks[1:]
		b.Free(s.pane)
	}
	for len(s.blocks) > 0 && s.blocks[len(s.blocks)-1].Range().Top >= s.leaveRange.Bot {
		b := s.blocks[len(s.blocks)-1]
		s.blocks = s.blocks[:len(s.blocks)-1]
		b.Free(s.pane)
	}

	if len(s.blocks) == 0 {
		half := s.preferredBlockSize / 2
		rng, err := geom.New(s.targetRow-half, s.targetRow-half+s.preferredBlockSize)
		if err == nil {
			clamped := rng.ClampTo(geom.Must(0, s.n))
			if !clamped.Empty() {
				s.blocks = append(s.blocks, s.newBlock(clamped))
			}
		}
	}

growLoop:
	for iter := 0; iter < ensureCoversMaxIterations; iter++ {
		if len(s.blocks) == 0 || s.covers(s.targetRange) {
			break
		}
		front := s.blocks[0].Range()
		back := s.blocks[len(s.blocks)-1].Range()

		switch {
		case front.Top > s.targetRange.Top:
			rng := geom.Must(front.Top-s.preferredBlockSize, front.Top).ClampTo(geom.Must(0, s.n))
			if rng.Empty() {
				break growLoop
			}
			s.blocks = append([]*Block{s.newBlock(rng)}, s.blocks...)
		case back.Bot < s.targetRange.Bot:
			rng := geom.Must(back.Bot, back.Bot+s.preferredBlockSize).ClampTo(geom.Must(0, s.n))
			if rng.Empty() {
				break growLoop
			}
			s.blocks = append(s.blocks, s.newBlock(rng))
		default:
			break growLoop
		}
	}
}

// covers reports whether the set's contiguous block union contains target.
func (s *Set) covers(target geom.Range[int]) bool {
	if target.Empty() {
		return true
	}
	if len(s.blocks) == 0 {
		return false
	}
	return s.blocks[0].Range().Top <= target.Top && s.blocks[len(s.blocks)-1].Range().Bot >= target.Bot
}

func (s *Set) newBlock(rng geom.Range[int]) *Block {
	return New(rng, s.pane, s.rowIdx, s.sched, s.source, s.style, s.dispatcher, s.handleSizesChanged, s.handleInvariantViolation)
}

func (s *Set) handleSizesChanged(changes []RowSizeChange) {
	if s.OnRowSizeChanges != nil {
		s.OnRowSizeChanges(changes)
	}
}

func (s *Set) handleInvariantViolation(err error) {
	if s.OnInvariantViolation != nil {
		s.OnInvariantViolation(err)
	}
}

// DoWork is doWork (spec.md §4.4): if the target row isn't covered by a
// live block there's nothing to prepare yet; otherwise a probabilistic
// skip backs off proportionally to load, and on a non-skipped tick the
// nearest unprepared block (walking outward from targetRow's block) is
// prepared and timed, feeding the adaptive-sizing history, then a
// (throttled) full render is requested.
func (s *Set) DoWork(evt scheduler.Event) {
	if !s.hasTarget {
		return
	}
	center := s.blockContaining(s.targetRow)
	if center < 0 {
		return
	}
	if s.RandFloat() <= evt.LoadFactor {
		return
	}

	idx := s.selectNextUnprepared(center)
	if idx < 0 {
		return
	}

	blk := s.blocks[idx]
	start := time.Now()
	blk.Prepare()
	dur := time.Since(start)
	s.recordPrepare(blk.Range().Height(), dur)
	s.requestRender()
}

func (s *Set) blockContaining(row int) int {
	for i, b := range s.blocks {
		if b.Range().ContainsNum(row) {
			return i
		}
	}
	return -1
}

// selectNextUnprepared walks outward from center (center, center-1,
// center+1, center-2, center+2, ...) returning the index of the first
// unprepared block found, or -1 if all are prepared.
func (s *Set) selectNextUnprepared(center int) int {
	if !s.blocks[center].Prepared() {
		return center
	}
	for offset := 1; ; offset++ {
		lo, hi := center-offset, center+offset
		if lo < 0 && hi >= len(s.blocks) {
			return -1
		}
		if lo >= 0 && !s.blocks[lo].Prepared() {
			return lo
		}
		if hi < len(s.blocks) && !s.blocks[hi].Prepared() {
			return hi
		}
	}
}

// recordPrepare retains dur only when size matches the current
// preferredBlockSize (stale measurements from before a shrink must not
// distort the control loop), then shrinks once shrinkThreshold of the
// last historyLen matching durations exceed preferredBlockTime.
func (s *Set) recordPrepare(size int, dur time.Duration) {
	if size != s.preferredBlockSize {
		return
	}
	s.prepareHistory = append(s.prepareHistory, dur)
	if len(s.prepareHistory) > historyLen {
		s.prepareHistory = s.prepareHistory[len(s.prepareHistory)-historyLen:]
	}
	if len(s.prepareHistory) < historyLen {
		return
	}

	over := 0
	for _, d := range s.prepareHistory {
		if d > preferredBlockTime {
			over++
		}
	}
	if over >= shrinkThreshold {
		shrink := int(math.Ceil(0.2 * float64(s.preferredBlockSize)))
		next := s.preferredBlockSize - shrink
		if next < s.minBlockSize {
			next = s.minBlockSize
		}
		s.preferredBlockSize = next
		s.prepareHistory = nil
	}
}

func (s *Set) requestRender() {
	now := time.Now()
	if !s.lastRenderAt.IsZero() && now.Sub(s.lastRenderAt) < renderThrottle {
		return
	}
	s.lastRenderAt = now
	s.Render()
}

// Render calls Render on every live block.
func (s *Set) Render() {
	for _, b := range s.blocks {
		b.Render()
	}
}

// FreeAll frees every live block and clears the set, used by the
// coordinator's reinit (spec.md §4.6): a data-source or size change
// invalidates every block's row range.
func (s *Set) FreeAll() {
	for _, b := range s.blocks {
		b.Free(s.pane)
	}
	s.blocks = nil
	s.hasTarget = false
	s.prepareHistory = nil
}

// Reposition calls UpdatePos on every live block, the coordinator's
// response to a committed RowHeightIndex change (spec.md §4.6
// updateRowSize: "repositions every block via updatePos").
func (s *Set) Reposition() {
	for _, b := range s.blocks {
		b.UpdatePos()
	}
}
