// Package scheduler implements the three-phase (read/write/idle-write) frame
// task queue described in spec.md §4.1, §5.
//
// Grounded on internal/runtime/server/publish_scheduler.go's mutex-guarded,
// per-owner pending-work bookkeeping and internal/effects/timeline.go's
// mutex-protected per-key state map. Tasks are modeled as continuation
// callbacks invoked synchronously from Drain/CancelJobs rather than as
// goroutines parked on channels — spec.md §9 explicitly sanctions a
// state-machine encoding for languages without first-class suspended
// computations, and a channel/goroutine encoding would reintroduce real
// concurrency that the single-threaded cooperative model (spec.md §5)
// forbids reasoning about.
package scheduler

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gridscroll/longscroll/internal/errs"
)

// Owner identifies the caller a set of tasks belongs to, so cancelJobs can
// cancel them as a group. google/uuid is promoted here from the teacher's
// indirect-only dependency (see SPEC_FULL.md domain stack table).
type Owner = uuid.UUID

// NewOwner mints a fresh owner identity, e.g. one per Block.
func NewOwner() Owner { return uuid.New() }

// Phase is one of the three drain phases, always drained in this order.
type Phase int

const (
	PhaseRead Phase = iota
	PhaseWrite
	PhaseIdleWrite
)

func (p Phase) String() string {
	switch p {
	case PhaseRead:
		return "read"
	case PhaseWrite:
		return "write"
	case PhaseIdleWrite:
		return "idle-write"
	default:
		return "unknown"
	}
}

// State is a task's lifecycle state.
type State int

const (
	Pending State = iota
	Fulfilled
	Cancelled
)

// Event is delivered to every continuation drained within one Drain call.
type Event struct {
	LastFrameTime time.Duration
	LoadFactor    float64
}

// Continuation is invoked when a scheduled task resumes, either because its
// phase was drained (err == nil) or because its owner was cancelled
// (errors.Is(err, errs.ErrTaskCancelled)).
type Continuation func(Event, error)

// Thresholds configures the load-factor ramp (spec.md §4.1 defaults).
type Thresholds struct {
	LowMS   float64
	HighMS  float64
	MaxLoad float64
}

// DefaultThresholds matches spec.md §4.1: lowThresh=25ms, hiThresh=50ms,
// maxLoad=0.95.
func DefaultThresholds() Thresholds {
	return Thresholds{LowMS: 25, HighMS: 50, MaxLoad: 0.95}
}

type task struct {
	owner Owner
	phase Phase
	state State
	cont  Continuation
}

// Scheduler owns the three FIFO phase queues and per-owner task indices.
// Not safe for concurrent use; everything runs on the coordinator's single
// logical thread (spec.md §5).
type Scheduler struct {
	thresholds Thresholds
	queues     [3][]*task
	byOwner    map[Owner][]*task
}

// New builds a Scheduler with the given load-factor thresholds.
func New(thresholds Thresholds) *Scheduler {
	return &Scheduler{
		thresholds: thresholds,
		byOwner:    make(map[Owner][]*task),
	}
}

func (s *Scheduler) enqueue(phase Phase, owner Owner, cont Continuation) {
	t := &task{owner: owner, phase: phase, state: Pending, cont: cont}
	s.queues[phase] = append(s.queues[phase], t)
	s.byOwner[owner] = append(s.byOwner[owner], t)
}

// ScheduleRead queues cont onto the read phase.
func (s *Scheduler) ScheduleRead(owner Owner, cont Continuation) { s.enqueue(PhaseRead, owner, cont) }

// ScheduleWrite queues cont onto the write phase.
func (s *Scheduler) ScheduleWrite(owner Owner, cont Continuation) {
	s.enqueue(PhaseWrite, owner, cont)
}

// ScheduleIdleWrite queues cont onto the idle-write phase.
func (s *Scheduler) ScheduleIdleWrite(owner Owner, cont Continuation) {
	s.enqueue(PhaseIdleWrite, owner, cont)
}

// CancelJobs transitions every Pending task owned by owner to Cancelled,
// synchronously invoking its continuation with errs.ErrTaskCancelled.
// Already-Fulfilled tasks are left untouched.
func (s *Scheduler) CancelJobs(owner Owner) {
	pending := s.byOwner[owner]
	delete(s.byOwner, owner)
	for _, t := range pending {
		if t.state != Pending {
			continue
		}
		t.state = Cancelled
		s.removeFromQueue(t)
		t.cont(Event{}, errs.ErrTaskCancelled)
	}
}

func (s *Scheduler) removeFromQueue(t *task) {
	q := s.queues[t.phase]
	for i, other := range q {
		if other == t {
			s.queues[t.phase] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) forgetOwnerTask(t *task) {
	list := s.byOwner[t.owner]
	for i, other := range list {
		if other == t {
			s.byOwner[t.owner] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.byOwner[t.owner]) == 0 {
		delete(s.byOwner, t.owner)
	}
}

// drainPhase pops tasks off phase's queue until empty, invoking each
// Pending task's continuation. Because new tasks appended to this same
// phase during a continuation land at the back of the same slice, they are
// drained within this call too (spec.md §4.1: "a task resumed in phase P
// that schedules a new task onto phase P is allowed to be drained within
// the same drain() call").
func (s *Scheduler) drainPhase(phase Phase, evt Event) {
	for len(s.queues[phase]) > 0 {
		t := s.queues[phase][0]
		s.queues[phase] = s.queues[phase][1:]
		if t.state != Pending {
			continue
		}
		t.state = Fulfilled
		s.forgetOwnerTask(t)
		t.cont(evt, nil)
	}
}

// Drain runs one frame's worth of work: all read tasks, then all write
// tasks, then all idle-write tasks, computing the load factor once from
// avgFrameTime at the start and delivering the same Event to every task
// drained in this call.
func (s *Scheduler) Drain(avgFrameTime time.Duration) Event {
	evt := Event{
		LastFrameTime: avgFrameTime,
		LoadFactor:    s.loadFactor(avgFrameTime),
	}
	s.drainPhase(PhaseRead, evt)
	s.drainPhase(PhaseWrite, evt)
	s.drainPhase(PhaseIdleWrite, evt)
	return evt
}

func (s *Scheduler) loadFactor(avgFrameTime time.Duration) float64 {
	f := float64(avgFrameTime.Microseconds()) / 1000.0
	if s.thresholds.HighMS <= s.thresholds.LowMS {
		return 0
	}
	ratio := (f - s.thresholds.LowMS) / (s.thresholds.HighMS - s.thresholds.LowMS)
	return math.Max(0, math.Min(s.thresholds.MaxLoad, ratio))
}

// PendingCount reports the number of still-pending tasks across all
// phases, mostly useful for tests and debugging.
func (s *Scheduler) PendingCount() int {
	n := 0
	for _, q := range s.queues {
		n += len(q)
	}
	return n
}
