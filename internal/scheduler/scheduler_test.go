package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/gridscroll/longscroll/internal/errs"
)

func TestDrainOrdersReadBeforeWriteBeforeIdleWrite(t *testing.T) {
	s := New(DefaultThresholds())
	owner := NewOwner()
	var order []string

	s.ScheduleIdleWrite(owner, func(Event, error) { order = append(order, "idle-write") })
	s.ScheduleWrite(owner, func(Event, error) { order = append(order, "write") })
	s.ScheduleRead(owner, func(Event, error) { order = append(order, "read") })

	s.Drain(0)

	want := []string{"read", "write", "idle-write"}
	if len(order) != len(want) {
		t.Fatalf("got %v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v want %v", order, want)
		}
	}
}

func TestFIFOWithinPhase(t *testing.T) {
	s := New(DefaultThresholds())
	owner := NewOwner()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.ScheduleWrite(owner, func(Event, error) { order = append(order, i) })
	}
	s.Drain(0)
	for i := 0; i < 5; i++ {
		if order[i] != i {
			t.Fatalf("got %v, want 0..4 in order", order)
		}
	}
}

func TestContinuationReschedulingSamePhaseDrainsSameCall(t *testing.T) {
	s := New(DefaultThresholds())
	owner := NewOwner()
	var ran []string

	// A write continuation that schedules another write sees it drained
	// in the same Drain call. A read it schedules waits for the next
	// Drain, because this call's read phase has already run.
	s.ScheduleWrite(owner, func(evt Event, err error) {
		ran = append(ran, "write1")
		s.ScheduleRead(owner, func(evt Event, err error) {
			ran = append(ran, "read1")
		})
		s.ScheduleWrite(owner, func(evt Event, err error) {
			ran = append(ran, "write2")
		})
	})

	s.Drain(0)

	want := []string{"write1", "write2"}
	if len(ran) != len(want) {
		t.Fatalf("got %v want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Fatalf("got %v want %v", ran, want)
		}
	}

	s.Drain(0)

	want = []string{"write1", "write2", "read1"}
	if len(ran) != len(want) {
		t.Fatalf("got %v want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Fatalf("got %v want %v", ran, want)
		}
	}
}

func TestCancelJobsSurfacesFailureAndSkipsFulfilled(t *testing.T) {
	s := New(DefaultThresholds())
	a := NewOwner()
	b := NewOwner()

	var aErr, bErr error
	var bRan bool

	s.ScheduleRead(a, func(evt Event, err error) { aErr = err })
	s.ScheduleWrite(b, func(evt Event, err error) { bRan = true; bErr = err })

	// Cancel a before any Drain: its continuation should fire immediately
	// with ErrTaskCancelled.
	s.CancelJobs(a)
	if !errors.Is(aErr, errs.ErrTaskCancelled) {
		t.Fatalf("expected ErrTaskCancelled, got %v", aErr)
	}
	if bRan {
		t.Fatal("owner b's task should not have run yet")
	}

	s.Drain(0)
	if !bRan || bErr != nil {
		t.Fatalf("expected b's task fulfilled with nil error, ran=%v err=%v", bRan, bErr)
	}

	// Cancelling a again (already fully removed) must be a no-op, not a
	// second invocation or a panic.
	s.CancelJobs(a)
}

func TestCancelJobsLeavesFulfilledTasksUntouched(t *testing.T) {
	s := New(DefaultThresholds())
	owner := NewOwner()
	calls := 0
	s.ScheduleRead(owner, func(Event, error) { calls++ })
	s.Drain(0)
	if calls != 1 {
		t.Fatalf("got %d calls want 1", calls)
	}
	s.CancelJobs(owner)
	if calls != 1 {
		t.Fatalf("fulfilled task's continuation re-invoked: calls=%d", calls)
	}
}

func TestLoadFactorRamp(t *testing.T) {
	s := New(DefaultThresholds())
	if got := s.loadFactor(0); got != 0 {
		t.Fatalf("at rest: got %v want 0", got)
	}
	if got := s.loadFactor(25 * time.Millisecond); got != 0 {
		t.Fatalf("at lowThresh: got %v want 0", got)
	}
	mid := s.loadFactor(37500 * time.Microsecond) // halfway between 25 and 50ms
	if mid < 0.49 || mid > 0.51 {
		t.Fatalf("at midpoint: got %v want ~0.5", mid)
	}
	if got := s.loadFactor(1 * time.Second); got != DefaultThresholds().MaxLoad {
		t.Fatalf("clamped: got %v want %v", got, DefaultThresholds().MaxLoad)
	}
}

func TestDrainDeliversSameEventToAllTasksInCall(t *testing.T) {
	s := New(DefaultThresholds())
	owner := NewOwner()
	var events []Event
	s.ScheduleRead(owner, func(evt Event, _ error) { events = append(events, evt) })
	s.ScheduleWrite(owner, func(evt Event, _ error) { events = append(events, evt) })
	s.ScheduleIdleWrite(owner, func(evt Event, _ error) { events = append(events, evt) })

	s.Drain(40 * time.Millisecond)

	if len(events) != 3 {
		t.Fatalf("got %d events want 3", len(events))
	}
	for _, e := range events[1:] {
		if e != events[0] {
			t.Fatalf("events differ within one Drain call: %+v vs %+v", e, events[0])
		}
	}
}
