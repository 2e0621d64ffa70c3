// Package geom implements the Range value type shared by the row-index and
// pixel coordinate systems.
package geom

import (
	"math"

	"github.com/gridscroll/longscroll/internal/errs"
)

// Number is the constraint satisfied by both coordinate systems: row
// indices (int) and pixel offsets (float64).
type Number interface {
	~int | ~int64 | ~float64
}

// Range is a half-open interval [Top, Bot). The same structure is used for
// row-index ranges and pixel ranges; Top <= Bot always holds and neither
// bound is NaN.
type Range[T Number] struct {
	Top T
	Bot T
}

// New builds a Range, returning an invariant-violation error if top > bot
// or either bound is NaN.
func New[T Number](top, bot T) (Range[T], error) {
	if isNaN(top) || isNaN(bot) {
		return Range[T]{}, errs.NewInvariantViolation("range bound is NaN")
	}
	if top > bot {
		return Range[T]{}, errs.NewInvariantViolation("range top > bot")
	}
	return Range[T]{Top: top, Bot: bot}, nil
}

// Must is New but panics on error; for call sites constructing a Range from
// values already known to be valid (e.g. literals in tests).
func Must[T Number](top, bot T) Range[T] {
	r, err := New(top, bot)
	if err != nil {
		panic(err)
	}
	return r
}

func isNaN[T Number](v T) bool {
	f := float64(v)
	return math.IsNaN(f)
}

// Height returns Bot - Top.
func (r Range[T]) Height() T { return r.Bot - r.Top }

// Empty reports whether the range contains no values.
func (r Range[T]) Empty() bool { return r.Top >= r.Bot }

// ContainsNum reports whether i lies in [Top, Bot).
func (r Range[T]) ContainsNum(i T) bool { return r.Top <= i && i < r.Bot }

// Contains reports whether other lies entirely within r. An empty other is
// always contained; a non-empty other is contained iff both its first and
// last element are in r.
func (r Range[T]) Contains(other Range[T]) bool {
	if other.Empty() {
		return true
	}
	return r.ContainsNum(other.Top) && r.ContainsNum(other.Bot-1)
}

// Equals reports structural equality.
func (r Range[T]) Equals(other Range[T]) bool {
	return r.Top == other.Top && r.Bot == other.Bot
}

// ClampTo returns the intersection of r and other, collapsed to an empty
// range at the point of disjunction when they don't overlap.
func (r Range[T]) ClampTo(other Range[T]) Range[T] {
	top := max(r.Top, other.Top)
	bot := min(r.Bot, other.Bot)
	if top > bot {
		// Disjoint: collapse to an empty range anchored at r's own bound
		// nearest to other, matching spec.md's "collapsed to an empty range".
		if r.Top > other.Bot {
			return Range[T]{Top: r.Top, Bot: r.Top}
		}
		return Range[T]{Top: r.Bot, Bot: r.Bot}
	}
	return Range[T]{Top: top, Bot: bot}
}

// ClampNum clamps i into [Top, Bot-1], the valid index range for a
// non-empty Range.
func (r Range[T]) ClampNum(i T) T {
	hi := r.Bot - 1
	if i < r.Top {
		return r.Top
	}
	if i > hi {
		return hi
	}
	return i
}

// Expand grows the range by delta on each side, without clamping.
func (r Range[T]) Expand(delta T) Range[T] {
	return Range[T]{Top: r.Top - delta, Bot: r.Bot + delta}
}

func max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func min[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}
