// Package rowindex implements RowHeightIndex: a prefix-sum mapping from row
// index to pixel height supporting O(log N) prefixSum/set and an inverse
// pixel->row lookup that must agree with prefixSum exactly.
//
// Grounded on apps/texelterm/parser/viewport_physical_index.go's
// PhysicalLineIndex (prefix sums over per-line physical line counts), but
// reimplemented as a Fenwick tree (binary indexed tree) so that set(i, h)
// is O(log N) rather than the O(N) full-array rebuild PhysicalLineIndex
// uses — spec.md §3 requires O(log N) for both directions.
package rowindex

import (
	"github.com/gridscroll/longscroll/internal/errs"
)

// DefaultHeight is the height New gives every row before any explicit
// height is set.
const DefaultHeight = 30

// Index is a Fenwick tree over N rows, each starting at DefaultHeight
// pixels. It is not safe for concurrent use; the coordinator's
// single-threaded cooperative model (spec.md §5) is the only caller.
type Index struct {
	n       int
	tree    []float64 // 1-based Fenwick tree of heights
	heights []float64 // 0-based current height per row, kept for set() deltas
}

// New builds an Index over n rows, each defaulting to DefaultHeight pixels.
func New(n int) *Index {
	idx := &Index{
		n:       n,
		tree:    make([]float64, n+1),
		heights: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		idx.heights[i] = DefaultHeight
		idx.add(i, DefaultHeight)
	}
	return idx
}

func (idx *Index) add(i int, delta float64) {
	for i++; i <= idx.n; i += i & (-i) {
		idx.tree[i] += delta
	}
}

// PrefixSum returns the sum of heights over rows [0, i). i may range over
// [0, N]; PrefixSum(0) is 0 and PrefixSum(N) is Total().
func (idx *Index) PrefixSum(i int) float64 {
	if i <= 0 {
		return 0
	}
	if i > idx.n {
		i = idx.n
	}
	var sum float64
	for ; i > 0; i -= i & (-i) {
		sum += idx.tree[i]
	}
	return sum
}

// SumRange returns the sum of heights over rows [a, b).
func (idx *Index) SumRange(a, b int) float64 {
	if b <= a {
		return 0
	}
	return idx.PrefixSum(b) - idx.PrefixSum(a)
}

// Total returns the sum of all row heights — the scroll pane's declared
// height once committed (spec.md §3 invariant, see longscroll.LongScroll).
func (idx *Index) Total() float64 {
	return idx.PrefixSum(idx.n)
}

// Len returns N, the fixed row count.
func (idx *Index) Len() int { return idx.n }

// Set updates row i's height. Returns an invariant-violation error for an
// out-of-bounds row.
func (idx *Index) Set(i int, height float64) error {
	if i < 0 || i >= idx.n {
		return errs.NewInvariantViolation("rowindex.Set: row index out of bounds")
	}
	delta := height - idx.heights[i]
	if delta == 0 {
		return nil
	}
	idx.heights[i] = height
	idx.add(i, delta)
	return nil
}

// Height returns row i's current height, or DefaultHeight for an
// out-of-bounds row (accessor contract mirrors spec.md §6's
// getRowHeight(i), which has no documented bounds error).
func (idx *Index) Height(i int) float64 {
	if i < 0 || i >= idx.n {
		return DefaultHeight
	}
	return idx.heights[i]
}

// IndexAt returns the largest i such that PrefixSum(i) <= px, or N if px
// is at or past the pane's total height. Implemented via binary lifting
// over the Fenwick tree so the walk is O(log N), matching PrefixSum's cost.
func (idx *Index) IndexAt(px float64) int {
	if px < 0 {
		px = 0
	}
	pos := 0
	remaining := px
	for bit := highestPowerOfTwo(idx.n); bit > 0; bit >>= 1 {
		next := pos + bit
		if next <= idx.n && idx.tree[next] <= remaining {
			pos = next
			remaining -= idx.tree[next]
		}
	}
	if pos >= idx.n {
		return idx.n
	}
	return pos
}

func highestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// ClampedIndexAt is IndexAt saturated to [0, N-1], matching
// getClampedRowAtPx in spec.md §6.
func (idx *Index) ClampedIndexAt(px float64) int {
	i := idx.IndexAt(px)
	if idx.n == 0 {
		return 0
	}
	if i >= idx.n {
		return idx.n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// RowAt is IndexAt but returns an invariant-violation error for an
// out-of-bounds pixel lookup (getRowAtPx in spec.md §6, which "errors if
// out of bounds" rather than saturating).
func (idx *Index) RowAt(px float64) (int, error) {
	if px < 0 || px >= idx.Total() {
		return 0, errs.NewInvariantViolation("rowindex.RowAt: pixel out of bounds")
	}
	return idx.IndexAt(px), nil
}
