// Package host is the terminal "host rendering surface" collaborator of
// spec.md §1/§6: a container surface the core only reads geometry from and
// appends row content to. It is the terminal re-typing of the DOM host the
// distilled spec was written against.
package host

// Rect is a rectangular region of terminal cells, grounded on the
// small-value-object Rect conventions visible across texelui/core.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) falls within the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Bottom returns the row index just past the rect (Y + H).
func (r Rect) Bottom() int { return r.Y + r.H }
