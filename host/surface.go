package host

import "github.com/gdamore/tcell/v2"

// Surface adapts a tcell.Screen to the narrow contract LongScroll needs
// from a host: init/teardown, geometry, cell writes, and the paint tick.
//
// Grounded on texel/driver_tcell.go's TcellScreenDriver, which wraps the
// same tcell.Screen calls (Init/Fini/Size/Show/PollEvent/SetContent) for
// the teacher's desktop compositor; re-scoped here to the single scrolling
// pane this module renders.
type Surface interface {
	Init() error
	Fini()
	Size() (w, h int)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Show()
	PollEvent() tcell.Event
	HideCursor()
}

// TcellSurface is the concrete Surface backed by a real tcell.Screen.
type TcellSurface struct {
	screen tcell.Screen
}

// NewTcellSurface wraps the given screen.
func NewTcellSurface(screen tcell.Screen) *TcellSurface {
	return &TcellSurface{screen: screen}
}

func (s *TcellSurface) Init() error { return s.screen.Init() }
func (s *TcellSurface) Fini()       { s.screen.Fini() }
func (s *TcellSurface) Size() (int, int) {
	return s.screen.Size()
}
func (s *TcellSurface) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	s.screen.SetContent(x, y, mainc, combc, style)
}
func (s *TcellSurface) Show()                { s.screen.Show() }
func (s *TcellSurface) PollEvent() tcell.Event { return s.screen.PollEvent() }
func (s *TcellSurface) HideCursor()          { s.screen.HideCursor() }

// Underlying exposes the wrapped tcell.Screen for call sites that need
// direct access (e.g. to set the terminal title).
func (s *TcellSurface) Underlying() tcell.Screen { return s.screen }
