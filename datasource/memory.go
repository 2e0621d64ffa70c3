package datasource

import (
	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/host"
)

// Memory is a slice-backed Source with no third-party dependency: a fixture
// for tests and the simplest demo mode.
type Memory struct {
	Rows  []string
	Style tcell.Style
	Width int
}

// NewMemory builds a Memory source over rows, rendered at the given
// terminal width.
func NewMemory(rows []string, width int) *Memory {
	return &Memory{Rows: rows, Style: tcell.StyleDefault, Width: width}
}

func (m *Memory) Length() int { return len(m.Rows) }

func (m *Memory) MakeRow(i int) host.RowContent {
	line := make(host.Line, 0, m.Width)
	for _, r := range m.Rows[i] {
		line = append(line, host.Cell{Ch: r, Style: m.Style})
	}
	return host.RowContent{Lines: []host.Line{line}}
}

func (m *Memory) MakeDummyRow(i int, height int, style tcell.Style) host.RowContent {
	return DefaultDummyRow(height, m.Width, style)
}

func (m *Memory) FreeRow(int, host.RowContent)      {}
func (m *Memory) FreeDummyRow(int, host.RowContent) {}
