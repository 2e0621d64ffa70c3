// Package datasource defines the row-data-source external interface of
// spec.md §6 and provides several concrete implementations exercising the
// teacher corpus's domain dependencies end to end.
package datasource

import (
	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/host"
)

// Source is the out-of-scope "row-data source" collaborator from spec.md
// §1/§6: a provider of real and placeholder row content for a given
// index. Length is constant between reinits.
type Source interface {
	Length() int

	// MakeRow builds real content for row i. May be expensive — this is
	// the call whose cost drives BlockSet's adaptive block sizing.
	MakeRow(i int) host.RowContent

	// MakeDummyRow builds cheap placeholder content for row i, sized to
	// height physical rows in style. Must be cheap.
	MakeDummyRow(i int, height int, style tcell.Style) host.RowContent

	// FreeRow is invoked when the core surrenders real content for row i.
	FreeRow(i int, content host.RowContent)

	// FreeDummyRow is invoked when the core surrenders placeholder content
	// for row i.
	FreeDummyRow(i int, content host.RowContent)
}

// DefaultDummyRow builds height blank lines, each width cells wide, in
// style — the shared cheap placeholder used by sources that don't need
// anything fancier.
func DefaultDummyRow(height, width int, style tcell.Style) host.RowContent {
	lines := make([]host.Line, height)
	for i := range lines {
		lines[i] = host.BlankLine(width, style)
	}
	return host.RowContent{Lines: lines}
}
