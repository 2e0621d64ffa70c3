package datasource

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	enry "github.com/go-enry/go-enry/v2"
	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/host"
)

const defaultChromaStyle = "monokai"

// Highlighted renders source-code rows with syntax color: dummy rows are
// blank lines (cheap), real rows run a chroma lexer over a small trailing-
// context window (expensive — exercises BlockSet's adaptive sizing).
//
// Grounded on apps/texelterm/txfmt/chroma.go's chromaColorizeLines
// (multi-line tokenization for lexer context, style-name resolution with
// fallback) and go-enry's language detection paired with chroma there.
type Highlighted struct {
	lines      []string
	filename   string
	width      int
	style      *chroma.Style
	lexer      chroma.Lexer
	contextLen int
}

// NewHighlighted builds a Highlighted source over lines, detecting the
// language from filename's contents via go-enry and picking a chroma lexer
// accordingly, falling back to a plain-text lexer.
func NewHighlighted(lines []string, filename string, width int) *Highlighted {
	style := styles.Get(defaultChromaStyle)
	if style == nil {
		style = styles.Fallback
	}

	sample := strings.Join(lines, "\n")
	lang := enry.GetLanguage(filename, []byte(sample))
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	return &Highlighted{
		lines:      lines,
		filename:   filename,
		width:      width,
		style:      style,
		lexer:      lexer,
		contextLen: 50,
	}
}

func (h *Highlighted) Length() int { return len(h.lines) }

// MakeRow tokenizes a trailing-context window ending at i so the lexer
// sees enough surrounding structure (imports, open braces) to classify
// tokens correctly, then keeps only row i's tokens.
func (h *Highlighted) MakeRow(i int) host.RowContent {
	start := i - h.contextLen
	if start < 0 {
		start = 0
	}
	context := strings.Join(h.lines[start:i+1], "\n")

	iterator, err := h.lexer.Tokenise(nil, context)
	if err != nil {
		return h.plainRow(i)
	}

	// Walk tokens, counting newlines, to isolate the tokens belonging to
	// the final (target) line only.
	targetLineIdx := i - start
	var cells host.Line
	lineIdx := 0
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		entry := h.style.Get(tok.Type)
		st := chromaEntryToStyle(entry)
		for _, r := range tok.Value {
			if r == '\n' {
				lineIdx++
				continue
			}
			if lineIdx == targetLineIdx {
				cells = append(cells, host.Cell{Ch: r, Style: st})
			}
		}
	}
	if cells == nil {
		return h.plainRow(i)
	}
	return host.RowContent{Lines: []host.Line{cells}}
}

func (h *Highlighted) plainRow(i int) host.RowContent {
	line := make(host.Line, 0, len(h.lines[i]))
	for _, r := range h.lines[i] {
		line = append(line, host.Cell{Ch: r, Style: tcell.StyleDefault})
	}
	return host.RowContent{Lines: []host.Line{line}}
}

func chromaEntryToStyle(entry chroma.StyleEntry) tcell.Style {
	st := tcell.StyleDefault
	if entry.Colour.IsSet() {
		st = st.Foreground(tcell.NewRGBColor(int32(entry.Colour.Red()), int32(entry.Colour.Green()), int32(entry.Colour.Blue())))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		st = st.Underline(true)
	}
	return st
}

func (h *Highlighted) MakeDummyRow(i int, height int, style tcell.Style) host.RowContent {
	return DefaultDummyRow(height, h.width, style)
}

func (h *Highlighted) FreeRow(int, host.RowContent)      {}
func (h *Highlighted) FreeDummyRow(int, host.RowContent) {}
