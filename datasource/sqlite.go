package datasource

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	_ "modernc.org/sqlite"

	"github.com/gridscroll/longscroll/host"
)

// SQLite pages row content from a SQLite table, grounded on
// apps/texelterm/parser/search_index.go's database/sql +
// modernc.org/sqlite usage (blank driver import, sql.Open("sqlite", dsn)).
// Dummy rows are cheap (no query); real rows run a single-row SELECT.
type SQLite struct {
	db       *sql.DB
	table    string
	textCol  string
	rowCount int
	width    int
	style    tcell.Style
	prepared *sql.Stmt
	logger   *log.Logger
}

// OpenSQLite opens dsn, verifies table/textCol exist, and caches the row
// count (Length is constant between reinits per spec.md §3).
//
// table and textCol are operator-supplied configuration (schema identifiers
// picked when wiring a source, never end-user input), so they're
// interpolated directly into the identifier positions of the query; the
// parameterized value (the row offset) is always passed as a bind arg.
func OpenSQLite(dsn, table, textCol string, width int, logger *log.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("datasource: open sqlite: %w", err)
	}

	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := db.QueryRow(countQuery).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("datasource: count rows in %s: %w", table, err)
	}

	stmt, err := db.Prepare(fmt.Sprintf("SELECT %s FROM %s LIMIT 1 OFFSET ?", textCol, table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("datasource: prepare row fetch: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &SQLite{
		db:       db,
		table:    table,
		textCol:  textCol,
		rowCount: count,
		width:    width,
		style:    tcell.StyleDefault,
		prepared: stmt,
		logger:   logger,
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	s.prepared.Close()
	return s.db.Close()
}

func (s *SQLite) Length() int { return s.rowCount }

func (s *SQLite) MakeRow(i int) host.RowContent {
	var text string
	if err := s.prepared.QueryRow(i).Scan(&text); err != nil {
		s.logger.Printf("datasource/sqlite: row %d fetch failed: %v", i, err)
		text = "<error loading row>"
	}
	line := make(host.Line, 0, len(text))
	for _, r := range text {
		line = append(line, host.Cell{Ch: r, Style: s.style})
	}
	return host.RowContent{Lines: []host.Line{line}}
}

func (s *SQLite) MakeDummyRow(i int, height int, style tcell.Style) host.RowContent {
	return DefaultDummyRow(height, s.width, style)
}

func (s *SQLite) FreeRow(int, host.RowContent)      {}
func (s *SQLite) FreeDummyRow(int, host.RowContent) {}
