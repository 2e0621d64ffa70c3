package datasource

import (
	"bufio"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"

	"github.com/gridscroll/longscroll/host"
)

// PTYTail runs command under a pseudo-terminal and exposes its scrollback,
// one row per output line, as a growing Source: Length grows as the child
// produces output, firing onGrow so the coordinator can reinit.
//
// Grounded on tui/pty_app.go's PTYApp: pty.StartWithSize to launch the
// child, a background goroutine reading the pty file into a mutex-guarded
// buffer. PTYApp feeds a full VT100 parser/VTerm grid; a long-list row
// source has no such per-cell cursor/escape-sequence state to track, so
// this tails plain newline-delimited output instead of emulating a
// terminal.
type PTYTail struct {
	mu      sync.Mutex
	lines   []string
	width   int
	style   tcell.Style
	cmd     *exec.Cmd
	ptyFile *os.File
	logger  *log.Logger
	onGrow  func()
	done    chan struct{}
}

// StartPTYTail launches command (via /bin/sh -c) under a pty sized cols x
// rows and begins tailing its output. onGrow, if non-nil, is invoked from
// the reader goroutine each time at least one new line is appended; the
// caller is expected to marshal this back onto its own event loop rather
// than touch coordinator state directly from this goroutine.
func StartPTYTail(command string, cols, rows, width int, logger *log.Logger, onGrow func()) (*PTYTail, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	ptyFile, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	t := &PTYTail{
		width:   width,
		style:   tcell.StyleDefault,
		cmd:     cmd,
		ptyFile: ptyFile,
		logger:  logger,
		onGrow:  onGrow,
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *PTYTail) readLoop() {
	defer close(t.done)
	scanner := bufio.NewScanner(t.ptyFile)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		t.mu.Lock()
		t.lines = append(t.lines, line)
		t.mu.Unlock()
		if t.onGrow != nil {
			t.onGrow()
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		t.logger.Printf("datasource/pty: scan error: %v", err)
	}
}

// Stop terminates the child process and closes the pty.
func (t *PTYTail) Stop() {
	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	t.ptyFile.Close()
	<-t.done
}

func (t *PTYTail) Length() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

func (t *PTYTail) MakeRow(i int) host.RowContent {
	t.mu.Lock()
	text := t.lines[i]
	t.mu.Unlock()

	line := make(host.Line, 0, len(text))
	for _, r := range text {
		line = append(line, host.Cell{Ch: r, Style: t.style})
	}
	return host.RowContent{Lines: []host.Line{line}}
}

func (t *PTYTail) MakeDummyRow(i int, height int, style tcell.Style) host.RowContent {
	return DefaultDummyRow(height, t.width, style)
}

func (t *PTYTail) FreeRow(int, host.RowContent)      {}
func (t *PTYTail) FreeDummyRow(int, host.RowContent) {}
