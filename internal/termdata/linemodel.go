package termdata

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// DefaultScrollback is the row cap for LineModel before old rows are dropped.
const DefaultScrollback = 10000

// LineModel is a minimal line-oriented Model implementation. It treats the
// output stream as plain text: styling escape sequences are stripped, not
// interpreted, and lines wrap at the configured column width. It exists so
// the shipped client and the tests have a concrete data model; a full
// terminal emulator can be plugged in through the Model interface instead.
type LineModel struct {
	mu      sync.Mutex
	cols    int
	maxRows int

	rows    [][]Cell // committed rows, wrapped at cols
	partial string   // text of the line still being written
	pending []byte   // undecoded tail of the input stream
	dropped int      // rows discarded to honor maxRows
}

// NewLineModel creates a LineModel with the given column width.
func NewLineModel(cols int) *LineModel {
	if cols < 1 {
		cols = 80
	}
	return &LineModel{cols: cols, maxRows: DefaultScrollback}
}

// SetMaxRows caps the committed row count. Oldest rows are dropped first.
func (m *LineModel) SetMaxRows(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxRows = n
	}
}

// Reset discards all buffered content. Used on reconnect before a buffer
// restore repopulates the model.
func (m *LineModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	m.partial = ""
	m.pending = nil
	m.dropped = 0
}

// Length returns the absolute buffer length in rows, including the live row.
func (m *LineModel) Length() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows) + len(m.wrapLocked(m.partial))
}

// Cols returns the column width rows wrap at.
func (m *LineModel) Cols() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cols
}

// Resize changes the column width. Committed rows are not reflowed; only
// subsequently written lines wrap at the new width.
func (m *LineModel) Resize(cols int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cols >= 1 {
		m.cols = cols
	}
}

// Line returns the cells for an absolute row, or nil past the buffer end.
func (m *LineModel) Line(row int) []Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 0 {
		return nil
	}
	if row < len(m.rows) {
		return m.rows[row]
	}
	live := m.wrapLocked(m.partial)
	idx := row - len(m.rows)
	if idx < len(live) {
		return live[idx]
	}
	return nil
}

// Cursor returns the write position in absolute buffer coordinates.
func (m *LineModel) Cursor() (row, col int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.wrapLocked(m.partial)
	row = len(m.rows) + len(live) - 1
	col = 0
	if n := len(live); n > 0 {
		for _, c := range live[n-1] {
			col += c.Width
		}
	}
	return row, col
}

// Write appends output bytes to the buffer. Complete lines are committed
// and wrapped; the trailing segment stays live until its newline arrives.
func (m *LineModel) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = append(m.pending, data...)

	// Hold back a trailing partial escape sequence so ansi.Strip never
	// sees half a sequence.
	text := m.pending
	if i := lastEscStart(text); i >= 0 {
		text = text[:i]
		m.pending = m.pending[i:]
	} else {
		m.pending = nil
	}

	s := m.partial + string(text)
	for {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			break
		}
		m.commitLocked(s[:nl])
		s = s[nl+1:]
	}
	// Carriage return without newline rewrites the live line.
	if cr := strings.LastIndexByte(s, '\r'); cr >= 0 {
		s = s[cr+1:]
	}
	m.partial = s
	return nil
}

// commitLocked wraps one logical line into rows and appends them.
func (m *LineModel) commitLocked(line string) {
	m.rows = append(m.rows, m.wrapLocked(line)...)
	if over := len(m.rows) - m.maxRows; over > 0 {
		m.rows = m.rows[over:]
		m.dropped += over
	}
}

// wrapLocked converts a logical line into cell rows of at most cols width.
// An empty line still yields one empty row, so blank lines occupy space and
// the cursor always has a row to sit on.
func (m *LineModel) wrapLocked(line string) [][]Cell {
	line = strings.TrimSuffix(line, "\r")
	text := ansi.Strip(line)

	var out [][]Cell
	row := make([]Cell, 0, m.cols)
	width := 0
	for _, r := range text {
		if r == '\t' {
			r = ' '
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if width+w > m.cols {
			out = append(out, row)
			row = make([]Cell, 0, m.cols)
			width = 0
		}
		row = append(row, Cell{Rune: r, Width: w})
		if w == 2 {
			row = append(row, Cell{Rune: 0, Width: 0})
		}
		width += w
	}
	if len(row) > 0 {
		out = append(out, row)
	}
	if len(out) == 0 {
		out = append(out, []Cell{})
	}
	return out
}

// Dropped returns how many rows were discarded to honor the row cap.
func (m *LineModel) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// lastEscStart returns the index of a trailing, possibly-incomplete escape
// sequence in p, or -1 if p ends with complete text.
func lastEscStart(p []byte) int {
	for i := len(p) - 1; i >= 0 && len(p)-i < 64; i-- {
		if p[i] != 0x1b {
			continue
		}
		if seqTerminated(p[i:]) {
			return -1
		}
		return i
	}
	return -1
}

// seqTerminated reports whether an escape sequence starting at p[0] is
// complete. Only CSI and OSC framing is recognized; anything else is
// treated as complete so it cannot stall the stream.
func seqTerminated(p []byte) bool {
	if len(p) < 2 {
		return false
	}
	switch p[1] {
	case '[': // CSI: terminated by a byte in 0x40-0x7e
		for _, b := range p[2:] {
			if b >= 0x40 && b <= 0x7e {
				return true
			}
		}
		return false
	case ']': // OSC: terminated by BEL or ST
		for i := 2; i < len(p); i++ {
			if p[i] == 0x07 || (p[i] == '\\' && p[i-1] == 0x1b) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
