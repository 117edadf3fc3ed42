// Package render converts a viewport offset plus a row count into styled
// terminal markup reflecting the data model's cells. Consecutive cells
// with identical visual attributes coalesce into one styled run, and the
// whole frame is committed to the target in a single call so a repaint
// never shows a half-drawn screen.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/ptyglass/ptyglass/internal/diag"
	"github.com/ptyglass/ptyglass/internal/termdata"
)

// Frame is one complete repaint, committed atomically.
type Frame struct {
	// Lines are the styled rows, top to bottom. Rows past the buffer end
	// are empty placeholders.
	Lines []string

	// PixelOffset is the sub-row scroll remainder in pixels. The render
	// target shifts the first row up by this amount; cell-grid targets
	// that cannot shift sub-row simply ignore it.
	PixelOffset float64

	// ViewportY and RowCount echo the request that produced this frame.
	ViewportY float64
	RowCount  int

	// Overlay is the diagnostic line, empty unless diagnostics are on.
	// It is advisory and never part of Lines.
	Overlay string
}

// Target receives committed frames. Exactly one Commit happens per
// Render call.
type Target interface {
	Commit(Frame)
}

// Renderer reads the data model and produces frames.
type Renderer struct {
	model  termdata.Model
	target Target

	lineHeight float64
	showDiag   bool

	renderCount  uint64
	lastDuration time.Duration
	frameTimes   []time.Time // rolling window for FPS
	now          func() time.Time
}

// New creates a Renderer over the given model committing to target.
func New(model termdata.Model, target Target, lineHeight float64) *Renderer {
	if lineHeight <= 0 {
		lineHeight = 1
	}
	return &Renderer{
		model:      model,
		target:     target,
		lineHeight: lineHeight,
		now:        time.Now,
	}
}

// SetLineHeight changes the pixel height of one buffer row.
func (r *Renderer) SetLineHeight(h float64) {
	if h > 0 {
		r.lineHeight = h
	}
}

// LineHeight returns the pixel height of one buffer row.
func (r *Renderer) LineHeight() float64 { return r.lineHeight }

// SetDiagnostics toggles the overlay. It has no effect on Lines.
func (r *Renderer) SetDiagnostics(on bool) { r.showDiag = on }

// Render builds the frame for the given viewport offset and row count
// and commits it to the target in a single call.
func (r *Renderer) Render(viewportY float64, rowCount int) {
	start := r.now()

	lines, pixelOffset := r.BuildLines(viewportY, rowCount)
	frame := Frame{
		Lines:       lines,
		PixelOffset: pixelOffset,
		ViewportY:   viewportY,
		RowCount:    rowCount,
	}

	r.lastDuration = r.now().Sub(start)
	r.renderCount++
	r.recordFrameTime(start)
	if r.showDiag {
		frame.Overlay = r.overlay()
	}

	r.target.Commit(frame)
	diag.ObserveRender(r.lastDuration)
}

// BuildLines produces the styled rows for a viewport offset without
// committing them. Two calls with identical arguments and an unchanged
// model yield byte-identical output.
func (r *Renderer) BuildLines(viewportY float64, rowCount int) (lines []string, pixelOffset float64) {
	startRow := int(viewportY / r.lineHeight)
	pixelOffset = viewportY - float64(startRow)*r.lineHeight

	cursorRow, cursorCol := r.model.Cursor()

	lines = make([]string, rowCount)
	for i := 0; i < rowCount; i++ {
		row := startRow + i
		cells := r.model.Line(row)
		if cells == nil {
			lines[i] = ""
			continue
		}
		cursorAt := -1
		if row == cursorRow {
			cursorAt = cursorCol
		}
		lines[i] = LinkifyLine(renderRow(cells, cursorAt))
	}
	return lines, pixelOffset
}

// RenderCount returns how many frames have been committed.
func (r *Renderer) RenderCount() uint64 { return r.renderCount }

// LastDuration returns the build+commit time of the latest frame.
func (r *Renderer) LastDuration() time.Duration { return r.lastDuration }

// recordFrameTime keeps a rolling window of recent frame times.
func (r *Renderer) recordFrameTime(t time.Time) {
	r.frameTimes = append(r.frameTimes, t)
	if len(r.frameTimes) > 60 {
		r.frameTimes = r.frameTimes[len(r.frameTimes)-60:]
	}
}

// FPS returns the rolling frames-per-second over the recent window.
func (r *Renderer) FPS() float64 {
	n := len(r.frameTimes)
	if n < 2 {
		return 0
	}
	span := r.frameTimes[n-1].Sub(r.frameTimes[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

func (r *Renderer) overlay() string {
	return "frames=" + strconv.FormatUint(r.renderCount, 10) +
		" last=" + r.lastDuration.Round(10*time.Microsecond).String() +
		" fps=" + strconv.FormatFloat(r.FPS(), 'f', 1, 64)
}

// styleKey identifies one run of visually identical cells.
type styleKey struct {
	fg    termdata.Color
	bg    termdata.Color
	attrs termdata.Attr
}

// renderRow converts one row of cells into a styled string. cursorAt is
// the column to highlight, or -1. Zero-width continuation cells are
// skipped; invisible cells render as blanks; the run text is escaped so
// stray control bytes in the buffer cannot corrupt the markup.
func renderRow(cells []termdata.Cell, cursorAt int) string {
	var b strings.Builder
	var run strings.Builder
	var cur styleKey
	open := false
	styled := false // an SGR prefix is active and needs a closing reset

	// Every styled run opens with a leading reset (\x1b[0;...m) so its
	// appearance depends only on the cells, never on prior runs.
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if params := sgrParams(cur); len(params) > 0 {
			b.WriteString("\x1b[0;")
			b.WriteString(strings.Join(params, ";"))
			b.WriteString("m")
			b.WriteString(run.String())
			styled = true
		} else {
			if styled {
				b.WriteString(sgrReset)
				styled = false
			}
			b.WriteString(run.String())
		}
		run.Reset()
	}

	col := 0
	for _, c := range cells {
		if c.Width == 0 {
			continue
		}

		attrs := c.Attrs
		if cursorAt >= col && cursorAt < col+c.Width {
			// The cursor cell inverts on top of its own attributes.
			attrs ^= termdata.AttrInverse
		}
		key := styleKey{fg: c.Fg, bg: c.Bg, attrs: attrs}
		if !open || key != cur {
			flush()
			cur = key
			open = true
		}
		run.WriteString(escapeCell(c))
		col += c.Width
	}
	flush()
	if styled {
		b.WriteString(sgrReset)
	}
	return b.String()
}

const sgrReset = "\x1b[0m"

// sgrParams maps a style key to SGR parameters. Inverse is delegated to
// the terminal's own video swap (SGR 7) rather than swapping colors here.
func sgrParams(key styleKey) []string {
	var params []string
	a := key.attrs
	if a.Has(termdata.AttrBold) {
		params = append(params, "1")
	}
	if a.Has(termdata.AttrDim) {
		params = append(params, "2")
	}
	if a.Has(termdata.AttrItalic) {
		params = append(params, "3")
	}
	if a.Has(termdata.AttrUnderline) {
		params = append(params, "4")
	}
	if a.Has(termdata.AttrInverse) {
		params = append(params, "7")
	}
	if a.Has(termdata.AttrInvisible) {
		params = append(params, "8")
	}
	if a.Has(termdata.AttrStrikethrough) {
		params = append(params, "9")
	}
	if a.Has(termdata.AttrOverline) {
		params = append(params, "53")
	}
	if p := colorParams(key.fg, true); p != "" {
		params = append(params, p)
	}
	if p := colorParams(key.bg, false); p != "" {
		params = append(params, p)
	}
	return params
}

// colorParams renders one color as SGR parameters: palette indices as
// 38;5;n / 48;5;n, packed RGB as 38;2;r;g;b / 48;2;r;g;b.
func colorParams(c termdata.Color, isFg bool) string {
	if c.IsDefault() {
		return ""
	}
	base := "48"
	if isFg {
		base = "38"
	}
	if c.IsRGB() {
		r, g, b := c.RGBValue()
		return base + ";2;" + itoa(int(r)) + ";" + itoa(int(g)) + ";" + itoa(int(b))
	}
	return base + ";5;" + itoa(int(c.Index()))
}

func itoa(n int) string { return strconv.Itoa(n) }

// escapeCell returns the printable text of one cell. Control runes are
// rendered as spaces so buffer content can never inject sequences into
// the committed markup.
func escapeCell(c termdata.Cell) string {
	r := c.Rune
	if r == 0 || r < 0x20 || r == 0x7f {
		return strings.Repeat(" ", c.Width)
	}
	return string(r)
}
