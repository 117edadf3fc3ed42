// Package termdata defines the contract with the terminal-emulation
// component that owns the character-cell buffer. The rendering pipeline
// consumes this interface; it never parses escape sequences or manages
// scroll-back storage itself.
package termdata

import "context"

// Color is a packed cell color. The zero value means "default color".
// Values 1-255 are palette indices; anything above 255 is a packed
// 24-bit RGB value tagged with the rgbBit marker so that small RGB
// components cannot collide with palette indices.
type Color uint32

const rgbBit Color = 1 << 24

// RGB packs a 24-bit color. The result always compares greater than 255.
func RGB(r, g, b uint8) Color {
	return rgbBit | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// Palette returns a palette-indexed color.
func Palette(idx uint8) Color {
	return Color(idx)
}

// IsDefault reports whether the color is the terminal default.
func (c Color) IsDefault() bool { return c == 0 }

// IsRGB reports whether the color is a packed 24-bit RGB value.
func (c Color) IsRGB() bool { return c > 255 }

// RGBValue returns the packed rgb components. Only meaningful when IsRGB.
func (c Color) RGBValue() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Index returns the palette index. Only meaningful when !IsRGB.
func (c Color) Index() uint8 { return uint8(c) }

// Attr is a bitmask of per-cell visual attributes.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrItalic
	AttrUnderline
	AttrDim
	AttrInverse
	AttrInvisible
	AttrStrikethrough
	AttrOverline
)

// Has reports whether all bits in mask are set.
func (a Attr) Has(mask Attr) bool { return a&mask == mask }

// Cell is a single character cell as exposed by the data model.
// Width 0 marks the continuation cell of a wide character; the renderer
// skips those.
type Cell struct {
	Rune  rune
	Width int
	Fg    Color
	Bg    Color
	Attrs Attr
}

// Model is the terminal data model consumed by the pipeline.
//
// Length is the absolute buffer length in rows, scroll-back included.
// Line returns the cells of an absolute row, or nil past the buffer end.
// Cursor is in absolute buffer coordinates. Write may complete
// asynchronously inside the emulation component; it returns once the
// bytes are applied or ctx is done.
type Model interface {
	Length() int
	Cols() int
	Line(row int) []Cell
	Cursor() (row, col int)
	Write(ctx context.Context, data []byte) error
}
