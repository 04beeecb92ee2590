package draw

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// Canvas is a pixel buffer rendered with half-block characters, so every
// terminal cell holds two vertically stacked pixels. Drawing happens in
// logical coordinates that are scaled to the current terminal size. Render
// only emits cells that changed since the previous frame.
type Canvas struct {
	termWidth      int
	termHeight     int
	subPixelHeight int    // termHeight * 2
	pixels         []bool // [y*termWidth + x]
	drawn          []rune // Last rune written per cell; 0 forces a rewrite

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64
	scaleY        float64

	// 0-based offsets centring the canvas in a larger terminal.
	offsetCol int
	offsetRow int

	renderBuf strings.Builder
	numBuf    [20]byte
}

// NewCanvas creates an unscaled canvas: one logical unit per pixel.
func NewCanvas(width, height int) *Canvas {
	return NewScaledCanvas(width, height, float64(width), float64(height*2))
}

// NewScaledCanvas creates a canvas of termWidth x termHeight cells that maps
// a logicalWidth x logicalHeight drawing space onto its pixels.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{logicalWidth: logicalWidth, logicalHeight: logicalHeight}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize adapts the canvas to new terminal dimensions. The logical size is
// kept.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]bool, c.subPixelHeight*termWidth)
		c.drawn = make([]rune, termHeight*termWidth)
	}
	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
}

// SetOffset sets the centring offset; the canvas starts at terminal cell
// (col+1, row+1).
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

func (c *Canvas) OffsetCol() int { return c.offsetCol }
func (c *Canvas) OffsetRow() int { return c.offsetRow }

// TerminalWidth returns the canvas width in cells.
func (c *Canvas) TerminalWidth() int { return c.termWidth }

// TerminalHeight returns the canvas height in cells.
func (c *Canvas) TerminalHeight() int { return c.termHeight }

// Clear unsets every pixel. The drawn cache is kept so the next Render
// blanks only the cells that were lit.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

func (c *Canvas) toPixel(p Point) (int, int) {
	return int(math.Round(p.X * c.scaleX)), int(math.Round(p.Y * c.scaleY))
}

func (c *Canvas) setPixel(x, y int) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = true
	}
}

// SetFloat lights the pixel at logical (x, y).
func (c *Canvas) SetFloat(x, y float64) {
	c.setPixel(c.toPixel(Point{X: x, Y: y}))
}

// DrawLine draws a Bresenham line between two logical points.
func (c *Canvas) DrawLine(p1, p2 Point) {
	x1, y1 := c.toPixel(p1)
	x2, y2 := c.toPixel(p2)

	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		c.setPixel(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawRect draws the axis-aligned rectangle spanned by two logical corners,
// outlined or filled.
func (c *Canvas) DrawRect(lo, hi Point, filled bool) {
	x1, y1 := c.toPixel(lo)
	x2, y2 := c.toPixel(hi)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	if !filled {
		for x := x1; x <= x2; x++ {
			c.setPixel(x, y1)
			c.setPixel(x, y2)
		}
		for y := y1; y <= y2; y++ {
			c.setPixel(x1, y)
			c.setPixel(x2, y)
		}
		return
	}

	// Clip before looping; a box right in front of the camera can project
	// far outside the screen.
	x1, x2 = max(x1, 0), min(x2, c.termWidth-1)
	y1, y2 = max(y1, 0), min(y2, c.subPixelHeight-1)
	for y := y1; y <= y2; y++ {
		row := c.pixels[y*c.termWidth : (y+1)*c.termWidth]
		for x := x1; x <= x2; x++ {
			row[x] = true
		}
	}
}

func (c *Canvas) cellRune(row, col int) rune {
	top := c.pixels[row*2*c.termWidth+col]
	bottom := c.pixels[(row*2+1)*c.termWidth+col]
	switch {
	case top && bottom:
		return BlockFull
	case top:
		return BlockUpperHalf
	case bottom:
		return BlockLowerHalf
	default:
		return ' '
	}
}

func (c *Canvas) moveTo(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// Render writes the cells that changed since the previous Render. Cells
// that went dark are blanked.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()
	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			ch := c.cellRune(row, col)
			cell := row*c.termWidth + col
			if c.drawn[cell] == ch {
				continue
			}
			c.drawn[cell] = ch
			c.moveTo(col+1+c.offsetCol, row+1+c.offsetRow)
			c.renderBuf.WriteRune(ch)
		}
	}
	_ = writeChunked(w, c.renderBuf.String())
}

// ForceRedraw makes the next Render rewrite every cell.
func (c *Canvas) ForceRedraw() {
	clear(c.drawn)
}

// MarkTextDirty records that text overwrote n cells starting at the 1-based
// canvas position (col, row), so the next Render repaints them.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	if row < 1 || row > c.termHeight {
		return
	}
	for i := 0; i < n; i++ {
		x := col - 1 + i
		if x >= 0 && x < c.termWidth {
			c.drawn[(row-1)*c.termWidth+x] = 0
		}
	}
}

// RenderBorder frames the canvas when the terminal is larger than the
// render area. Each side is drawn only if the offset leaves room for it.
func (c *Canvas) RenderBorder(w io.Writer) {
	sides := c.offsetCol >= 1
	ends := c.offsetRow >= 1
	if !sides && !ends {
		return
	}

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1
	bar := strings.Repeat("─", c.termWidth)

	var buf strings.Builder
	if ends {
		if sides {
			buf.WriteString("\033[" + strconv.Itoa(top) + ";" + strconv.Itoa(left) + "H┌" + bar + "┐")
			buf.WriteString("\033[" + strconv.Itoa(bottom) + ";" + strconv.Itoa(left) + "H└" + bar + "┘")
		} else {
			buf.WriteString("\033[" + strconv.Itoa(top) + ";" + strconv.Itoa(left+1) + "H" + bar)
			buf.WriteString("\033[" + strconv.Itoa(bottom) + ";" + strconv.Itoa(left+1) + "H" + bar)
		}
	}
	if sides {
		for row := c.offsetRow + 1; row <= c.offsetRow+c.termHeight; row++ {
			r := strconv.Itoa(row)
			buf.WriteString("\033[" + r + ";" + strconv.Itoa(left) + "H│\033[" + r + ";" + strconv.Itoa(right) + "H│")
		}
	}
	_, _ = io.WriteString(w, buf.String())
}
