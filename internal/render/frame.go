// Package render draws monochrome frames for the 128x64 status display.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Screen geometry.
const (
	Width  = 128
	Height = 64
)

// face is the only font on the display: fixed 7 px advance, 13 px cell.
var face = basicfont.Face7x13

// CharWidth is the advance of every glyph in pixels.
const CharWidth = 7

// on and off are the two pixel values a Frame ever holds.
var (
	on  = color.Gray{Y: 0xff}
	off = color.Gray{Y: 0}
)

// Frame is one full-screen monochrome image. A pixel is lit when its gray
// value is at least half intensity.
type Frame struct {
	img *image.Gray
}

// NewFrame returns a blank frame.
func NewFrame() *Frame {
	return &Frame{img: image.NewGray(image.Rect(0, 0, Width, Height))}
}

// Image exposes the backing image.
func (f *Frame) Image() *image.Gray {
	return f.img
}

// Clear turns every pixel off.
func (f *Frame) Clear() {
	clear(f.img.Pix)
}

// Set lights or clears one pixel. Coordinates outside the screen are ignored.
func (f *Frame) Set(x, y int, lit bool) {
	if !(image.Point{X: x, Y: y}).In(f.img.Rect) {
		return
	}
	if lit {
		f.img.SetGray(x, y, on)
	} else {
		f.img.SetGray(x, y, off)
	}
}

// Lit reports whether the pixel at (x, y) is on.
func (f *Frame) Lit(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(f.img.Rect) {
		return false
	}
	return f.img.GrayAt(x, y).Y >= 0x80
}

// LitCount returns the number of lit pixels.
func (f *Frame) LitCount() int {
	n := 0
	for _, p := range f.img.Pix {
		if p >= 0x80 {
			n++
		}
	}
	return n
}

// FillRect lights the rectangle with inclusive corners (x0, y0) and (x1, y1).
func (f *Frame) FillRect(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			f.Set(x, y, true)
		}
	}
}

// Rect draws the one pixel outline of the rectangle with inclusive corners
// and clears its interior.
func (f *Frame) Rect(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			edge := x == x0 || x == x1 || y == y0 || y == y1
			f.Set(x, y, edge)
		}
	}
}

// Text draws s with its cell's top-left corner at (x, y).
func (f *Frame) Text(x, y int, s string) {
	d := font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(on),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
}

// TextRight draws s so that it ends at the right screen edge.
func (f *Frame) TextRight(y int, s string) {
	f.Text(max(0, Width-TextWidth(s)), y, s)
}

// TextWidth returns the rendered width of s in pixels.
func TextWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Pack converts the frame to the SSD1306 page layout: eight pages of 128
// column bytes, bit n of a byte being row n of its page.
func (f *Frame) Pack() []byte {
	buf := make([]byte, Width*Height/8)
	for y := 0; y < Height; y++ {
		page, bit := y/8, uint(y%8)
		for x := 0; x < Width; x++ {
			if f.Lit(x, y) {
				buf[page*Width+x] |= 1 << bit
			}
		}
	}
	return buf
}
