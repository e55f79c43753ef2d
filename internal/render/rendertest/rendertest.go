// Package rendertest checks what was drawn into a render.Frame.
package rendertest

import (
	"github.com/jamesprial/oled-status/internal/render"
)

// glyphHeight is the cell height of the display font.
const glyphHeight = 13

// HasText reports whether the pixels of f in the cell box of s drawn at
// (x, y) match s exactly.
func HasText(f *render.Frame, x, y int, s string) bool {
	ref := render.NewFrame()
	ref.Text(x, y, s)

	w := render.TextWidth(s)
	if w == 0 {
		return true
	}
	for py := y; py < y+glyphHeight; py++ {
		for px := x; px < x+w; px++ {
			if f.Lit(px, py) != ref.Lit(px, py) {
				return false
			}
		}
	}
	return true
}

// HasTextRight is HasText for text aligned to the right screen edge.
func HasTextRight(f *render.Frame, y int, s string) bool {
	return HasText(f, max(0, render.Width-render.TextWidth(s)), y, s)
}

// Blank reports whether no pixel of f is lit inside the inclusive box.
func Blank(f *render.Frame, x0, y0, x1, y1 int) bool {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if f.Lit(x, y) {
				return false
			}
		}
	}
	return true
}
