package render

import (
	"github.com/jamesprial/oled-status/internal/format"
)

// Layout of the header and the three body text lines.
const (
	HeaderHeight = 16
	LineHeight   = 14

	bodyTop     = HeaderHeight
	bodyCenterY = bodyTop + (Height-HeaderHeight)/2

	L1 = bodyCenterY - (LineHeight*3)/2
	L2 = L1 + LineHeight
	L3 = L2 + LineHeight

	// BodyIconY is the top of a 28 px icon centred in the body.
	BodyIconY = bodyCenterY - 14
	// BodyIndent is where text starts when a body icon occupies the left.
	BodyIndent = 34

	headerIconSize = 14
	HeaderIconX    = Width - headerIconSize - 2
	HeaderIconY    = (HeaderHeight - headerIconSize) / 2

	// BodyCols is how many characters fit on one line.
	BodyCols = Width / CharWidth
)

// Animation is the frame counter shared by every animated icon. It is owned
// by the render loop.
type Animation struct {
	frame int
}

// Advance moves to the next of four frames.
func (a *Animation) Advance() {
	a.frame = (a.frame + 1) % 4
}

// Frame returns the current frame, 0 to 3.
func (a *Animation) Frame() int {
	return a.frame
}

// Slow returns a frame index that changes every second tick, 0 or 1.
func (a *Animation) Slow() int {
	return (a.frame / 2) % 2
}

// Header draws the page title and, when power is true, the blinking power
// warning in the top right corner.
func Header(f *Frame, title string, power bool, anim *Animation) {
	f.Text(0, 0, title)
	if power {
		Power.Draw(f, anim.Slow(), HeaderIconX, HeaderIconY, 1)
	}
}

// BodyLine draws label and value padded to the full line width.
func BodyLine(f *Frame, y int, label, value string) {
	f.Text(0, y, format.LabelValue(label, value, BodyCols))
}

// BodyText draws preformatted text at the start of a body line.
func BodyText(f *Frame, y int, text string) {
	f.Text(0, y, text)
}

// BodyLineAt draws label starting at x and value right-aligned.
func BodyLineAt(f *Frame, x, y int, label, value string) {
	f.Text(x, y, label)
	f.TextRight(y, value)
}

// ProgressBar draws a full-width bar on the line at y. The outline is
// always drawn; the fill only when ok, with pct clamped to 0..100.
func ProgressBar(f *Frame, y int, pct float64, ok bool) {
	x0, y0 := 0, y+1
	w, h := Width, LineHeight-3
	f.Rect(x0, y0, x0+w-1, y0+h-1)
	if !ok {
		return
	}

	pct = min(100, max(0, pct))
	fill := int(pct / 100 * float64(w-2))
	if fill > 0 {
		f.FillRect(x0+1, y0+1, x0+fill, y0+h-2)
	}
}

// Loading draws text centred on a blank frame.
func Loading(f *Frame, text string) {
	f.Clear()
	x := max(0, (Width-TextWidth(text))/2)
	f.Text(x, bodyCenterY-LineHeight/2, text)
}

// Fatal draws a two line message on a blank frame.
func Fatal(f *Frame, line1, line2 string) {
	f.Clear()
	f.Text(0, L2, line1)
	f.Text(0, L3, line2)
}

// errTextCols is how much of an error message fits on the overlay.
const errTextCols = 20

// ErrorOverlay replaces the frame with a short diagnostic for err.
func ErrorOverlay(f *Frame, err error) {
	f.Clear()
	f.Text(0, 0, "OLED ERR")
	f.Text(0, HeaderHeight, format.Truncate(err.Error(), errTextCols))
}
