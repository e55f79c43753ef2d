package pages

import (
	"math/rand/v2"
	"time"

	"github.com/jamesprial/oled-status/internal/render"
)

// bigIcon is the size of a 14 px icon drawn at scale 2.
const bigIcon = 28

// Screensaver bounces the clean icon around the body area to spare the
// panel from burn-in while nothing needs attention.
type Screensaver struct {
	after time.Duration
	idle  func() time.Duration

	x, y   int
	vx, vy int
}

// NewScreensaver returns a screensaver that activates once idle reports at
// least after. It returns nil when after is not positive.
func NewScreensaver(after time.Duration, idle func() time.Duration, rng *rand.Rand) *Screensaver {
	if after <= 0 || idle == nil {
		return nil
	}
	speeds := []int{-2, -1, 1, 2}
	return &Screensaver{
		after: after,
		idle:  idle,
		x:     rng.IntN(render.Width - bigIcon + 1),
		y:     render.HeaderHeight + rng.IntN(render.Height-bigIcon-render.HeaderHeight+1),
		vx:    speeds[rng.IntN(len(speeds))],
		vy:    speeds[rng.IntN(len(speeds))],
	}
}

// Active reports whether the screensaver should replace the home view.
func (s *Screensaver) Active() bool {
	return s != nil && s.idle() >= s.after
}

// Position returns the icon's top-left corner.
func (s *Screensaver) Position() (x, y int) {
	return s.x, s.y
}

// Step moves the icon one tick, bouncing off the body edges.
func (s *Screensaver) Step() {
	s.x += s.vx
	s.y += s.vy

	maxX := render.Width - bigIcon
	switch {
	case s.x <= 0:
		s.x, s.vx = 0, abs(s.vx)
	case s.x >= maxX:
		s.x, s.vx = maxX, -abs(s.vx)
	}

	minY, maxY := render.HeaderHeight, render.Height-bigIcon
	switch {
	case s.y <= minY:
		s.y, s.vy = minY, abs(s.vy)
	case s.y >= maxY:
		s.y, s.vy = maxY, -abs(s.vy)
	}
}

// Draw paints the icon at its current position.
func (s *Screensaver) Draw(f *render.Frame) {
	render.Clean.Draw(f, 0, s.x, s.y, 2)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
