// Package hardware defines the display, buzzer and button the daemon drives,
// and the buzzer patterns they share.
package hardware

import (
	"context"
	"time"

	"github.com/jamesprial/oled-status/internal/render"
)

// Display shows full frames.
type Display interface {
	Show(f *render.Frame) error
	Clear() error
	Close() error
}

// Buzzer plays named patterns. Play must not block the caller for the
// duration of the pattern.
type Buzzer interface {
	Play(p Pattern)
	Close() error
}

// Button reports presses. Watch calls onPress from its own goroutine for
// every accepted press and returns when ctx is done.
type Button interface {
	Watch(ctx context.Context, onPress func()) error
	Close() error
}

// Pattern names a buzzer sequence.
type Pattern string

// Known patterns.
const (
	Short  Pattern = "short"
	Long   Pattern = "long"
	Double Pattern = "double"
	Triple Pattern = "triple"
)

// Step is one tone followed by silence.
type Step struct {
	Beep  time.Duration
	Pause time.Duration
}

var (
	shortStep = Step{Beep: 100 * time.Millisecond, Pause: 100 * time.Millisecond}
	longStep  = Step{Beep: 500 * time.Millisecond, Pause: 100 * time.Millisecond}
)

var patterns = map[Pattern][]Step{
	Short:  {shortStep},
	Long:   {longStep},
	Double: {shortStep, shortStep},
	Triple: {shortStep, shortStep, shortStep},
}

// Steps returns the sequence for p. Unknown patterns play as Short.
func Steps(p Pattern) []Step {
	if steps, ok := patterns[p]; ok {
		return steps
	}
	return patterns[Short]
}

// Duration returns how long p takes to play, pauses included.
func Duration(p Pattern) time.Duration {
	var d time.Duration
	for _, s := range Steps(p) {
		d += s.Beep + s.Pause
	}
	return d
}
