package gpio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/jamesprial/oled-status/internal/hardware"
	"github.com/jamesprial/oled-status/internal/logging"
)

func falling(ts time.Duration) gpiocdev.LineEvent {
	return gpiocdev.LineEvent{Offset: 4, Timestamp: ts, Type: gpiocdev.LineEventFallingEdge}
}

func Test_Button_Debounce_Cases(t *testing.T) {
	tests := []struct {
		name  string
		edges []time.Duration
		want  int
	}{
		{name: "single press", edges: []time.Duration{time.Second}, want: 1},
		{name: "bounce is ignored", edges: []time.Duration{time.Second, time.Second + 5*time.Millisecond, time.Second + 30*time.Millisecond}, want: 1},
		{name: "exactly debounce apart", edges: []time.Duration{time.Second, time.Second + Debounce, time.Second + 2*Debounce}, want: 3},
		{name: "measured from last accepted", edges: []time.Duration{0, 200 * time.Millisecond, 260 * time.Millisecond, 400 * time.Millisecond}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newButton(4, logging.Discard())
			for _, ts := range tt.edges {
				b.handle(falling(ts))
			}
			close(b.events)

			presses := 0
			if err := b.loop(context.Background(), func() { presses++ }); err != nil {
				t.Fatalf("loop() error = %v", err)
			}
			if presses != tt.want {
				t.Errorf("presses = %d, want %d", presses, tt.want)
			}
		})
	}
}

func Test_Button_IgnoresRisingEdges(t *testing.T) {
	b := newButton(4, logging.Discard())
	b.handle(gpiocdev.LineEvent{Offset: 4, Timestamp: time.Second, Type: gpiocdev.LineEventRisingEdge})
	if got := len(b.events); got != 0 {
		t.Errorf("queued edges = %d, want 0 for a rising edge", got)
	}
}

func Test_Button_EdgesBeforeWatchAreNotPresses(t *testing.T) {
	b := newButton(4, logging.Discard())
	b.handle(falling(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	presses := 0
	if err := b.Watch(ctx, func() { presses++ }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if presses != 0 {
		t.Errorf("presses = %d, want 0 for an edge reported before Watch", presses)
	}
	if got := len(b.events); got != 0 {
		t.Errorf("queued edges = %d after Watch, want 0", got)
	}
}

func Test_Button_FirstPressAfterStaleEdge(t *testing.T) {
	b := newButton(4, logging.Discard())
	b.handle(falling(time.Second))
	b.drain()
	// Closer than Debounce to the discarded edge: still the first press.
	b.handle(falling(time.Second + 50*time.Millisecond))
	close(b.events)

	presses := 0
	if err := b.loop(context.Background(), func() { presses++ }); err != nil {
		t.Fatalf("loop() error = %v", err)
	}
	if presses != 1 {
		t.Errorf("presses = %d, want 1", presses)
	}
}

func Test_Button_QueueFullDropsEdges(t *testing.T) {
	b := newButton(4, logging.Discard())
	for i := range cap(b.events) + 5 {
		b.handle(falling(time.Duration(i) * time.Second))
	}
	if got := len(b.events); got != cap(b.events) {
		t.Errorf("queued edges = %d, want %d", got, cap(b.events))
	}
}

type closer struct {
	calls int
	err   error
}

func (c *closer) Close() error {
	c.calls++
	return c.err
}

func Test_Button_Close(t *testing.T) {
	line := &closer{}
	b := newButton(4, logging.Discard())
	b.line = line

	done := make(chan error, 1)
	go func() { done <- b.Watch(context.Background(), func() {}) }()

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after Close")
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if line.calls != 1 {
		t.Errorf("line closed %d times, want 1", line.calls)
	}
}

func Test_Button_CloseReportsLineError(t *testing.T) {
	b := newButton(4, logging.Discard())
	b.line = &closer{err: errors.New("bad file descriptor")}
	if err := b.Close(); err == nil {
		t.Error("Close() error = nil, want line error")
	}
}

// fakeLine records every value written.
type fakeLine struct {
	mu     sync.Mutex
	values []int
	closed bool
}

func (l *fakeLine) SetValue(v int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, v)
	return nil
}

func (l *fakeLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLine) last() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.values[len(l.values)-1]
}

// step is one observed level and how long it was held.
type step struct {
	level int
	d     time.Duration
}

func Test_Buzzer_PlaysPattern(t *testing.T) {
	line := &fakeLine{}

	var mu sync.Mutex
	var steps []step
	played := make(chan struct{}, 16)
	b := newBuzzer(line, 17, logging.Discard(), func(d time.Duration) {
		mu.Lock()
		steps = append(steps, step{level: line.last(), d: d})
		mu.Unlock()
		played <- struct{}{}
	})

	b.Play(hardware.Double)
	for i := range 4 {
		select {
		case <-played:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d steps", i)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []step{
		{on, 100 * time.Millisecond}, {off, 100 * time.Millisecond},
		{on, 100 * time.Millisecond}, {off, 100 * time.Millisecond},
	}
	mu.Lock()
	defer mu.Unlock()
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %v, want %v", i, steps[i], want[i])
		}
	}
	if got := line.last(); got != off {
		t.Errorf("level after Close = %d, want off", got)
	}
	if !line.closed {
		t.Error("line not released")
	}
}

func Test_Buzzer_DropsWhenQueueFull(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	b := newBuzzer(&fakeLine{}, 17, logging.Discard(), func(time.Duration) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	})

	b.Play(hardware.Long)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started playing")
	}

	for range queueSize + 3 {
		b.Play(hardware.Short)
	}
	if got := len(b.queue); got != queueSize {
		t.Errorf("queued = %d, want %d", got, queueSize)
	}

	close(gate)
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	b.Play(hardware.Short)
}

func Test_OpenButton_MissingChip(t *testing.T) {
	if _, err := OpenButton("gpiochip-missing", 4, logging.Discard()); err == nil {
		t.Error("OpenButton() error = nil, want error for a missing chip")
	}
}

func Test_OpenBuzzer_MissingChip(t *testing.T) {
	if _, err := OpenBuzzer("gpiochip-missing", 17, logging.Discard()); err == nil {
		t.Error("OpenBuzzer() error = nil, want error for a missing chip")
	}
}
