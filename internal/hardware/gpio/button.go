package gpio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/warthog618/go-gpiocdev"
)

// Debounce is the minimum spacing between accepted presses.
const Debounce = 250 * time.Millisecond

// contactDebounce is filtered by the kernel before an edge is reported.
const contactDebounce = 10 * time.Millisecond

// Button is a push button to ground on a pulled-up input line.
type Button struct {
	line   io.Closer
	offset int
	logger *log.Logger

	// events carries the kernel timestamps of falling edges.
	events chan time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

// OpenButton requests line offset on chip as a pulled-up input reporting
// falling edges.
func OpenButton(chip string, offset int, logger *log.Logger) (*Button, error) {
	b := newButton(offset, logger)
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(contactDebounce),
		gpiocdev.WithEventHandler(b.handle),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	b.line = line
	return b, nil
}

func newButton(offset int, logger *log.Logger) *Button {
	return &Button{
		offset: offset,
		logger: logger,
		events: make(chan time.Duration, 8),
		closed: make(chan struct{}),
	}
}

// handle runs on the line's event goroutine.
func (b *Button) handle(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	select {
	case b.events <- evt.Timestamp:
	default:
		b.logger.Trace().Int("line", b.offset).Msg("edge dropped, queue full")
	}
}

// Watch calls onPress for every accepted press until ctx is done or the
// button is closed. Edges reported before Watch starts are discarded.
func (b *Button) Watch(ctx context.Context, onPress func()) error {
	if n := b.drain(); n > 0 {
		b.logger.Debug().Int("line", b.offset).Int("edges", n).Msg("discarded edges from before watch")
	}
	return b.loop(ctx, onPress)
}

func (b *Button) drain() int {
	n := 0
	for {
		select {
		case <-b.events:
			n++
		default:
			return n
		}
	}
}

func (b *Button) loop(ctx context.Context, onPress func()) error {
	var last time.Duration
	accepted := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.closed:
			return nil
		case ts, ok := <-b.events:
			if !ok {
				return nil
			}
			if accepted && ts-last < Debounce {
				b.logger.Trace().Int("line", b.offset).Msg("press debounced")
				continue
			}
			accepted, last = true, ts
			b.logger.Debug().Int("line", b.offset).Msg("button pressed")
			onPress()
		}
	}
}

// Close stops Watch and releases the line.
func (b *Button) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		if b.line != nil {
			if cerr := b.line.Close(); cerr != nil {
				err = fmt.Errorf("failed to release button line %d: %w", b.offset, cerr)
			}
		}
	})
	return err
}
