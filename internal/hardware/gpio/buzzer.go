package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/jamesprial/oled-status/internal/hardware"
)

// queueSize is how many patterns may wait behind the one playing.
const queueSize = 4

// Logical levels. The line is requested active-low, so on drives it low.
const (
	on  = 1
	off = 0
)

// outputLine is the part of *gpiocdev.Line the buzzer uses.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// Buzzer is an active-low piezo buzzer. Patterns play one at a time on a
// worker goroutine.
type Buzzer struct {
	line   outputLine
	offset int
	logger *log.Logger
	sleep  func(time.Duration)

	queue chan hardware.Pattern
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// OpenBuzzer requests line offset on chip as an active-low output that
// starts silent.
func OpenBuzzer(chip string, offset int, logger *log.Logger) (*Buzzer, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsActiveLow,
		gpiocdev.AsOutput(off),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	return newBuzzer(line, offset, logger, time.Sleep), nil
}

func newBuzzer(line outputLine, offset int, logger *log.Logger, sleep func(time.Duration)) *Buzzer {
	b := &Buzzer{
		line:   line,
		offset: offset,
		logger: logger,
		sleep:  sleep,
		queue:  make(chan hardware.Pattern, queueSize),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Play queues p without waiting for it to sound. A pattern arriving while
// the queue is full is dropped.
func (b *Buzzer) Play(p hardware.Pattern) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.queue <- p:
	default:
		b.logger.Debug().Str("pattern", string(p)).Msg("buzzer busy, pattern dropped")
	}
}

// Close stops the worker after the current step, silences the buzzer and
// releases the line.
func (b *Buzzer) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		err = errors.Join(b.line.SetValue(off), b.line.Close())
		if err != nil {
			err = fmt.Errorf("failed to release buzzer line %d: %w", b.offset, err)
		}
	})
	return err
}

func (b *Buzzer) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case p := <-b.queue:
			b.play(p)
		}
	}
}

func (b *Buzzer) play(p hardware.Pattern) {
	for _, step := range hardware.Steps(p) {
		select {
		case <-b.done:
			return
		default:
		}
		if err := b.line.SetValue(on); err != nil {
			b.logger.Warn().Err(err).Str("pattern", string(p)).Msg("buzzer write failed")
			return
		}
		b.sleep(step.Beep)
		if err := b.line.SetValue(off); err != nil {
			b.logger.Warn().Err(err).Str("pattern", string(p)).Msg("buzzer write failed")
			return
		}
		b.sleep(step.Pause)
	}
}
