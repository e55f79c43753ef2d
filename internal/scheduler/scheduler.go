// Package scheduler runs the render loop: every tick it evaluates the
// alarms, resolves navigation, draws the selected page and pushes the frame
// to the display.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/hardware"
	"github.com/jamesprial/oled-status/internal/nav"
	"github.com/jamesprial/oled-status/internal/pages"
	"github.com/jamesprial/oled-status/internal/render"
)

// DefaultInterval is the render period.
const DefaultInterval = 200 * time.Millisecond

// Checker evaluates alarm conditions once per tick.
type Checker interface {
	Check(ctx context.Context)
}

// Options wires the loop to its collaborators.
type Options struct {
	Display hardware.Display
	Alarms  Checker
	Nav     *nav.Controller
	Anim    *render.Animation
	Home    pages.Page
	// Browse must have as many pages as Nav was created with.
	Browse   []pages.Page
	Interval time.Duration
}

// Scheduler owns the render loop.
type Scheduler struct {
	opts   Options
	logger *log.Logger
}

// New returns a Scheduler. A zero interval uses DefaultInterval.
func New(opts Options, logger *log.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Anim == nil {
		opts.Anim = &render.Animation{}
	}
	return &Scheduler{opts: opts, logger: logger}
}

// Run ticks until ctx is done. A tick that overruns the interval delays
// the next one rather than queueing extra ticks.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.opts.Interval).Int("pages", len(s.opts.Browse)).Msg("render loop started")
	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("render loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one iteration of the loop.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.opts.Alarms != nil {
		s.opts.Alarms.Check(ctx)
	}
	if s.opts.Nav.ExpireIdle() {
		s.logger.Debug().Msg("navigation timed out, back to home")
	}
	s.opts.Anim.Advance()

	snap := s.opts.Nav.Snapshot()
	page := s.opts.Home
	if !s.opts.Nav.ShowHome(snap) && snap.Page < len(s.opts.Browse) {
		page = s.opts.Browse[snap.Page]
	}

	f := render.NewFrame()
	if err := draw(ctx, page, f); err != nil {
		s.logger.Warn().Err(err).Str("page", page.Name).Msg("render failed")
		f.Clear()
		render.ErrorOverlay(f, err)
	}

	if err := s.opts.Display.Show(f); err != nil {
		s.logger.Warn().Err(err).Msg("display update failed")
	}
}

// draw runs a page, turning a panic into an error.
func draw(ctx context.Context, p pages.Page, f *render.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return p.Render(ctx, f)
}

// ShowLoading puts the loading screen on d.
func ShowLoading(d hardware.Display, text string) error {
	f := render.NewFrame()
	render.Loading(f, text)
	return d.Show(f)
}

// ShowFatal holds a full screen error on d for wait, or until ctx is done,
// then blanks the display.
func ShowFatal(ctx context.Context, d hardware.Display, line1, line2 string, wait time.Duration) error {
	f := render.NewFrame()
	render.Fatal(f, line1, line2)
	if err := d.Show(f); err != nil {
		return fmt.Errorf("failed to show fatal screen: %w", err)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	if err := d.Clear(); err != nil {
		return fmt.Errorf("failed to clear display: %w", err)
	}
	return nil
}
