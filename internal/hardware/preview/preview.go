// Package preview shows the display in a terminal. It stands in for the
// OLED, the button and the buzzer when developing away from the appliance.
package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/hardware"
	"github.com/jamesprial/oled-status/internal/render"
)

// refresh is how often the terminal picks up the latest frame.
const refresh = 50 * time.Millisecond

var (
	colorGray = lipgloss.Color("#6272A4")
	colorCyan = lipgloss.Color("#8BE9FD")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan)
	helpStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// screen is the state shared between the daemon and the terminal program.
type screen struct {
	mu      sync.Mutex
	lit     [render.Height][render.Width]bool
	pattern hardware.Pattern
}

func (s *screen) load(f *render.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := range render.Height {
		for x := range render.Width {
			s.lit[y][x] = f != nil && f.Lit(x, y)
		}
	}
}

// Preview implements hardware.Display, hardware.Button and
// hardware.Buzzer on top of a terminal program.
type Preview struct {
	screen  *screen
	presses chan struct{}
	logger  *log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// New returns a Preview with a blank screen. Nothing is drawn until Run.
func New(logger *log.Logger) *Preview {
	return &Preview{
		screen:  &screen{},
		presses: make(chan struct{}, 1),
		logger:  logger,
		closed:  make(chan struct{}),
	}
}

// Show replaces the frame on the terminal.
func (p *Preview) Show(f *render.Frame) error {
	p.screen.load(f)
	return nil
}

// Clear blanks the terminal frame.
func (p *Preview) Clear() error {
	p.screen.load(nil)
	return nil
}

// Play logs p and shows it under the frame.
func (p *Preview) Play(pattern hardware.Pattern) {
	p.screen.mu.Lock()
	p.screen.pattern = pattern
	p.screen.mu.Unlock()
	p.logger.Info().Str("pattern", string(pattern)).Msg("buzzer")
}

// Watch calls onPress for every space or enter key until ctx is done or
// the preview is closed.
func (p *Preview) Watch(ctx context.Context, onPress func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.closed:
			return nil
		case <-p.presses:
			onPress()
		}
	}
}

// Close ends Run and Watch. It is safe to call more than once.
func (p *Preview) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// Run drives the terminal until the user quits, ctx is done or the
// preview is closed.
func (p *Preview) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(newModel(p.screen, p.presses), opts...)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-p.closed:
			program.Quit()
		case <-done:
		}
	}()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	screen  *screen
	presses chan<- struct{}

	lit     [render.Height][render.Width]bool
	pattern hardware.Pattern
}

func newModel(s *screen, presses chan<- struct{}) model {
	return model{screen: s, presses: presses}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.screen.mu.Lock()
		m.lit = m.screen.lit
		m.pattern = m.screen.pattern
		m.screen.mu.Unlock()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "enter":
			select {
			case m.presses <- struct{}{}:
			default:
			}
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View draws two pixel rows per terminal line with half blocks.
func (m model) View() string {
	var b strings.Builder
	for y := 0; y < render.Height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range render.Width {
			top, bottom := m.lit[y][x], m.lit[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
	}

	help := "space/enter: button  q: quit"
	if m.pattern != "" {
		help += "  buzzer: " + string(m.pattern)
	}
	return panelStyle.Render(b.String()) + "\n" + helpStyle.Render(help)
}
