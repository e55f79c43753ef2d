package alarm

import (
	"context"
	"slices"
	"time"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/format"
	"github.com/jamesprial/oled-status/internal/hardware"
	"github.com/jamesprial/oled-status/internal/sources"
)

// Alarm ids that do not depend on a disk.
const (
	IDRaidDegraded = "raid_degraded"
	IDRaidResync   = "raid_resync"
	IDPower        = "power_throttle"
)

// TempID and SmartID name the per-disk alarms.
func TempID(disk string) string  { return "temp_" + disk }
func SmartID(disk string) string { return "smart_" + disk }

const (
	ttlStatus   = 5 * time.Second
	ttlSMART    = 10 * time.Second
	ttlThrottle = 10 * time.Second
)

// Player plays buzzer patterns.
type Player interface {
	Play(p hardware.Pattern)
}

// Thresholds are the inclusive disk temperature limits in degrees Celsius.
type Thresholds struct {
	Warn float64
	Hot  float64
}

// DefaultThresholds match the severity markers on screen.
var DefaultThresholds = Thresholds{Warn: format.TempWarn, Hot: format.TempHot}

// Engine evaluates every alarm condition against the sources.
type Engine struct {
	state      *State
	data       *sources.Context
	buzzer     Player
	thresholds Thresholds
	logger     *log.Logger
}

// NewEngine returns an Engine recording firings in state.
func NewEngine(state *State, data *sources.Context, buzzer Player, thresholds Thresholds, logger *log.Logger) *Engine {
	return &Engine{
		state:      state,
		data:       data,
		buzzer:     buzzer,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Check evaluates, in order, the array state, disk temperatures, SMART
// sector counters and power supply, firing or clearing each alarm.
func (e *Engine) Check(ctx context.Context) {
	st, _ := e.data.Array.Status(ctx, ttlStatus)
	// A degraded array that is rebuilding raises both alarms, double first.
	e.evaluate(IDRaidDegraded, st.Degraded(), hardware.Double)
	e.evaluate(IDRaidResync, st.Rebuilding(), hardware.Short)

	smart, _ := e.data.Glances.SMART(ctx, ttlSMART)
	disks := make([]string, 0, len(smart))
	for name := range smart {
		disks = append(disks, name)
	}
	slices.Sort(disks)

	for _, disk := range disks {
		d := smart[disk]
		if !d.HasTemperature {
			continue
		}
		switch id := TempID(disk); {
		case d.TemperatureC >= e.thresholds.Hot:
			e.fire(id, hardware.Triple)
		case d.TemperatureC >= e.thresholds.Warn:
			e.fire(id, hardware.Short)
		default:
			e.clear(id)
		}
	}
	for _, disk := range disks {
		e.evaluate(SmartID(disk), smart[disk].BadSectors(), hardware.Long)
	}

	th := e.data.Host.Throttle(ctx, ttlThrottle)
	e.evaluate(IDPower, th.PowerProblem(), hardware.Double)
}

func (e *Engine) evaluate(id string, active bool, p hardware.Pattern) {
	if active {
		e.fire(id, p)
		return
	}
	e.clear(id)
}

func (e *Engine) fire(id string, p hardware.Pattern) {
	if !e.state.ShouldAlert(id) {
		return
	}
	e.logger.Info().Str("alarm", id).Str("pattern", string(p)).Msg("alarm fired")
	e.buzzer.Play(p)
}

func (e *Engine) clear(id string) {
	if e.state.Clear(id) {
		e.logger.Info().Str("alarm", id).Msg("alarm cleared")
	}
}
