// Package pages draws the home screen and the browse pages. Each page reads
// what it needs from the shared sources with its own TTLs.
package pages

import (
	"context"
	"time"

	"github.com/jamesprial/oled-status/internal/format"
	"github.com/jamesprial/oled-status/internal/render"
	"github.com/jamesprial/oled-status/internal/sources"
)

// TTLs used by more than one page.
const (
	ttlPower   = 5 * time.Second
	ttlStatus  = 2 * time.Second
	ttlRaid    = 5 * time.Second
	ttlFS      = 5 * time.Second
	ttlRates   = 2 * time.Second
	ttlSMART   = 10 * time.Second
	ttlSensors = 5 * time.Second
)

// Func draws one page into a blank frame.
type Func func(ctx context.Context, f *render.Frame) error

// Page pairs a page name with its renderer.
type Page struct {
	Name   string
	Render Func
}

// Env is what every page renders from.
type Env struct {
	Data *sources.Context
	Anim *render.Animation

	// Temperature thresholds for the severity marker.
	TempWarn float64
	TempHot  float64

	// Screensaver replaces the clean home view after a period without
	// input. Nil disables it.
	Screensaver *Screensaver
}

// Browse returns the pages reachable with the button, in order.
func (e *Env) Browse() []Page {
	return []Page{
		{Name: "Network", Render: e.network},
		{Name: "System", Render: e.system},
		{Name: "Storage", Render: e.storage},
		{Name: "RAID", Render: e.raid},
		{Name: "Temps", Render: e.temps},
	}
}

// Home returns the home page.
func (e *Env) Home() Page {
	return Page{Name: "Home", Render: e.home}
}

// header draws the title and the power warning when the board reports
// under-voltage or throttling.
func (e *Env) header(ctx context.Context, f *render.Frame, title string) {
	th := e.Data.Host.Throttle(ctx, ttlPower)
	render.Header(f, title, th.PowerProblem(), e.Anim)
}

func (e *Env) temp(t float64, ok bool) string {
	return format.Maybe(t, ok, func(v float64) string {
		return format.TempWith(v, e.TempWarn, e.TempHot)
	})
}

// cpuTemp prefers the Glances sensor reading and falls back to the host.
func (e *Env) cpuTemp(ctx context.Context) (float64, bool) {
	if t, ok := e.Data.Glances.CPUTemperature(ctx, ttlSensors); ok {
		return t, true
	}
	return e.Data.Host.CPUTemperature(ctx, ttlSensors)
}
