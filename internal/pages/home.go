package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamesprial/oled-status/internal/format"
	"github.com/jamesprial/oled-status/internal/mdadm"
	"github.com/jamesprial/oled-status/internal/render"
)

// View is one of the mutually exclusive home screens.
type View int

const (
	ViewClean View = iota
	ViewDegraded
	ViewSync
)

func (v View) String() string {
	switch v {
	case ViewSync:
		return "sync"
	case ViewDegraded:
		return "degraded"
	default:
		return "clean"
	}
}

// SelectView picks the home screen for st. A running sync outranks a
// degraded state, which outranks clean.
func SelectView(st mdadm.Status) View {
	switch {
	case st.SyncLike():
		return ViewSync
	case st.Degraded():
		return ViewDegraded
	default:
		return ViewClean
	}
}

// SyncHeader returns the home title for a sync action.
func SyncHeader(action string) string {
	switch action {
	case mdadm.ActionResync:
		return "Resync"
	case mdadm.ActionRecovery, mdadm.ActionRecover:
		return "Recovery"
	case mdadm.ActionCheck:
		return "Check"
	case mdadm.ActionRepair:
		return "Repair"
	default:
		return "Syncing"
	}
}

func (e *Env) home(ctx context.Context, f *render.Frame) error {
	st, _ := e.Data.Array.Status(ctx, ttlStatus)

	switch SelectView(st) {
	case ViewSync:
		e.homeSync(ctx, f, st)
	case ViewDegraded:
		e.homeDegraded(ctx, f)
	default:
		if e.Screensaver.Active() {
			e.Screensaver.Step()
			e.Screensaver.Draw(f)
			return nil
		}
		e.homeClean(ctx, f)
	}
	return nil
}

func (e *Env) homeSync(ctx context.Context, f *render.Frame, st mdadm.Status) {
	e.header(ctx, f, SyncHeader(st.SyncAction))
	render.Rebuild.Draw(f, e.Anim.Frame(), 0, render.BodyIconY, 2)

	prog, rate, eta := format.NA, format.NA, format.NA
	if st.Percent != nil {
		prog = format.Percent(*st.Percent)
	}
	if st.SpeedKPS != nil {
		rate = format.Rate(*st.SpeedKPS)
	}
	if st.FinishMinutes != nil {
		eta = format.Minutes(*st.FinishMinutes)
	}

	render.BodyLineAt(f, render.BodyIndent, render.L1, "Prog:", prog)
	render.BodyLineAt(f, render.BodyIndent, render.L2, "Rate:", rate)
	render.BodyLineAt(f, render.BodyIndent, render.L3, "ETA:", eta)
}

func (e *Env) homeDegraded(ctx context.Context, f *render.Frame) {
	e.header(ctx, f, "DEGRADED")
	render.DegradedBig.Draw(f, e.Anim.Slow(), 0, render.BodyIconY, 1)

	disks, raidType := format.NA, format.NA
	if name, ok := e.Data.Array.Name(); ok {
		if r, ok := e.Data.Glances.Raid(ctx, name, ttlRaid); ok {
			if r.Used.Valid && r.Available.Valid {
				disks = fmt.Sprintf("%d/%d", r.Used.Value, r.Available.Value)
			}
			if r.Type != "" {
				raidType = strings.ToUpper(r.Type)
			}
		}
	}

	render.BodyLineAt(f, render.BodyIndent, render.L1, "Disks:", disks)
	render.BodyLineAt(f, render.BodyIndent, render.L2, "Type:", raidType)
	render.BodyLineAt(f, render.BodyIndent, render.L3, "Temp:", e.temp(e.Data.Glances.MaxDiskTemperature(ctx, ttlSMART)))
}

func (e *Env) homeClean(ctx context.Context, f *render.Frame) {
	e.header(ctx, f, "Online")
	render.Clean.Draw(f, 0, 0, render.BodyIconY, 2)

	fs, ok := e.Data.Glances.FS(ctx, e.Data.Storage.Mount, ttlFS)
	used := format.Maybe(fs.Percent, ok, format.Percent)

	var kps float64
	if name, ok := e.Data.Array.Name(); ok {
		if io, ok := e.Data.Glances.DiskIO(ctx, name, ttlRates); ok {
			kps = (io.ReadRate + io.WriteRate) / 1024
		}
	}

	render.BodyLineAt(f, render.BodyIndent, render.L1, "Used:", used)
	render.BodyLineAt(f, render.BodyIndent, render.L2, "R/W:", format.Rate(kps))
	render.BodyLineAt(f, render.BodyIndent, render.L3, "Temp:", e.temp(e.Data.Glances.MaxDiskTemperature(ctx, ttlSMART)))
}
