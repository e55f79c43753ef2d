package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/oled-status/internal/format"
	"github.com/jamesprial/oled-status/internal/render"
)

const (
	ttlIP     = 30 * time.Second
	ttlUptime = 10 * time.Second
	ttlCPU    = 2 * time.Second
	ttlMem    = 2 * time.Second
)

const gib = 1024 * 1024 * 1024

func (e *Env) network(ctx context.Context, f *render.Frame) error {
	e.header(ctx, f, "Network")

	ip, ok := e.Data.Host.IP(ctx, ttlIP)
	if !ok {
		ip = format.NA
	}

	var tx, rx float64
	if n, ok := e.Data.Glances.Network(ctx, e.Data.Storage.Interface, ttlRates); ok {
		tx, rx = n.SentRate/1024, n.RecvRate/1024
	}
	uptime, ok := e.Data.Host.Uptime(ctx, ttlUptime)

	render.BodyLine(f, render.L1, "IP:", ip)
	render.BodyText(f, render.L2, format.TwoCols("^", format.Rate(tx), "v", format.Rate(rx), render.BodyCols, 1))
	render.BodyLine(f, render.L3, "Uptime:", format.Maybe(uptime, ok, format.Time))
	return nil
}

func (e *Env) system(ctx context.Context, f *render.Frame) error {
	e.header(ctx, f, "System")

	cpuVal := format.NA
	if cpu, ok := e.Data.Glances.CPU(ctx, ttlCPU); ok {
		load, _ := e.Data.Glances.Load(ctx, ttlCPU)
		cpuVal = fmt.Sprintf("%3.0f%% (%0.2f)", cpu.Total, load.Min1)
	}

	memVal := format.NA
	if mem, ok := e.Data.Glances.Mem(ctx, ttlMem); ok {
		memVal = fmt.Sprintf("%3.0f%% of %0.1fG", mem.Percent, mem.Total/gib)
	}

	render.BodyLine(f, render.L1, "CPU:", cpuVal)
	render.BodyLine(f, render.L2, "Mem:", memVal)
	render.BodyLine(f, render.L3, "Temp:", e.temp(e.cpuTemp(ctx)))
	return nil
}

func (e *Env) storage(ctx context.Context, f *render.Frame) error {
	e.header(ctx, f, "Storage")

	fs, ok := e.Data.Glances.FS(ctx, e.Data.Storage.Mount, ttlFS)

	render.BodyLine(f, render.L1, "Used:", format.Maybe(fs.Used, ok, format.Bytes))
	render.BodyLine(f, render.L2, "Free:", format.Maybe(fs.Free, ok, format.Bytes))
	render.ProgressBar(f, render.L3, fs.Percent, ok)
	return nil
}

func (e *Env) raid(ctx context.Context, f *render.Frame) error {
	e.header(ctx, f, "RAID")

	status, raidType, config := format.NA, format.NA, format.NA
	health, members := format.NA, format.NA

	if name, ok := e.Data.Array.Name(); ok {
		if r, ok := e.Data.Glances.Raid(ctx, name, ttlRaid); ok {
			if r.Status != "" {
				status = r.Status
			}
			if r.Type != "" {
				raidType = r.Type
			}
			if r.Config != "" {
				config = r.Config
			}
			if names := r.MemberNames(); len(names) > 0 {
				members = strings.Join(names, " ")
			}

			health = config
			if r.Used.Valid && r.Available.Valid {
				health = fmt.Sprintf("%d/%d %s", r.Used.Value, r.Available.Value, config)
			}
		}
	}

	state := strings.ToLower(status)
	if raidType != format.NA {
		state = fmt.Sprintf("%s (%s)", state, strings.ToLower(raidType))
	}
	if strings.Contains(config, "_") {
		health = "DEGRADED " + health
	}

	render.BodyLine(f, render.L1, "State:", state)
	render.BodyLine(f, render.L2, "Health:", health)
	render.BodyLine(f, render.L3, "Disks:", members)
	return nil
}

func (e *Env) temps(ctx context.Context, f *render.Frame) error {
	e.header(ctx, f, "Temps")
	render.BodyLine(f, render.L1, "CPU:", e.temp(e.cpuTemp(ctx)))

	smart, _ := e.Data.Glances.SMART(ctx, ttlSMART)
	lines := []int{render.L2, render.L3}
	for i, disk := range e.Data.Storage.TempDisks {
		if i >= len(lines) {
			break
		}
		d, ok := smart[disk]
		render.BodyLine(f, lines[i], disk+":", e.temp(d.TemperatureC, ok && d.HasTemperature))
	}
	return nil
}
