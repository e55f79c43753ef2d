// Package sourcestest builds a sources.Context over fake collaborators: a
// canned Glances client, a temporary procfs/sysfs tree and scripted host
// commands, all driven by a manual clock.
package sourcestest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/jamesprial/oled-status/internal/config"
	"github.com/jamesprial/oled-status/internal/host"
	"github.com/jamesprial/oled-status/internal/logging"
	"github.com/jamesprial/oled-status/internal/sources"
)

// Clock is a manually advanced clock safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Client serves canned Glances bodies. Endpoints without a body fail.
type Client struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
}

// Get implements glances.Client.
func (c *Client) Get(_ context.Context, endpoint string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[endpoint]++
	body, ok := c.bodies[endpoint]
	if !ok {
		return nil, fmt.Errorf("GET %s: connection refused", endpoint)
	}
	return []byte(body), nil
}

// Set replaces the body served for endpoint.
func (c *Client) Set(endpoint, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies[endpoint] = body
}

// Calls returns how many times endpoint was requested.
func (c *Client) Calls(endpoint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[endpoint]
}

// Fixture describes the world the sources observe.
type Fixture struct {
	// Array is the md device backing the storage mount. Empty means the
	// machine has no array.
	Array      string
	ArrayState string
	SyncAction string
	Mdstat     string

	// Glances maps endpoint names to response bodies.
	Glances map[string]string
	// Commands maps a space-joined command line to its output.
	Commands map[string]string
	Uptime   uint64

	// Configure adjusts the configuration before the sources are built.
	Configure func(cfg *config.Config)
}

// Env is a Context together with the fakes behind it.
type Env struct {
	Ctx    *sources.Context
	Config *config.Config
	Clock  *Clock
	Client *Client
	Root   string

	t      testing.TB
	mu     sync.Mutex
	cmds   map[string]string
	called map[string]int
}

// New builds an Env for f rooted in a fresh temporary directory.
func New(t testing.TB, f Fixture) *Env {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths = config.PathsConfig{
		Proc: filepath.Join(root, "proc"),
		Sys:  filepath.Join(root, "sys"),
		Dev:  filepath.Join(root, "dev"),
	}
	cfg.Host.ProbeAddr = "127.0.0.1:9"
	if f.Configure != nil {
		f.Configure(cfg)
	}

	bodies := make(map[string]string, len(f.Glances))
	for k, v := range f.Glances {
		bodies[k] = v
	}
	cmds := make(map[string]string, len(f.Commands))
	for k, v := range f.Commands {
		cmds[k] = v
	}

	e := &Env{
		Config: cfg,
		Clock:  NewClock(),
		Client: &Client{bodies: bodies, calls: map[string]int{}},
		Root:   root,
		t:      t,
		cmds:   cmds,
		called: map[string]int{},
	}

	if err := os.MkdirAll(cfg.Paths.Proc, 0o755); err != nil {
		t.Fatalf("create proc dir: %v", err)
	}
	if f.Array != "" {
		e.write(filepath.Join(cfg.Paths.Proc, "mounts"),
			fmt.Sprintf("/dev/mmcblk0p2 / ext4 rw 0 0\n/dev/%s %s ext4 rw 0 0\n", f.Array, cfg.Storage.Mount))
		e.SetArray(f.Array, f.ArrayState, f.SyncAction, f.Mdstat)
	}

	uptime := f.Uptime
	ctx, err := sources.New(cfg, logging.Discard(), sources.Options{
		Client: e.Client,
		Now:    e.Clock.Now,
		HostOptions: []host.Option{
			host.WithRunner(e.run),
			host.WithUptime(func(context.Context) (uint64, error) {
				if uptime == 0 {
					return 0, errors.New("uptime unavailable")
				}
				return uptime, nil
			}),
			host.WithTemperatures(func(context.Context) ([]sensors.TemperatureStat, error) {
				return nil, errors.New("no sensors")
			}),
		},
	})
	if err != nil {
		t.Fatalf("sources.New() error = %v", err)
	}
	e.Ctx = ctx
	return e
}

// SetArray rewrites the sysfs state files of array and /proc/mdstat.
func (e *Env) SetArray(array, state, action, mdstat string) {
	e.t.Helper()
	mdDir := filepath.Join(e.Config.Paths.Sys, "block", array, "md")
	e.write(filepath.Join(mdDir, "array_state"), state+"\n")
	e.write(filepath.Join(mdDir, "sync_action"), action+"\n")
	e.write(filepath.Join(e.Config.Paths.Proc, "mdstat"), mdstat)
}

// SetCommand replaces the output of a host command line.
func (e *Env) SetCommand(line, output string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmds[line] = output
}

// CommandCalls returns how many times a host command line was run.
func (e *Env) CommandCalls(line string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.called[line]
}

func (e *Env) run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called[line]++
	out, ok := e.cmds[line]
	if !ok {
		return nil, fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return []byte(out), nil
}

func (e *Env) write(path, content string) {
	e.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("write %s: %v", path, err)
	}
}
