package host

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/phuslu/log"
	gohost "github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/jamesprial/oled-status/internal/cache"
	"github.com/jamesprial/oled-status/internal/config"
)

// Cache keys.
const (
	KeyIP       = "ip"
	KeyUptime   = "uptime"
	KeyThrottle = "throttle"
	KeyCPUTemp  = "cpu_temp"
)

// commandTimeout bounds each helper command.
const commandTimeout = 2 * time.Second

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Source is the cached view of local host facts.
type Source struct {
	cfg    config.HostConfig
	logger *log.Logger

	run          Runner
	uptime       func(ctx context.Context) (uint64, error)
	temperatures func(ctx context.Context) ([]sensors.TemperatureStat, error)

	cache *cache.Cache[any]
}

// Option configures a Source.
type Option func(*Source)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(s *Source) { s.run = r }
}

// WithUptime replaces the uptime query.
func WithUptime(f func(ctx context.Context) (uint64, error)) Option {
	return func(s *Source) { s.uptime = f }
}

// WithTemperatures replaces the hardware sensor query used when the
// temperature command is unavailable.
func WithTemperatures(f func(ctx context.Context) ([]sensors.TemperatureStat, error)) Option {
	return func(s *Source) { s.temperatures = f }
}

// NewSource returns a Source. now replaces time.Now in the cache when non-nil.
func NewSource(cfg config.HostConfig, logger *log.Logger, now func() time.Time, opts ...Option) *Source {
	s := &Source{
		cfg:          cfg,
		logger:       logger,
		run:          execRunner,
		uptime:       gohost.UptimeWithContext,
		temperatures: sensors.TemperaturesWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New[any](cache.FetchFunc[any](s.fetch), cache.WithClock[any](now))
	return s
}

func (s *Source) fetch(ctx context.Context, key string) (any, bool) {
	switch key {
	case KeyIP:
		return s.primaryIP(ctx)
	case KeyUptime:
		return s.uptimeSeconds(ctx)
	case KeyThrottle:
		return s.throttle(ctx), true
	case KeyCPUTemp:
		return s.cpuTemp(ctx)
	}
	return nil, false
}

// primaryIP learns the address of the default route by connecting a UDP
// socket to the probe address. No packet is sent.
func (s *Source) primaryIP(ctx context.Context) (any, bool) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", s.cfg.ProbeAddr)
	if err != nil {
		s.logger.Debug().Err(err).Msg("primary address probe failed")
		return nil, false
	}
	defer func() { _ = conn.Close() }()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return nil, false
	}
	return addr.IP.String(), true
}

func (s *Source) uptimeSeconds(ctx context.Context) (any, bool) {
	secs, err := s.uptime(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("uptime query failed")
		return nil, false
	}
	return float64(secs), true
}

func (s *Source) throttle(ctx context.Context) Throttle {
	out, err := s.command(ctx, s.cfg.ThrottleCommand)
	if err != nil {
		s.logger.Debug().Err(err).Msg("throttle query failed")
		return noThrottle
	}
	t, err := ParseThrottled(out)
	if err != nil {
		s.logger.Debug().Err(err).Msg("throttle parse failed")
		return noThrottle
	}
	return t
}

func (s *Source) cpuTemp(ctx context.Context) (any, bool) {
	if out, err := s.command(ctx, s.cfg.TempCommand); err == nil {
		if t, err := ParseMeasureTemp(out); err == nil {
			return t, true
		}
	}

	stats, err := s.temperatures(ctx)
	if err != nil && len(stats) == 0 {
		s.logger.Debug().Err(err).Msg("cpu temperature unavailable")
		return nil, false
	}
	for _, st := range stats {
		key := strings.ToLower(st.SensorKey)
		if strings.Contains(key, "cpu") || strings.Contains(key, "core") || strings.Contains(key, "soc") {
			return st.Temperature, true
		}
	}
	return nil, false
}

var errNoCommand = errors.New("host: no command configured")

func (s *Source) command(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", errNoCommand
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := s.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Invalidate drops cached facts for the given keys, or all of them.
func (s *Source) Invalidate(keys ...string) {
	s.cache.Invalidate(keys...)
}

// IP returns the primary IPv4 address.
func (s *Source) IP(ctx context.Context, ttl time.Duration) (string, bool) {
	v, ok := s.cache.Get(ctx, KeyIP, ttl)
	ip, _ := v.(string)
	return ip, ok && ip != ""
}

// Uptime returns seconds since boot.
func (s *Source) Uptime(ctx context.Context, ttl time.Duration) (float64, bool) {
	v, ok := s.cache.Get(ctx, KeyUptime, ttl)
	secs, isFloat := v.(float64)
	return secs, ok && isFloat
}

// Throttle returns the firmware throttle flags. When they cannot be read
// every flag is false.
func (s *Source) Throttle(ctx context.Context, ttl time.Duration) Throttle {
	v, _ := s.cache.Get(ctx, KeyThrottle, ttl)
	t, ok := v.(Throttle)
	if !ok {
		return noThrottle
	}
	return t
}

// CPUTemperature returns the CPU temperature in degrees Celsius.
func (s *Source) CPUTemperature(ctx context.Context, ttl time.Duration) (float64, bool) {
	v, ok := s.cache.Get(ctx, KeyCPUTemp, ttl)
	t, isFloat := v.(float64)
	return t, ok && isFloat
}
