package glances

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/cache"
	"github.com/jamesprial/oled-status/internal/filter"
)

// Source is the cached view of the Glances API. Every accessor takes the
// caller's TTL; a failed request is cached as absent for that TTL.
type Source struct {
	client Client
	disks  *filter.Filter
	logger *log.Logger
	cache  *cache.Cache[any]
}

// Option configures a Source.
type Option func(*sourceOptions)

type sourceOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now in the underlying cache.
func WithClock(now func() time.Time) Option {
	return func(o *sourceOptions) { o.now = now }
}

// NewSource returns a Source reading through client. disks restricts which
// SMART devices are reported; nil allows all.
func NewSource(client Client, disks *filter.Filter, logger *log.Logger, opts ...Option) *Source {
	var o sourceOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := &Source{
		client: client,
		disks:  disks,
		logger: logger,
	}
	s.cache = cache.New[any](cache.FetchFunc[any](s.fetch), cache.WithClock[any](o.now))
	return s
}

// fetch requests one endpoint and decodes it into its typed payload.
func (s *Source) fetch(ctx context.Context, endpoint string) (any, bool) {
	body, err := s.client.Get(ctx, endpoint)
	if err != nil {
		s.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("glances fetch failed")
		return nil, false
	}

	v, err := decode(endpoint, body, s.disks)
	if err != nil {
		s.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("glances decode failed")
		return nil, false
	}
	return v, true
}

func decode(endpoint string, body []byte, disks *filter.Filter) (any, error) {
	switch endpoint {
	case EndpointCPU:
		return decodeJSON[CPU](body)
	case EndpointLoad:
		return decodeJSON[Load](body)
	case EndpointMem:
		return decodeJSON[Mem](body)
	case EndpointFS:
		return decodeJSON[[]FS](body)
	case EndpointNetwork:
		return decodeJSON[[]NetInterface](body)
	case EndpointRaid:
		return decodeJSON[map[string]Raid](body)
	case EndpointDiskIO:
		return decodeJSON[[]DiskIO](body)
	case EndpointSensors:
		return decodeJSON[[]Sensor](body)
	case EndpointSMART:
		return ParseSMART(body, disks.IsAllowed)
	default:
		var raw any
		err := json.Unmarshal(body, &raw)
		return raw, err
	}
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

// get reads key through the cache and asserts its payload type.
func get[T any](ctx context.Context, s *Source, key string, ttl time.Duration) (T, bool) {
	var zero T
	v, ok := s.cache.Get(ctx, key, ttl)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Invalidate drops cached payloads for the given endpoints, or all of them.
func (s *Source) Invalidate(endpoints ...string) {
	s.cache.Invalidate(endpoints...)
}

// CPU returns overall CPU usage.
func (s *Source) CPU(ctx context.Context, ttl time.Duration) (CPU, bool) {
	return get[CPU](ctx, s, EndpointCPU, ttl)
}

// Load returns the load averages.
func (s *Source) Load(ctx context.Context, ttl time.Duration) (Load, bool) {
	return get[Load](ctx, s, EndpointLoad, ttl)
}

// Mem returns memory usage.
func (s *Source) Mem(ctx context.Context, ttl time.Duration) (Mem, bool) {
	return get[Mem](ctx, s, EndpointMem, ttl)
}

// FS returns usage of the filesystem mounted at mount.
func (s *Source) FS(ctx context.Context, mount string, ttl time.Duration) (FS, bool) {
	list, ok := get[[]FS](ctx, s, EndpointFS, ttl)
	if !ok {
		return FS{}, false
	}
	for _, f := range list {
		if f.MntPoint == mount {
			return f, true
		}
	}
	return FS{}, false
}

// Network returns the byte rates of the named interface.
func (s *Source) Network(ctx context.Context, iface string, ttl time.Duration) (NetInterface, bool) {
	list, ok := get[[]NetInterface](ctx, s, EndpointNetwork, ttl)
	if !ok {
		return NetInterface{}, false
	}
	for _, n := range list {
		if n.InterfaceName == iface {
			return n, true
		}
	}
	return NetInterface{}, false
}

// Raid returns the summary of the named array.
func (s *Source) Raid(ctx context.Context, name string, ttl time.Duration) (Raid, bool) {
	arrays, ok := get[map[string]Raid](ctx, s, EndpointRaid, ttl)
	if !ok {
		return Raid{}, false
	}
	r, ok := arrays[name]
	return r, ok
}

// DiskIO returns the byte rates of the named block device.
func (s *Source) DiskIO(ctx context.Context, disk string, ttl time.Duration) (DiskIO, bool) {
	list, ok := get[[]DiskIO](ctx, s, EndpointDiskIO, ttl)
	if !ok {
		return DiskIO{}, false
	}
	for _, d := range list {
		if d.DiskName == disk {
			return d, true
		}
	}
	return DiskIO{}, false
}

// Sensors returns every sensor reading.
func (s *Source) Sensors(ctx context.Context, ttl time.Duration) ([]Sensor, bool) {
	return get[[]Sensor](ctx, s, EndpointSensors, ttl)
}

// CPUTemperature returns the first temperature sensor whose label mentions
// the CPU or a core.
func (s *Source) CPUTemperature(ctx context.Context, ttl time.Duration) (float64, bool) {
	sensors, ok := s.Sensors(ctx, ttl)
	if !ok {
		return 0, false
	}
	for _, sn := range sensors {
		if sn.Type != "" && !strings.HasPrefix(sn.Type, "temperature") {
			continue
		}
		label := strings.ToLower(sn.Label)
		if !strings.Contains(label, "cpu") && !strings.Contains(label, "core") {
			continue
		}
		if sn.Value == nil {
			return 0, false
		}
		return *sn.Value, true
	}
	return 0, false
}

// SMART returns per-disk SMART health for the monitored disks.
func (s *Source) SMART(ctx context.Context, ttl time.Duration) (map[string]DiskHealth, bool) {
	return get[map[string]DiskHealth](ctx, s, EndpointSMART, ttl)
}

// MaxDiskTemperature returns the hottest monitored disk.
func (s *Source) MaxDiskTemperature(ctx context.Context, ttl time.Duration) (float64, bool) {
	disks, ok := s.SMART(ctx, ttl)
	if !ok {
		return 0, false
	}
	return MaxTemperature(disks)
}
