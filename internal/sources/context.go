// Package sources bundles the data sources the pages and the alarm engine
// read from.
package sources

import (
	"time"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/config"
	"github.com/jamesprial/oled-status/internal/filter"
	"github.com/jamesprial/oled-status/internal/glances"
	"github.com/jamesprial/oled-status/internal/host"
	"github.com/jamesprial/oled-status/internal/mdadm"
)

// Context owns one instance of each source. Pages and alarms hold a
// reference to it and call the sources with their own TTLs.
type Context struct {
	Glances *glances.Source
	Array   *mdadm.Source
	Host    *host.Source

	// Storage names the monitored mount, interface and temperature disks.
	Storage config.StorageConfig
}

// Options carries the collaborators New cannot build from configuration.
type Options struct {
	// Client overrides the HTTP Glances client.
	Client glances.Client
	// Now replaces time.Now in every cache.
	Now func() time.Time
	// HostOptions are passed to host.NewSource.
	HostOptions []host.Option
}

// New builds the sources described by cfg.
func New(cfg *config.Config, logger *log.Logger, opts Options) (*Context, error) {
	client := opts.Client
	if client == nil {
		c, err := glances.NewHTTPClient(cfg.Glances)
		if err != nil {
			return nil, err
		}
		client = c
	}

	return &Context{
		Glances: glances.NewSource(client, filter.FromConfig(cfg.Alarms.Disks), logger, glances.WithClock(opts.Now)),
		Array:   mdadm.NewSource(cfg.Paths, cfg.Storage.Mount, logger, opts.Now),
		Host:    host.NewSource(cfg.Host, logger, opts.Now, opts.HostOptions...),
		Storage: cfg.Storage,
	}, nil
}

// InvalidateAll drops every cached value in every source. The resolved
// array name is kept.
func (c *Context) InvalidateAll() {
	c.Glances.Invalidate()
	c.Array.Invalidate()
	c.Host.Invalidate()
}
