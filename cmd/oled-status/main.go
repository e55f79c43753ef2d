// Package main is the entry point for the oled-status display daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/jamesprial/oled-status/internal/alarm"
	"github.com/jamesprial/oled-status/internal/config"
	"github.com/jamesprial/oled-status/internal/hardware"
	"github.com/jamesprial/oled-status/internal/hardware/gpio"
	"github.com/jamesprial/oled-status/internal/hardware/preview"
	"github.com/jamesprial/oled-status/internal/hardware/ssd1306"
	"github.com/jamesprial/oled-status/internal/logging"
	"github.com/jamesprial/oled-status/internal/mdadm"
	"github.com/jamesprial/oled-status/internal/nav"
	"github.com/jamesprial/oled-status/internal/pages"
	"github.com/jamesprial/oled-status/internal/render"
	"github.com/jamesprial/oled-status/internal/scheduler"
	"github.com/jamesprial/oled-status/internal/sources"
)

const (
	defaultConfigPath = "/etc/oled-status/config.yaml"
	configPathEnv     = "OLED_STATUS_CONFIG_PATH"
)

func main() {
	configFlag := flag.String("config", "", "path to the config file (.yaml or .toml)")
	flag.Parse()

	path := configPath(*configFlag)
	cfg, loadErr := config.LoadConfig(path)
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}
	config.ApplyEnvOverrides(cfg)

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	if loadErr != nil {
		logger.Warn().Err(loadErr).Str("path", path).Msg("could not load config, using defaults")
	} else {
		logger.Info().Str("path", path).Msg("loaded config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		closeLog()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("oled-status failed")
		stop()
		closeLog()
		os.Exit(1)
	}
	logger.Info().Msg("oled-status stopped")
}

// configPath picks the flag value, then the environment, then the default.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// newLogger writes to stderr, except in preview mode where the terminal
// belongs to the preview and logs go to a file instead.
func newLogger(cfg *config.Config) (*log.Logger, func()) {
	if cfg.Display.Driver != config.DriverPreview {
		return logging.New(cfg.Logging), func() {}
	}
	path := filepath.Join(os.TempDir(), "oled-status-preview.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logger := logging.New(cfg.Logging)
		logger.Warn().Err(err).Str("path", path).Msg("could not open preview log")
		return logger, func() {}
	}
	fmt.Fprintf(os.Stderr, "preview logs: %s\n", path)
	return logging.NewWithWriter(cfg.Logging, f), func() { _ = f.Close() }
}

// devices are the hardware the daemon drives. Button may be nil.
type devices struct {
	display hardware.Display
	buzzer  hardware.Buzzer
	button  hardware.Button
	preview *preview.Preview
}

func openDevices(cfg *config.Config, logger *log.Logger) (*devices, error) {
	if cfg.Display.Driver == config.DriverPreview {
		pv := preview.New(logger)
		return &devices{display: pv, buzzer: pv, button: pv, preview: pv}, nil
	}

	display, err := ssd1306.Open(cfg.Display.I2CBus, cfg.Display.I2CAddress)
	if err != nil {
		return nil, err
	}
	dev := &devices{display: display}
	logger.Info().Str("bus", cfg.Display.I2CBus).Int("address", cfg.Display.I2CAddress).Msg("display ready")

	if buzzer, err := gpio.OpenBuzzer(cfg.GPIO.Chip, cfg.GPIO.BuzzerPin, logger); err != nil {
		logger.Warn().Err(err).Str("chip", cfg.GPIO.Chip).Int("line", cfg.GPIO.BuzzerPin).Msg("buzzer unavailable, alarms will only be logged")
		dev.buzzer = silentBuzzer{logger: logger}
	} else {
		dev.buzzer = buzzer
	}

	if button, err := gpio.OpenButton(cfg.GPIO.Chip, cfg.GPIO.ButtonPin, logger); err != nil {
		logger.Warn().Err(err).Str("chip", cfg.GPIO.Chip).Int("line", cfg.GPIO.ButtonPin).Msg("button unavailable, navigation disabled")
	} else {
		dev.button = button
	}
	return dev, nil
}

// close releases every device. A failing step does not stop the others.
func (d *devices) close(logger *log.Logger) {
	guard(logger, "clear display", d.display.Clear)
	guard(logger, "close display", d.display.Close)
	guard(logger, "close buzzer", d.buzzer.Close)
	if d.button != nil {
		guard(logger, "close button", d.button.Close)
	}
}

// guard runs one cleanup step, logging its error or panic.
func guard(logger *log.Logger, step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Str("step", step).Str("panic", fmt.Sprint(r)).Msg("cleanup failed")
		}
	}()
	if err := fn(); err != nil {
		logger.Warn().Err(err).Str("step", step).Msg("cleanup failed")
	}
}

// silentBuzzer stands in for a buzzer that could not be opened.
type silentBuzzer struct {
	logger *log.Logger
}

func (b silentBuzzer) Play(p hardware.Pattern) {
	b.logger.Info().Str("pattern", string(p)).Msg("buzzer unavailable, pattern not played")
}

func (silentBuzzer) Close() error { return nil }

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dev, err := openDevices(cfg, logger)
	if err != nil {
		return err
	}
	defer dev.close(logger)

	g, ctx := errgroup.WithContext(ctx)
	if dev.preview != nil {
		g.Go(func() error {
			defer cancel()
			return dev.preview.Run(ctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return serve(ctx, cfg, dev, logger)
	})
	return g.Wait()
}

// serve shows the loading screen, resolves the array and runs the render
// loop and the button until ctx is done. A missing array shows the fatal
// screen and returns nil.
func serve(ctx context.Context, cfg *config.Config, dev *devices, logger *log.Logger) error {
	if err := scheduler.ShowLoading(dev.display, "Loading..."); err != nil {
		logger.Warn().Err(err).Msg("could not show loading screen")
	}

	data, err := sources.New(cfg, logger, sources.Options{})
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}

	array, err := data.Array.Resolve()
	if errors.Is(err, mdadm.ErrNoArray) {
		logger.Error().Err(err).Str("mount", cfg.Storage.Mount).Msg("RAID not found")
		return scheduler.ShowFatal(ctx, dev.display, "RAID not found", cfg.Storage.Mount, cfg.Timing.FatalWait.Duration)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve array: %w", err)
	}
	logger.Info().Str("array", array).Str("mount", cfg.Storage.Mount).Str("glances", cfg.Glances.URL).Msg("monitoring array")

	anim := &render.Animation{}
	env := &pages.Env{
		Data:     data,
		Anim:     anim,
		TempWarn: cfg.Alarms.TempWarn,
		TempHot:  cfg.Alarms.TempHot,
	}
	browse := env.Browse()
	controller := nav.New(len(browse), cfg.Timing.NavTimeout.Duration, nil)

	seed := uint64(time.Now().UnixNano())
	env.Screensaver = pages.NewScreensaver(cfg.Timing.ScreensaverAfter.Duration, controller.IdleFor, rand.New(rand.NewPCG(seed, seed>>1)))

	engine := alarm.NewEngine(
		alarm.NewState(cfg.Alarms.Cooldown.Duration, nil),
		data,
		dev.buzzer,
		alarm.Thresholds{Warn: cfg.Alarms.TempWarn, Hot: cfg.Alarms.TempHot},
		logger,
	)

	sched := scheduler.New(scheduler.Options{
		Display:  dev.display,
		Alarms:   engine,
		Nav:      controller,
		Anim:     anim,
		Home:     env.Home(),
		Browse:   browse,
		Interval: cfg.Timing.DisplayInterval.Duration,
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	if dev.button != nil {
		g.Go(func() error {
			if err := dev.button.Watch(ctx, controller.Press); err != nil {
				logger.Warn().Err(err).Msg("button watcher stopped, navigation disabled")
			}
			return nil
		})
	}
	g.Go(func() error {
		return sched.Run(ctx)
	})
	return g.Wait()
}
