// Package config provides configuration loading and defaults for the
// oled-status daemon.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Display drivers accepted in DisplayConfig.Driver.
const (
	DriverSSD1306 = "ssd1306"
	DriverPreview = "preview"
)

// GlancesConfig holds connection details for the Glances monitoring API.
type GlancesConfig struct {
	URL string `yaml:"url" toml:"url"`
	// Timeout bounds every HTTP request so a stalled endpoint cannot stall
	// the render loop.
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// PathsConfig holds the filesystem roots the local sources read from.
type PathsConfig struct {
	Proc string `yaml:"proc" toml:"proc"`
	Sys  string `yaml:"sys" toml:"sys"`
	Dev  string `yaml:"dev" toml:"dev"`
}

// StorageConfig names what is being monitored.
type StorageConfig struct {
	// Mount is the filesystem backed by the RAID array.
	Mount string `yaml:"mount" toml:"mount"`
	// Interface is the network interface shown on the network page.
	Interface string `yaml:"interface" toml:"interface"`
	// TempDisks are the disks listed on the temperatures page.
	TempDisks []string `yaml:"temp_disks" toml:"temp_disks"`
}

// DisplayConfig selects and addresses the display.
type DisplayConfig struct {
	Driver     string `yaml:"driver" toml:"driver"`
	I2CBus     string `yaml:"i2c_bus" toml:"i2c_bus"`
	I2CAddress int    `yaml:"i2c_address" toml:"i2c_address"`
}

// GPIOConfig names the GPIO character device and the line offsets on it.
// On a Raspberry Pi the offsets on gpiochip0 are the BCM pin numbers.
type GPIOConfig struct {
	Chip      string `yaml:"chip" toml:"chip"`
	ButtonPin int    `yaml:"button_pin" toml:"button_pin"`
	BuzzerPin int    `yaml:"buzzer_pin" toml:"buzzer_pin"`
}

// TimingConfig holds loop and navigation timings.
type TimingConfig struct {
	NavTimeout       Duration `yaml:"nav_timeout" toml:"nav_timeout"`
	DisplayInterval  Duration `yaml:"display_interval" toml:"display_interval"`
	FatalWait        Duration `yaml:"fatal_wait" toml:"fatal_wait"`
	ScreensaverAfter Duration `yaml:"screensaver_after" toml:"screensaver_after"`
}

// DiskFilter holds glob patterns selecting monitored disks.
type DiskFilter struct {
	Allowlist []string `yaml:"allowlist" toml:"allowlist"`
	Denylist  []string `yaml:"denylist" toml:"denylist"`
}

// AlarmsConfig controls the buzzer alarm engine.
type AlarmsConfig struct {
	Cooldown Duration   `yaml:"cooldown" toml:"cooldown"`
	TempWarn float64    `yaml:"temp_warn" toml:"temp_warn"`
	TempHot  float64    `yaml:"temp_hot" toml:"temp_hot"`
	Disks    DiskFilter `yaml:"disks" toml:"disks"`
}

// HostConfig controls the host facts source.
type HostConfig struct {
	// ProbeAddr is dialled over UDP to learn the primary outbound address.
	// No packet is sent.
	ProbeAddr       string   `yaml:"probe_addr" toml:"probe_addr"`
	ThrottleCommand []string `yaml:"throttle_command" toml:"throttle_command"`
	TempCommand     []string `yaml:"temp_command" toml:"temp_command"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Console bool   `yaml:"console" toml:"console"`
}

// Config is the top-level configuration structure for the daemon.
type Config struct {
	Glances GlancesConfig `yaml:"glances" toml:"glances"`
	Paths   PathsConfig   `yaml:"paths" toml:"paths"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Display DisplayConfig `yaml:"display" toml:"display"`
	GPIO    GPIOConfig    `yaml:"gpio" toml:"gpio"`
	Timing  TimingConfig  `yaml:"timing" toml:"timing"`
	Alarms  AlarmsConfig  `yaml:"alarms" toml:"alarms"`
	Host    HostConfig    `yaml:"host" toml:"host"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// LoadConfig reads a configuration file and decodes it over DefaultConfig,
// so keys absent from the file keep their defaults. Files ending in .toml
// are decoded as TOML, everything else as YAML. On error, nil is returned
// for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal toml config: %w", err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a new Config populated with the appliance defaults.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Glances: GlancesConfig{
			URL:     "http://localhost:61208/api/4",
			Timeout: Duration{2 * time.Second},
		},
		Paths: PathsConfig{
			Proc: "/proc",
			Sys:  "/sys",
			Dev:  "/dev",
		},
		Storage: StorageConfig{
			Mount:     "/mnt/storage",
			Interface: "eth0",
			TempDisks: []string{"sda", "sdb"},
		},
		Display: DisplayConfig{
			Driver:     DriverSSD1306,
			I2CBus:     "/dev/i2c-1",
			I2CAddress: 0x3C,
		},
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			ButtonPin: 4,
			BuzzerPin: 17,
		},
		Timing: TimingConfig{
			NavTimeout:      Duration{10 * time.Second},
			DisplayInterval: Duration{200 * time.Millisecond},
			FatalWait:       Duration{5 * time.Second},
		},
		Alarms: AlarmsConfig{
			Cooldown: Duration{5 * time.Minute},
			TempWarn: 50.0,
			TempHot:  60.0,
		},
		Host: HostConfig{
			ProbeAddr:       "8.8.8.8:80",
			ThrottleCommand: []string{"vcgencmd", "get_throttled"},
			TempCommand:     []string{"vcgencmd", "measure_temp"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - OLED_STATUS_GLANCES_URL overrides cfg.Glances.URL
//   - OLED_STATUS_DISPLAY overrides cfg.Display.Driver
//   - OLED_STATUS_LOG_LEVEL overrides cfg.Logging.Level
//   - OLED_STATUS_STORAGE_MOUNT overrides cfg.Storage.Mount
func ApplyEnvOverrides(cfg *Config) {
	if url := os.Getenv("OLED_STATUS_GLANCES_URL"); url != "" {
		cfg.Glances.URL = url
	}
	if driver := os.Getenv("OLED_STATUS_DISPLAY"); driver != "" {
		cfg.Display.Driver = driver
	}
	if level := os.Getenv("OLED_STATUS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if mount := os.Getenv("OLED_STATUS_STORAGE_MOUNT"); mount != "" {
		cfg.Storage.Mount = mount
	}
}

// Validate reports the first setting that would make the daemon misbehave.
func (c *Config) Validate() error {
	switch c.Display.Driver {
	case DriverSSD1306, DriverPreview:
	default:
		return fmt.Errorf("display.driver: unknown driver %q (valid: %s, %s)", c.Display.Driver, DriverSSD1306, DriverPreview)
	}
	if c.Timing.DisplayInterval.Duration <= 0 {
		return fmt.Errorf("timing.display_interval must be positive")
	}
	if c.Timing.NavTimeout.Duration <= 0 {
		return fmt.Errorf("timing.nav_timeout must be positive")
	}
	if c.Glances.URL == "" {
		return fmt.Errorf("glances.url is required")
	}
	if c.Storage.Mount == "" {
		return fmt.Errorf("storage.mount is required")
	}
	if c.GPIO.Chip == "" {
		return fmt.Errorf("gpio.chip is required")
	}
	if c.Alarms.TempWarn > c.Alarms.TempHot {
		return fmt.Errorf("alarms.temp_warn (%.1f) must not exceed alarms.temp_hot (%.1f)", c.Alarms.TempWarn, c.Alarms.TempHot)
	}
	return nil
}
