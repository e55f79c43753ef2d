// Package ssd1306 drives a 128x64 SSD1306 OLED over Linux i2c-dev.
package ssd1306

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/jamesprial/oled-status/internal/render"
)

// i2cSlave is the i2c-dev ioctl that selects the target address.
const i2cSlave = 0x0703

// Control bytes prefixed to every transfer.
const (
	controlCommand byte = 0x00
	controlData    byte = 0x40
)

// initSequence configures a 128x64 panel with the internal charge pump,
// horizontal addressing and the origin in the top left corner.
var initSequence = []byte{
	0xAE,       // display off
	0xD5, 0x80, // clock divide
	0xA8, 0x3F, // multiplex 64
	0xD3, 0x00, // display offset
	0x40,       // start line 0
	0x8D, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xA1,       // segment remap
	0xC8,       // COM scan descending
	0xDA, 0x12, // COM pins
	0x81, 0xCF, // contrast
	0xD9, 0xF1, // precharge
	0xDB, 0x40, // VCOMH deselect
	0xA4,       // resume from RAM
	0xA6,       // normal, not inverted
	0xAF,       // display on
}

// fullWindow addresses every column and page before a frame upload.
var fullWindow = []byte{
	0x21, 0x00, render.Width - 1,
	0x22, 0x00, render.Height/8 - 1,
}

// Device is an initialised display. It is safe for concurrent use.
type Device struct {
	mu  sync.Mutex
	bus io.WriteCloser
}

// Open opens the i2c bus device, selects addr and initialises the panel.
func Open(bus string, addr int) (*Device, error) {
	f, err := os.OpenFile(bus, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %s: %w", bus, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, addr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to select i2c address %#x: %w", addr, err)
	}
	return New(f)
}

// New initialises a panel reachable through bus, where every Write is one
// I2C transfer to the already selected address.
func New(bus io.WriteCloser) (*Device, error) {
	d := &Device{bus: bus}
	if err := d.command(initSequence...); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to initialise display: %w", err)
	}
	return d, nil
}

// Show uploads f as one full frame.
func (d *Device) Show(f *render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.upload(f.Pack())
}

// Clear blanks the panel.
func (d *Device) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.upload(make([]byte, render.Width*render.Height/8))
}

// Close turns the panel off and releases the bus.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	offErr := d.write(controlCommand, []byte{0xAE})
	if err := d.bus.Close(); err != nil {
		return fmt.Errorf("failed to close i2c bus: %w", err)
	}
	if offErr != nil {
		return fmt.Errorf("failed to switch display off: %w", offErr)
	}
	return nil
}

func (d *Device) command(cmds ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(controlCommand, cmds)
}

func (d *Device) upload(buf []byte) error {
	if err := d.write(controlCommand, fullWindow); err != nil {
		return fmt.Errorf("failed to set window: %w", err)
	}
	if err := d.write(controlData, buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (d *Device) write(control byte, payload []byte) error {
	msg := make([]byte, 0, len(payload)+1)
	msg = append(msg, control)
	msg = append(msg, payload...)
	_, err := d.bus.Write(msg)
	return err
}
