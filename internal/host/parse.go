// Package host reads cheap facts about the local machine: its primary
// address, uptime, firmware throttle flags and CPU temperature.
package host

import (
	"fmt"
	"strconv"
	"strings"
)

// Throttle flag bits reported by "vcgencmd get_throttled". The same flags
// shifted left by 16 mean the condition has occurred since boot.
const (
	bitUnderVoltage  = 0x1
	bitFreqCapped    = 0x2
	bitThrottled     = 0x4
	bitSoftTempLimit = 0x8
	occurredShift    = 16
)

// Throttle is the decoded firmware throttle state.
type Throttle struct {
	UnderVoltage  bool
	FreqCapped    bool
	Throttled     bool
	SoftTempLimit bool

	UnderVoltageOccurred  bool
	FreqCappedOccurred    bool
	ThrottledOccurred     bool
	SoftTempLimitOccurred bool

	// Raw is the hex value as printed by the firmware, "0x0" when unknown.
	Raw string
}

// PowerProblem reports a current under-voltage or throttling condition.
func (t Throttle) PowerProblem() bool {
	return t.UnderVoltage || t.Throttled
}

// noThrottle is reported when the flags cannot be read.
var noThrottle = Throttle{Raw: "0x0"}

// ParseThrottled decodes output of the form "throttled=0x50005".
func ParseThrottled(out string) (Throttle, error) {
	_, hexval, ok := strings.Cut(strings.TrimSpace(out), "=")
	if !ok {
		return noThrottle, fmt.Errorf("host: unexpected throttle output %q", out)
	}
	hexval = strings.TrimSpace(hexval)
	val, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(hexval), "0x"), 16, 32)
	if err != nil {
		return noThrottle, fmt.Errorf("host: parse throttle value %q: %w", hexval, err)
	}

	occurred := val >> occurredShift
	return Throttle{
		UnderVoltage:          val&bitUnderVoltage != 0,
		FreqCapped:            val&bitFreqCapped != 0,
		Throttled:             val&bitThrottled != 0,
		SoftTempLimit:         val&bitSoftTempLimit != 0,
		UnderVoltageOccurred:  occurred&bitUnderVoltage != 0,
		FreqCappedOccurred:    occurred&bitFreqCapped != 0,
		ThrottledOccurred:     occurred&bitThrottled != 0,
		SoftTempLimitOccurred: occurred&bitSoftTempLimit != 0,
		Raw:                   hexval,
	}, nil
}

// ParseMeasureTemp decodes output of the form "temp=47.8'C".
func ParseMeasureTemp(out string) (float64, error) {
	_, rest, ok := strings.Cut(strings.TrimSpace(out), "=")
	if !ok {
		return 0, fmt.Errorf("host: unexpected temperature output %q", out)
	}
	value, _, _ := strings.Cut(rest, "'")
	t, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("host: parse temperature %q: %w", value, err)
	}
	return t, nil
}
