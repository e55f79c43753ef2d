// Package format turns monitoring values into the short strings shown on the
// display. Every formatter has a fixed width budget of a few characters and
// absent values render as NA.
package format

import (
	"fmt"
	"strings"
)

// NA is shown wherever a value is unknown.
const NA = "N/A"

// Default temperature thresholds in degrees Celsius. Both are inclusive lower
// bounds.
const (
	TempWarn = 50.0
	TempHot  = 60.0
)

// Maybe applies f to v when ok is true and returns NA otherwise.
func Maybe[T any](v T, ok bool, f func(T) string) string {
	if !ok {
		return NA
	}
	return f(v)
}

// Rate formats a throughput given in KiB per second, switching unit at 1024.
func Rate(kps float64) string {
	switch {
	case kps < 1024:
		return fmt.Sprintf("%.0fK/s", kps)
	case kps < 1024*1024:
		return fmt.Sprintf("%.1fM/s", kps/1024)
	default:
		return fmt.Sprintf("%.1fG/s", kps/(1024*1024))
	}
}

// Time formats a duration in seconds as "Xd Yh", "Xh Ym" or "Xm", using the
// two largest non-zero units. Fractions of a second are truncated.
func Time(seconds float64) string {
	s := int64(seconds)
	if s < 0 {
		s = 0
	}
	m := s / 60
	h := m / 60
	d := h / 24
	m %= 60
	h %= 24

	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// Minutes formats a duration given in minutes.
func Minutes(minutes float64) string {
	return Time(minutes * 60)
}

var byteUnits = []string{"B", "K", "M", "G", "T", "P"}

// Bytes formats a size with binary units. Bytes and kibibytes are shown
// without decimals, larger units with one.
func Bytes(n float64) string {
	i := 0
	for n >= 1024 && i < len(byteUnits)-1 {
		n /= 1024
		i++
	}
	if i < 2 {
		return fmt.Sprintf("%.0f%s", n, byteUnits[i])
	}
	return fmt.Sprintf("%.1f%s", n, byteUnits[i])
}

// Temp formats a temperature with the default thresholds.
func Temp(t float64) string {
	return TempWith(t, TempWarn, TempHot)
}

// TempWith formats a temperature prefixed by a two character severity marker:
// "!!" at or above hot, "! " at or above warn, two spaces otherwise.
func TempWith(t, warn, hot float64) string {
	switch {
	case t >= hot:
		return fmt.Sprintf("!!%.1fC", t)
	case t >= warn:
		return fmt.Sprintf("! %.1fC", t)
	default:
		return fmt.Sprintf("  %.1fC", t)
	}
}

// Percent formats a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// LabelValue left-aligns label and right-aligns value within cols columns.
// When both do not fit they are concatenated.
func LabelValue(label, value string, cols int) string {
	total := len(label) + len(value)
	if total >= cols {
		return label + value
	}
	return label + strings.Repeat(" ", cols-total) + value
}

// PairWidth fits a label/value pair into exactly width columns. The label is
// cut on the right and the value keeps its rightmost characters.
func PairWidth(label, value string, width int) string {
	width = max(1, width)
	if len(label) >= width {
		return label[:width]
	}

	avail := width - len(label)
	if len(value) > avail {
		value = value[len(value)-avail:]
	}
	return label + strings.Repeat(" ", avail-len(value)) + value
}

// TwoCols lays out two label/value pairs side by side in totalCols columns
// separated by gap spaces.
func TwoCols(lLabel, lValue, rLabel, rValue string, totalCols, gap int) string {
	totalCols = max(1, totalCols)
	gap = max(1, gap)

	avail := max(1, totalCols-gap)
	leftW := avail / 2
	rightW := avail - leftW

	return PairWidth(lLabel, lValue, leftW) + strings.Repeat(" ", gap) + PairWidth(rLabel, rValue, rightW)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
