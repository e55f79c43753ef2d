package glances

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DiskHealth holds the SMART attributes of one physical disk. Counters the
// disk does not report are zero.
type DiskHealth struct {
	TemperatureC   float64
	HasTemperature bool

	PowerOnHours         int64
	PowerCycles          int64
	ReallocatedSectors   int64
	PendingSectors       int64
	UncorrectableSectors int64
	CRCErrors            int64
}

// BadSectors reports whether any reallocated, pending or uncorrectable
// sector has been recorded.
func (d DiskHealth) BadSectors() bool {
	return d.ReallocatedSectors > 0 || d.PendingSectors > 0 || d.UncorrectableSectors > 0
}

// MaxTemperature returns the highest known temperature across disks.
func MaxTemperature(disks map[string]DiskHealth) (float64, bool) {
	var hottest float64
	found := false
	for _, d := range disks {
		if !d.HasTemperature {
			continue
		}
		if !found || d.TemperatureC > hottest {
			hottest = d.TemperatureC
			found = true
		}
	}
	return hottest, found
}

var (
	deviceRe    = regexp.MustCompile(`^(sd[a-z]+|nvme\d+n\d+|hd[a-z]+)$`)
	firstNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// smartAttr is one attribute entry, keyed by its numeric id in the payload.
type smartAttr struct {
	Name string `json:"name"`
	Raw  any    `json:"raw"`
}

// ParseSMART decodes the smart endpoint payload into per-device health keyed
// by short device name ("sda", "nvme0n1"). Entries whose device name is not a
// physical disk, and disks without any recognised attribute, are skipped.
// allow, when non-nil, further restricts which devices are kept.
func ParseSMART(data []byte, allow func(string) bool) (map[string]DiskHealth, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("glances: decode smart: %w", err)
	}

	out := make(map[string]DiskHealth)
	for _, rawEntry := range entries {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		dev := deviceName(entry)
		if dev == "" {
			continue
		}
		if allow != nil && !allow(dev) {
			continue
		}

		var d DiskHealth
		known := false

		if v, ok := attrValue(entry, "temp", "194", "190"); ok {
			d.TemperatureC, d.HasTemperature, known = v, true, true
		}
		counters := []struct {
			id  string
			dst *int64
		}{
			{"9", &d.PowerOnHours},
			{"12", &d.PowerCycles},
			{"5", &d.ReallocatedSectors},
			{"197", &d.PendingSectors},
			{"198", &d.UncorrectableSectors},
			{"199", &d.CRCErrors},
		}
		for _, c := range counters {
			if v, ok := attrValue(entry, "", c.id); ok {
				*c.dst = int64(v)
				known = true
			}
		}

		if known {
			out[dev] = d
		}
	}
	return out, nil
}

// deviceName returns the first token of DeviceName when it names a physical
// disk.
func deviceName(entry map[string]json.RawMessage) string {
	raw, ok := entry["DeviceName"]
	if !ok {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return ""
	}
	fields := strings.Fields(name)
	if len(fields) == 0 || !deviceRe.MatchString(fields[0]) {
		return ""
	}
	return fields[0]
}

// attrValue returns the first number in the raw field of the first listed
// attribute id present. When nameFilter is set the attribute name must
// contain it (case-insensitive).
func attrValue(entry map[string]json.RawMessage, nameFilter string, ids ...string) (float64, bool) {
	for _, id := range ids {
		raw, ok := entry[id]
		if !ok {
			continue
		}
		var a smartAttr
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(a.Name), nameFilter) {
			continue
		}
		if a.Raw == nil {
			continue
		}
		m := firstNumber.FindString(rawString(a.Raw))
		if m == "" {
			continue
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
