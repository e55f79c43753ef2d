// Package glances reads host metrics from the Glances REST API.
package glances

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Endpoint names under the API root. Each one is also the cache key of the
// decoded payload.
const (
	EndpointCPU     = "cpu"
	EndpointLoad    = "load"
	EndpointMem     = "mem"
	EndpointFS      = "fs"
	EndpointNetwork = "network"
	EndpointRaid    = "raid"
	EndpointDiskIO  = "diskio"
	EndpointSensors = "sensors"
	EndpointSMART   = "smart"
)

// Client fetches the raw JSON body of one API endpoint.
type Client interface {
	Get(ctx context.Context, endpoint string) ([]byte, error)
}

// CPU is the cpu endpoint payload.
type CPU struct {
	Total float64 `json:"total"`
}

// Load is the load endpoint payload.
type Load struct {
	Min1  float64 `json:"min1"`
	Min5  float64 `json:"min5"`
	Min15 float64 `json:"min15"`
}

// Mem is the mem endpoint payload. Sizes are in bytes.
type Mem struct {
	Percent float64 `json:"percent"`
	Total   float64 `json:"total"`
	Used    float64 `json:"used"`
}

// FS is one entry of the fs endpoint. Sizes are in bytes.
type FS struct {
	MntPoint string  `json:"mnt_point"`
	Used     float64 `json:"used"`
	Free     float64 `json:"free"`
	Percent  float64 `json:"percent"`
	Size     float64 `json:"size"`
}

// NetInterface is one entry of the network endpoint. Rates are bytes per
// second.
type NetInterface struct {
	InterfaceName string  `json:"interface_name"`
	SentRate      float64 `json:"bytes_sent_rate_per_sec"`
	RecvRate      float64 `json:"bytes_recv_rate_per_sec"`
}

// DiskIO is one entry of the diskio endpoint. Rates are bytes per second.
type DiskIO struct {
	DiskName  string  `json:"disk_name"`
	ReadRate  float64 `json:"read_bytes_rate_per_sec"`
	WriteRate float64 `json:"write_bytes_rate_per_sec"`
}

// Sensor is one entry of the sensors endpoint. Value is nil when the sensor
// has no reading.
type Sensor struct {
	Label string   `json:"label"`
	Type  string   `json:"type"`
	Value *float64 `json:"value"`
}

// Raid is one array of the raid endpoint, keyed by array name.
type Raid struct {
	Status     string            `json:"status"`
	Type       string            `json:"type"`
	Config     string            `json:"config"`
	Used       FlexInt           `json:"used"`
	Available  FlexInt           `json:"available"`
	Members    []string          `json:"members"`
	Components map[string]string `json:"components"`
}

// MemberNames returns the member devices, taken from members when present and
// from the sorted component names otherwise.
func (r Raid) MemberNames() []string {
	if len(r.Members) > 0 {
		return r.Members
	}
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FlexInt decodes an integer that the API may send either as a number or as
// a numeric string. Valid is false when the field was absent, null or not a
// whole number.
type FlexInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler. Malformed values decode to an
// invalid FlexInt rather than failing the whole payload.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
