// Package filter decides which disks the SMART checks cover.
package filter

import (
	"path"
	"strings"

	"github.com/jamesprial/oled-status/internal/config"
)

// Filter holds glob patterns (path.Match syntax) for disks to watch and
// disks to skip. A disk is tested under its short kernel name and, when it
// is a partition, under the name of the whole disk too, so "nvme0n1" also
// covers "nvme0n1p2".
type Filter struct {
	allow []string
	deny  []string
}

// New returns a Filter. An empty allow list watches every disk not denied.
func New(allow, deny []string) *Filter {
	return &Filter{allow: allow, deny: deny}
}

// FromConfig builds a Filter from the alarms.disks section.
func FromConfig(cfg config.DiskFilter) *Filter {
	return New(cfg.Allowlist, cfg.Denylist)
}

// IsAllowed reports whether disk is watched. A deny match always wins. A
// nil Filter watches everything.
func (f *Filter) IsAllowed(disk string) bool {
	if f == nil {
		return true
	}
	names := candidates(disk)
	if anyMatch(f.deny, names) {
		return false
	}
	return len(f.allow) == 0 || anyMatch(f.allow, names)
}

// ShortName strips a /dev/ style directory from a device path.
func ShortName(disk string) string {
	return path.Base(strings.TrimSpace(disk))
}

// WholeDisk returns the disk a partition lives on: sda1 is on sda,
// nvme0n1p2 on nvme0n1 and mmcblk0p1 on mmcblk0. Any other name is
// returned as its short name.
func WholeDisk(disk string) string {
	name := ShortName(disk)
	switch {
	case strings.HasPrefix(name, "nvme"), strings.HasPrefix(name, "mmcblk"):
		i := strings.LastIndexByte(name, 'p')
		if i > 0 && allDigits(name[i+1:]) && allDigits(name[i-1:i]) {
			return name[:i]
		}
	case strings.HasPrefix(name, "sd"), strings.HasPrefix(name, "hd"),
		strings.HasPrefix(name, "vd"), strings.HasPrefix(name, "xvd"):
		if base := strings.TrimRight(name, "0123456789"); base != "" {
			return base
		}
	}
	return name
}

func candidates(disk string) []string {
	name := ShortName(disk)
	if whole := WholeDisk(name); whole != name {
		return []string{name, whole}
	}
	return []string{name}
}

// anyMatch treats malformed patterns as matching nothing.
func anyMatch(patterns, names []string) bool {
	for _, p := range patterns {
		for _, n := range names {
			if ok, err := path.Match(p, n); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
