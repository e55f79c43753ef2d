// Package mdadm reads Linux software RAID (md) state from procfs and sysfs.
package mdadm

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Sync actions reported by /sys/block/<md>/md/sync_action.
const (
	ActionIdle     = "idle"
	ActionFrozen   = "frozen"
	ActionResync   = "resync"
	ActionRecovery = "recovery"
	ActionRecover  = "recover"
	ActionCheck    = "check"
	ActionRepair   = "repair"
)

// SyncProgress holds the fields of a running sync parsed from /proc/mdstat.
// Each is nil when the status log does not report it.
type SyncProgress struct {
	Percent       *float64
	FinishMinutes *float64
	SpeedKPS      *float64
}

// Status is the live state of one array. ArrayState and SyncAction are empty
// when their sysfs file could not be read. Progress fields are only filled
// while the sync action is active.
type Status struct {
	ArrayState string
	SyncAction string
	SyncProgress
}

// Active reports whether a sync action other than idle or frozen is running.
func (s Status) Active() bool {
	return s.SyncAction != "" && s.SyncAction != ActionIdle && s.SyncAction != ActionFrozen
}

// SyncLike reports whether the running action is one the home screen shows as
// a sync in progress.
func (s Status) SyncLike() bool {
	if !s.Active() {
		return false
	}
	switch s.SyncAction {
	case ActionResync, ActionRecovery, ActionRecover, ActionCheck, ActionRepair:
		return true
	}
	return false
}

// Rebuilding reports whether the array is rewriting redundancy (resync or
// recovery), as opposed to a read-only check.
func (s Status) Rebuilding() bool {
	switch s.SyncAction {
	case ActionResync, ActionRecovery, ActionRecover:
		return true
	}
	return false
}

// Degraded reports whether array_state mentions "degraded" in any case.
func (s Status) Degraded() bool {
	return strings.Contains(strings.ToLower(s.ArrayState), "degraded")
}

var (
	percentRe = regexp.MustCompile(`(resync|check|recover|recovery|repair)\s*=\s*([\d.]+)%`)
	finishRe  = regexp.MustCompile(`finish=([\d.]+)min`)
	speedRe   = regexp.MustCompile(`speed=([\d.]+)K/sec`)
)

// ParseMdstat extracts sync progress for the named array from the content of
// /proc/mdstat. Only the array's own block is searched: its "<name> :" line and
// the indented lines that follow it up to the next blank or unindented line.
func ParseMdstat(mdstat, name string) SyncProgress {
	var p SyncProgress
	block := arrayBlock(mdstat, name)
	if block == "" {
		return p
	}

	if m := percentRe.FindStringSubmatch(block); m != nil {
		p.Percent = parseFloat(m[2])
	}
	if m := finishRe.FindStringSubmatch(block); m != nil {
		p.FinishMinutes = parseFloat(m[1])
	}
	if m := speedRe.FindStringSubmatch(block); m != nil {
		p.SpeedKPS = parseFloat(m[1])
	}
	return p
}

// arrayBlock returns the lines of mdstat that describe the named array.
func arrayBlock(mdstat, name string) string {
	header := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\s*:`)

	var b strings.Builder
	inBlock := false
	scanner := bufio.NewScanner(strings.NewReader(mdstat))
	for scanner.Scan() {
		line := scanner.Text()
		if !inBlock {
			if header.MatchString(line) {
				inBlock = true
				b.WriteString(line)
				b.WriteByte('\n')
			}
			continue
		}
		if strings.TrimSpace(line) == "" || (line[0] != ' ' && line[0] != '\t') {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
