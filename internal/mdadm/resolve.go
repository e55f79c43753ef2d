package mdadm

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jamesprial/oled-status/internal/config"
)

// ErrNoArray is returned when no md array can be found by any method.
var ErrNoArray = errors.New("mdadm: no md array found")

var (
	mdBaseRe   = regexp.MustCompile(`^(md\d+)`)
	mdstatName = regexp.MustCompile(`^(md\d+)\s*:\s*`)
)

// ResolveName finds the md array backing mount, trying in order:
//  1. the device mounted at mount in {proc}/mounts, reduced to its mdN base
//  2. the first "mdN :" line of {proc}/mdstat
//  3. the first {dev}/md[0-9]* node in sorted order
func ResolveName(paths config.PathsConfig, mount string) (string, error) {
	if name, ok := nameFromMounts(filepath.Join(paths.Proc, "mounts"), mount); ok {
		return name, nil
	}
	if name, ok := nameFromMdstat(filepath.Join(paths.Proc, "mdstat")); ok {
		return name, nil
	}
	if name, ok := nameFromDevices(paths.Dev); ok {
		return name, nil
	}
	return "", ErrNoArray
}

func nameFromMounts(path, mount string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[1] != mount {
			continue
		}
		if m := mdBaseRe.FindStringSubmatch(filepath.Base(fields[0])); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func nameFromMdstat(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := mdstatName.FindStringSubmatch(scanner.Text()); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func nameFromDevices(devPath string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(devPath, "md[0-9]*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return filepath.Base(matches[0]), true
}
