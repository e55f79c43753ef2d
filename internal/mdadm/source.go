package mdadm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/jamesprial/oled-status/internal/cache"
	"github.com/jamesprial/oled-status/internal/config"
)

const keyStatus = "status"

// Source is the cached view of the monitored array. The array name is
// resolved on first use and kept for the life of the process once found.
type Source struct {
	paths  config.PathsConfig
	mount  string
	logger *log.Logger

	mu   sync.Mutex
	name string

	cache *cache.Cache[Status]
}

// NewSource returns a Source for the array backing mount. now replaces
// time.Now in the cache when non-nil.
func NewSource(paths config.PathsConfig, mount string, logger *log.Logger, now func() time.Time) *Source {
	s := &Source{
		paths:  paths,
		mount:  mount,
		logger: logger,
	}
	s.cache = cache.New[Status](cache.FetchFunc[Status](s.fetch), cache.WithClock[Status](now))
	return s
}

// Resolve returns the array name, resolving it if it is not known yet.
// A failed resolution is retried on the next call.
func (s *Source) Resolve() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.name != "" {
		return s.name, nil
	}
	name, err := ResolveName(s.paths, s.mount)
	if err != nil {
		return "", err
	}
	s.name = name
	s.logger.Info().Str("array", name).Str("mount", s.mount).Msg("md array resolved")
	return name, nil
}

// Name returns the array name, or false when none can be found.
func (s *Source) Name() (string, bool) {
	name, err := s.Resolve()
	return name, err == nil
}

// Status returns the live array status.
func (s *Source) Status(ctx context.Context, ttl time.Duration) (Status, bool) {
	return s.cache.Get(ctx, keyStatus, ttl)
}

// Invalidate drops the cached status. The resolved name is kept.
func (s *Source) Invalidate() {
	s.cache.Invalidate()
}

func (s *Source) fetch(_ context.Context, _ string) (Status, bool) {
	name, ok := s.Name()
	if !ok {
		return Status{}, false
	}

	mdDir := filepath.Join(s.paths.Sys, "block", name, "md")
	st := Status{
		ArrayState: readTrimmed(filepath.Join(mdDir, "array_state")),
		SyncAction: readTrimmed(filepath.Join(mdDir, "sync_action")),
	}

	if st.Active() {
		data, err := os.ReadFile(filepath.Join(s.paths.Proc, "mdstat"))
		if err != nil {
			s.logger.Debug().Err(err).Msg("read mdstat failed")
		} else {
			st.SyncProgress = ParseMdstat(string(data), name)
		}
	}
	return st, true
}

// readTrimmed returns the trimmed content of a single-value pseudo-file, or
// "" when it cannot be read.
func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
