package mdadm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesprial/oled-status/internal/config"
	"github.com/jamesprial/oled-status/internal/logging"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readFixture returns the content of testdata/mdstat/<name>.
func readFixture(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", "mdstat", name))
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

// writeTree creates files under a temp directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return dir
}

// treePaths maps a temp tree onto proc/sys/dev roots.
func treePaths(root string) config.PathsConfig {
	return config.PathsConfig{
		Proc: filepath.Join(root, "proc"),
		Sys:  filepath.Join(root, "sys"),
		Dev:  filepath.Join(root, "dev"),
	}
}

func ptrEq(p *float64, want float64) bool {
	return p != nil && *p == want
}

// ---------------------------------------------------------------------------
// ParseMdstat
// ---------------------------------------------------------------------------

func Test_ParseMdstat_Cases(t *testing.T) {
	tests := []struct {
		name        string
		mdstat      string
		array       string
		wantPercent float64
		wantFinish  float64
		wantSpeed   float64
		wantNone    bool
	}{
		{
			name:        "resync on md0",
			mdstat:      readFixture(t, "resync.txt"),
			array:       "md0",
			wantPercent: 52.2,
			wantFinish:  396.1,
			wantSpeed:   99181,
		},
		{
			name:        "first array of two",
			mdstat:      readFixture(t, "two_arrays.txt"),
			array:       "md1",
			wantPercent: 3.1,
			wantFinish:  512.7,
			wantSpeed:   123045,
		},
		{
			name:        "second array reads its own block",
			mdstat:      readFixture(t, "two_arrays.txt"),
			array:       "md0",
			wantPercent: 88.0,
			wantFinish:  41.5,
			wantSpeed:   188312,
		},
		{
			name:        "single line status",
			mdstat:      "md0 : active resync = 52.2% (1/2) finish=396.1min speed=99181K/sec\n",
			array:       "md0",
			wantPercent: 52.2,
			wantFinish:  396.1,
			wantSpeed:   99181,
		},
		{
			name:     "idle array has no progress",
			mdstat:   readFixture(t, "idle.txt"),
			array:    "md0",
			wantNone: true,
		},
		{
			name:     "unknown array has no progress",
			mdstat:   readFixture(t, "resync.txt"),
			array:    "md9",
			wantNone: true,
		},
		{
			name:     "md1 prefix does not match md10",
			mdstat:   "md10 : active resync = 10.0% finish=1.0min speed=1K/sec\n",
			array:    "md1",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseMdstat(tt.mdstat, tt.array)
			if tt.wantNone {
				if p.Percent != nil || p.FinishMinutes != nil || p.SpeedKPS != nil {
					t.Errorf("expected no progress, got %+v", p)
				}
				return
			}
			if !ptrEq(p.Percent, tt.wantPercent) {
				t.Errorf("Percent = %v, want %v", p.Percent, tt.wantPercent)
			}
			if !ptrEq(p.FinishMinutes, tt.wantFinish) {
				t.Errorf("FinishMinutes = %v, want %v", p.FinishMinutes, tt.wantFinish)
			}
			if !ptrEq(p.SpeedKPS, tt.wantSpeed) {
				t.Errorf("SpeedKPS = %v, want %v", p.SpeedKPS, tt.wantSpeed)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Status predicates
// ---------------------------------------------------------------------------

func Test_Status_Predicates(t *testing.T) {
	tests := []struct {
		name           string
		status         Status
		wantActive     bool
		wantSyncLike   bool
		wantRebuilding bool
		wantDegraded   bool
	}{
		{name: "clean idle", status: Status{ArrayState: "clean", SyncAction: "idle"}},
		{name: "frozen is not active", status: Status{ArrayState: "clean", SyncAction: "frozen"}},
		{name: "absent action", status: Status{ArrayState: "active"}},
		{
			name:           "resync",
			status:         Status{ArrayState: "active", SyncAction: "resync"},
			wantActive:     true,
			wantSyncLike:   true,
			wantRebuilding: true,
		},
		{
			name:         "check is sync-like but not rebuilding",
			status:       Status{ArrayState: "clean", SyncAction: "check"},
			wantActive:   true,
			wantSyncLike: true,
		},
		{
			name:       "reshape is active but not sync-like",
			status:     Status{ArrayState: "active", SyncAction: "reshape"},
			wantActive: true,
		},
		{
			name:         "degraded case-insensitive",
			status:       Status{ArrayState: "Clean, DEGRADED", SyncAction: "idle"},
			wantDegraded: true,
		},
		{
			name:           "degraded and recovering",
			status:         Status{ArrayState: "clean, degraded", SyncAction: "recover"},
			wantActive:     true,
			wantSyncLike:   true,
			wantRebuilding: true,
			wantDegraded:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.status
			if s.Active() != tt.wantActive {
				t.Errorf("Active() = %v, want %v", s.Active(), tt.wantActive)
			}
			if s.SyncLike() != tt.wantSyncLike {
				t.Errorf("SyncLike() = %v, want %v", s.SyncLike(), tt.wantSyncLike)
			}
			if s.Rebuilding() != tt.wantRebuilding {
				t.Errorf("Rebuilding() = %v, want %v", s.Rebuilding(), tt.wantRebuilding)
			}
			if s.Degraded() != tt.wantDegraded {
				t.Errorf("Degraded() = %v, want %v", s.Degraded(), tt.wantDegraded)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ResolveName
// ---------------------------------------------------------------------------

func Test_ResolveName_Cases(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		mount   string
		want    string
		wantErr error
	}{
		{
			name: "mount table wins",
			files: map[string]string{
				"proc/mounts": "/dev/sda1 / ext4 rw 0 0\n/dev/md127p1 /mnt/storage ext4 rw 0 0\n",
				"proc/mdstat": "md0 : active raid1 sda1[0]\n",
				"dev/md1":     "",
			},
			mount: "/mnt/storage",
			want:  "md127",
		},
		{
			name: "non-md device at mount falls through to mdstat",
			files: map[string]string{
				"proc/mounts": "/dev/sdb1 /mnt/storage ext4 rw 0 0\n",
				"proc/mdstat": "Personalities : [raid1]\nmd3 : active raid1 sda1[0]\n",
			},
			mount: "/mnt/storage",
			want:  "md3",
		},
		{
			name: "device nodes are the last resort in sorted order",
			files: map[string]string{
				"proc/mounts": "",
				"dev/md2":     "",
				"dev/md10":    "",
				"dev/mdX":     "",
			},
			mount: "/mnt/storage",
			want:  "md10",
		},
		{
			name:    "nothing found",
			files:   map[string]string{"proc/mounts": "/dev/sda1 / ext4 rw 0 0\n"},
			mount:   "/mnt/storage",
			wantErr: ErrNoArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, tt.files)
			got, err := ResolveName(treePaths(root), tt.mount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveName = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Source
// ---------------------------------------------------------------------------

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSource(t *testing.T, files map[string]string) (*Source, string, *testClock) {
	t.Helper()
	root := writeTree(t, files)
	clk := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewSource(treePaths(root), "/mnt/storage", logging.Discard(), clk.Now), root, clk
}

func Test_Source_Status_EndToEnd(t *testing.T) {
	s, _, _ := newTestSource(t, map[string]string{
		"proc/mounts":                  "/dev/md0 /mnt/storage ext4 rw 0 0\n",
		"proc/mdstat":                  readFixture(t, "resync.txt"),
		"sys/block/md0/md/array_state": "active\n",
		"sys/block/md0/md/sync_action": "resync\n",
	})

	st, ok := s.Status(context.Background(), 2*time.Second)
	if !ok {
		t.Fatal("Status absent")
	}
	if st.ArrayState != "active" || st.SyncAction != "resync" {
		t.Errorf("state/action = %q/%q", st.ArrayState, st.SyncAction)
	}
	if !ptrEq(st.Percent, 52.2) || !ptrEq(st.FinishMinutes, 396.1) || !ptrEq(st.SpeedKPS, 99181) {
		t.Errorf("progress = %+v", st.SyncProgress)
	}
}

func Test_Source_Status_IdleSkipsMdstat(t *testing.T) {
	s, _, _ := newTestSource(t, map[string]string{
		"proc/mounts":                  "/dev/md0 /mnt/storage ext4 rw 0 0\n",
		"proc/mdstat":                  readFixture(t, "resync.txt"),
		"sys/block/md0/md/array_state": "clean\n",
		"sys/block/md0/md/sync_action": "idle\n",
	})

	st, ok := s.Status(context.Background(), 2*time.Second)
	if !ok {
		t.Fatal("Status absent")
	}
	if st.Percent != nil || st.FinishMinutes != nil || st.SpeedKPS != nil {
		t.Errorf("idle array should have no progress, got %+v", st.SyncProgress)
	}
}

func Test_Source_Status_MissingFilesAreAbsentFields(t *testing.T) {
	s, _, _ := newTestSource(t, map[string]string{
		"proc/mdstat": "md0 : active raid1 sda1[0]\n",
	})

	st, ok := s.Status(context.Background(), 2*time.Second)
	if !ok {
		t.Fatal("Status should be present once the array is resolved")
	}
	if st.ArrayState != "" || st.SyncAction != "" {
		t.Errorf("expected empty fields, got %+v", st)
	}
}

func Test_Source_NoArray(t *testing.T) {
	s, root, _ := newTestSource(t, map[string]string{"proc/mounts": ""})

	if _, ok := s.Name(); ok {
		t.Fatal("Name should be absent")
	}
	if _, err := s.Resolve(); !errors.Is(err, ErrNoArray) {
		t.Errorf("Resolve err = %v, want ErrNoArray", err)
	}
	if _, ok := s.Status(context.Background(), time.Second); ok {
		t.Error("Status should be absent without an array")
	}

	// An array appearing later is picked up on the next resolve.
	if err := os.MkdirAll(filepath.Join(root, "dev"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "dev", "md0"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if name, ok := s.Name(); !ok || name != "md0" {
		t.Errorf("Name = (%q, %v), want md0", name, ok)
	}
}

func Test_Source_NameIsResolvedOnce(t *testing.T) {
	s, root, _ := newTestSource(t, map[string]string{
		"proc/mounts": "/dev/md0 /mnt/storage ext4 rw 0 0\n",
	})

	if name, _ := s.Name(); name != "md0" {
		t.Fatalf("Name = %q, want md0", name)
	}
	// Changing the mount table does not change an already resolved name.
	if err := os.WriteFile(filepath.Join(root, "proc", "mounts"), []byte("/dev/md5 /mnt/storage ext4 rw 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if name, _ := s.Name(); name != "md0" {
		t.Errorf("Name = %q, want md0 (cached)", name)
	}
}

func Test_Source_StatusIsCached(t *testing.T) {
	s, root, clk := newTestSource(t, map[string]string{
		"proc/mounts":                  "/dev/md0 /mnt/storage ext4 rw 0 0\n",
		"sys/block/md0/md/array_state": "clean\n",
		"sys/block/md0/md/sync_action": "idle\n",
	})
	ctx := context.Background()
	statePath := filepath.Join(root, "sys", "block", "md0", "md", "array_state")

	s.Status(ctx, 2*time.Second)
	if err := os.WriteFile(statePath, []byte("clean, degraded\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if st, _ := s.Status(ctx, 2*time.Second); st.Degraded() {
		t.Fatal("fresh cached status should not see the file change")
	}
	clk.Advance(2 * time.Second)
	if st, _ := s.Status(ctx, 2*time.Second); !st.Degraded() {
		t.Error("expired status should be re-read")
	}

	if err := os.WriteFile(statePath, []byte("clean\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Invalidate()
	if st, _ := s.Status(ctx, time.Hour); st.Degraded() {
		t.Error("Invalidate should force a re-read")
	}
}
