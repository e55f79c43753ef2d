package glances

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadSMARTFixture(t *testing.T) []byte {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", "glances", "smart.json"))
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func Test_ParseSMART_Fixture(t *testing.T) {
	disks, err := ParseSMART(loadSMARTFixture(t), nil)
	if err != nil {
		t.Fatalf("ParseSMART: %v", err)
	}

	tests := []struct {
		name     string
		device   string
		wantOK   bool
		validate func(t *testing.T, d DiskHealth)
	}{
		{
			name:   "sda reads every attribute",
			device: "sda",
			wantOK: true,
			validate: func(t *testing.T, d DiskHealth) {
				t.Helper()
				if !d.HasTemperature || d.TemperatureC != 35 {
					t.Errorf("temperature = %v/%v, want 35", d.TemperatureC, d.HasTemperature)
				}
				if d.PowerOnHours != 12847 {
					t.Errorf("PowerOnHours = %d, want 12847", d.PowerOnHours)
				}
				if d.PowerCycles != 156 {
					t.Errorf("PowerCycles = %d, want 156", d.PowerCycles)
				}
				if d.CRCErrors != 2 {
					t.Errorf("CRCErrors = %d, want 2", d.CRCErrors)
				}
				if d.BadSectors() {
					t.Error("sda should have no bad sectors")
				}
			},
		},
		{
			name:   "sdb falls back to attribute 190 and has bad sectors",
			device: "sdb",
			wantOK: true,
			validate: func(t *testing.T, d DiskHealth) {
				t.Helper()
				if !d.HasTemperature || d.TemperatureC != 52 {
					t.Errorf("temperature = %v/%v, want 52", d.TemperatureC, d.HasTemperature)
				}
				if d.ReallocatedSectors != 8 || !d.BadSectors() {
					t.Errorf("ReallocatedSectors = %d, want 8 with bad sectors", d.ReallocatedSectors)
				}
			},
		},
		{
			name:   "nvme temperature attribute without temp name is ignored",
			device: "nvme0n1",
			wantOK: true,
			validate: func(t *testing.T, d DiskHealth) {
				t.Helper()
				if d.HasTemperature {
					t.Errorf("nvme0n1 should have no temperature, got %v", d.TemperatureC)
				}
				if d.PowerOnHours != 1200 {
					t.Errorf("PowerOnHours = %d, want 1200", d.PowerOnHours)
				}
			},
		},
		{name: "md devices are not physical disks", device: "md0", wantOK: false},
		{name: "disk without attributes is skipped", device: "sdc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := disks[tt.device]
			if ok != tt.wantOK {
				t.Fatalf("disks[%q] present = %v, want %v", tt.device, ok, tt.wantOK)
			}
			if tt.validate != nil {
				tt.validate(t, d)
			}
		})
	}

	if len(disks) != 3 {
		t.Errorf("len(disks) = %d, want 3", len(disks))
	}
}

func Test_ParseSMART_AllowFilter(t *testing.T) {
	disks, err := ParseSMART(loadSMARTFixture(t), func(dev string) bool {
		return strings.HasPrefix(dev, "sd")
	})
	if err != nil {
		t.Fatalf("ParseSMART: %v", err)
	}
	if _, ok := disks["nvme0n1"]; ok {
		t.Error("nvme0n1 should be filtered out")
	}
	if len(disks) != 2 {
		t.Errorf("len(disks) = %d, want 2", len(disks))
	}
}

func Test_ParseSMART_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
	}{
		{name: "not json", input: "{", wantErr: true},
		{name: "object instead of list", input: `{"sda": {}}`, wantErr: true},
		{name: "empty list", input: `[]`, wantLen: 0},
		{name: "negative raw value", input: `[{"DeviceName":"sda","5":{"name":"x","raw":"-1"}}]`, wantLen: 1},
		{name: "raw without number", input: `[{"DeviceName":"sda","5":{"name":"x","raw":"n/a"}}]`, wantLen: 0},
		{name: "null raw", input: `[{"DeviceName":"sda","5":{"name":"x","raw":null}}]`, wantLen: 0},
		{name: "blank device name", input: `[{"DeviceName":"  ","5":{"raw":"1"}}]`, wantLen: 0},
		{name: "hd device accepted", input: `[{"DeviceName":"hda old","9":{"raw":"7"}}]`, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disks, err := ParseSMART([]byte(tt.input), nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(disks) != tt.wantLen {
				t.Errorf("len = %d, want %d (%v)", len(disks), tt.wantLen, disks)
			}
		})
	}
}

func Test_MaxTemperature_Cases(t *testing.T) {
	tests := []struct {
		name   string
		disks  map[string]DiskHealth
		want   float64
		wantOK bool
	}{
		{name: "nil map", disks: nil, wantOK: false},
		{
			name:   "no temperatures",
			disks:  map[string]DiskHealth{"sda": {PowerOnHours: 1}},
			wantOK: false,
		},
		{
			name: "hottest wins",
			disks: map[string]DiskHealth{
				"sda": {TemperatureC: 35, HasTemperature: true},
				"sdb": {TemperatureC: 52, HasTemperature: true},
				"sdc": {},
			},
			want:   52,
			wantOK: true,
		},
		{
			name:   "zero degrees is still a reading",
			disks:  map[string]DiskHealth{"sda": {TemperatureC: 0, HasTemperature: true}},
			want:   0,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MaxTemperature(tt.disks)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MaxTemperature = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
