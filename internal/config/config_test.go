package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Paths.MessagesDir != "/var/lib/ubuntu-advantage/messages" {
		t.Errorf("MessagesDir = %q", cfg.Paths.MessagesDir)
	}
	if cfg.Paths.DpkgStatus != "/var/lib/dpkg/status" {
		t.Errorf("DpkgStatus = %q", cfg.Paths.DpkgStatus)
	}
	if len(cfg.Paths.AptLists) != 2 {
		t.Errorf("expected 2 default list dirs, got %v", cfg.Paths.AptLists)
	}
	if cfg.Classifier.PinPolicy != PinPolicyHonor {
		t.Errorf("PinPolicy = %q, want %q", cfg.Classifier.PinPolicy, PinPolicyHonor)
	}
	if cfg.Classifier.ListScan != ListScanAllNewer {
		t.Errorf("ListScan = %q, want %q", cfg.Classifier.ListScan, ListScanAllNewer)
	}
	if cfg.Audit.Enabled {
		t.Error("audit should be disabled by default")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	data := []byte(`
[paths]
messages_dir = "/tmp/messages"
apt_lists = ["/tmp/lists"]

[classifier]
pin_policy = "ignore"
`)
	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Paths.MessagesDir != "/tmp/messages" {
		t.Errorf("MessagesDir = %q", cfg.Paths.MessagesDir)
	}
	if len(cfg.Paths.AptLists) != 1 || cfg.Paths.AptLists[0] != "/tmp/lists" {
		t.Errorf("AptLists = %v, want [/tmp/lists]", cfg.Paths.AptLists)
	}
	if cfg.Classifier.PinPolicy != PinPolicyIgnore {
		t.Errorf("PinPolicy = %q", cfg.Classifier.PinPolicy)
	}
	// untouched keys keep their defaults
	if cfg.Paths.DpkgStatus != "/var/lib/dpkg/status" {
		t.Errorf("DpkgStatus = %q", cfg.Paths.DpkgStatus)
	}
	if cfg.Classifier.ListScan != ListScanAllNewer {
		t.Errorf("ListScan = %q", cfg.Classifier.ListScan)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad toml", `[paths`, "failed to parse TOML"},
		{"bad pin policy", "[classifier]\npin_policy = \"sometimes\"", "pin_policy"},
		{"bad list scan", "[classifier]\nlist_scan = \"lowest\"", "list_scan"},
		{"empty dpkg status", "[paths]\ndpkg_status = \"\"", "dpkg_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	defer Reset()

	os.Unsetenv(constants.EnvConfigFile)
	if got := GetConfigPath(); got != constants.DefaultConfigPath {
		t.Errorf("GetConfigPath() = %q, want %q", got, constants.DefaultConfigPath)
	}

	t.Setenv(constants.EnvConfigFile, "/env/apt-hook.toml")
	if got := GetConfigPath(); got != "/env/apt-hook.toml" {
		t.Errorf("GetConfigPath() = %q, want env path", got)
	}

	SetPath("/flag/apt-hook.toml")
	if got := GetConfigPath(); got != "/flag/apt-hook.toml" {
		t.Errorf("GetConfigPath() = %q, want flag path", got)
	}
}

func TestInitMissingFile(t *testing.T) {
	defer Reset()
	Reset()

	SetPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if InitError() != nil {
		t.Errorf("InitError() = %v, want nil", InitError())
	}
	if Get().Paths.MessagesDir != "/var/lib/ubuntu-advantage/messages" {
		t.Error("expected embedded defaults")
	}
}

func TestInitFromFile(t *testing.T) {
	defer Reset()
	Reset()

	path := filepath.Join(t.TempDir(), "apt-hook.toml")
	if err := os.WriteFile(path, []byte("[classifier]\nlist_scan = \"highest\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	SetPath(path)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Get().Classifier.ListScan != ListScanHighest {
		t.Errorf("ListScan = %q, want %q", Get().Classifier.ListScan, ListScanHighest)
	}
}

func TestInitFallsBackOnInvalidFile(t *testing.T) {
	defer Reset()
	Reset()

	path := filepath.Join(t.TempDir(), "apt-hook.toml")
	if err := os.WriteFile(path, []byte("[classifier]\npin_policy = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	SetPath(path)

	if err := Init(); err == nil {
		t.Fatal("expected Init to report the invalid file")
	}
	if InitError() == nil {
		t.Error("expected InitError to be recorded")
	}
	if Get() == nil || Get().Classifier.PinPolicy != PinPolicyHonor {
		t.Error("expected embedded defaults after a failed load")
	}
}

func TestGetDefaultConfigParses(t *testing.T) {
	if _, err := LoadConfig(GetDefaultConfig()); err != nil {
		t.Fatalf("embedded default config does not load: %v", err)
	}
}
