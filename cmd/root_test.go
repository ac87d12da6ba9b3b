package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canonical/ubuntu-pro-client/internal/audit"
	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
	"github.com/spf13/cobra"
)

// resetGlobalState resets all global flags to their default values
func resetGlobalState() {
	verbose = false
	configPath = ""
	noAuditLog = false
	testRun = false
	initForce = false
	config.Reset()
	audit.Reset()
	logger.Reset()
}

func TestIsVerbose(t *testing.T) {
	tests := []struct {
		name     string
		value    bool
		expected bool
	}{
		{"verbose false", false, false},
		{"verbose true", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalState()
			verbose = tt.value
			if got := IsVerbose(); got != tt.expected {
				t.Errorf("IsVerbose() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInitAppUsesConfigFlag(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()
	os.Unsetenv(constants.EnvConfigFile)

	tmpDir := t.TempDir()
	auditPath := filepath.Join(tmpDir, "audit.jsonl")
	configPath = filepath.Join(tmpDir, "apt-hook.toml")
	content := "[classifier]\nlist_scan = \"highest\"\n\n[audit]\nenabled = true\npath = \"" + auditPath + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	initApp()

	if got := config.GetConfigPath(); got != configPath {
		t.Errorf("GetConfigPath() = %q, want %q", got, configPath)
	}
	if config.Get().Classifier.ListScan != config.ListScanHighest {
		t.Errorf("ListScan = %q, want highest", config.Get().Classifier.ListScan)
	}
	if !audit.IsEnabled() {
		t.Error("expected audit logging to follow [audit] enabled = true")
	}
}

func TestInitAppNoAuditLogOverridesConfig(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	tmpDir := t.TempDir()
	configPath = filepath.Join(tmpDir, "apt-hook.toml")
	content := "[audit]\nenabled = true\npath = \"" + filepath.Join(tmpDir, "audit.jsonl") + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	noAuditLog = true

	initApp()

	if audit.IsEnabled() {
		t.Error("--no-audit-log must disable audit logging")
	}
}

func TestInitAppInvalidConfigFallsBack(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	configPath = filepath.Join(t.TempDir(), "apt-hook.toml")
	if err := os.WriteFile(configPath, []byte("[classifier\n"), 0644); err != nil {
		t.Fatal(err)
	}

	initApp()

	if config.InitError() == nil {
		t.Error("expected InitError to be recorded")
	}
	if config.Get().Classifier.PinPolicy != config.PinPolicyHonor {
		t.Error("expected embedded defaults after an invalid config")
	}
	if audit.IsEnabled() {
		t.Error("audit is off in the embedded defaults")
	}
}

func TestRootCmdFlags(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()

	// Create a fresh root command for testing
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file")
	cmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")

	tests := []struct {
		name          string
		args          []string
		expectVerbose bool
		expectConfig  string
		expectNoAudit bool
	}{
		{"no flags", []string{}, false, "", false},
		{"verbose short flag", []string{"-v"}, true, "", false},
		{"verbose long flag", []string{"--verbose"}, true, "", false},
		{"config flag", []string{"--config", "/tmp/hook.toml"}, false, "/tmp/hook.toml", false},
		{"no-audit-log flag", []string{"--no-audit-log"}, false, "", true},
		{"all flags", []string{"-v", "--config=/x.toml", "--no-audit-log"}, true, "/x.toml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose = false
			configPath = ""
			noAuditLog = false

			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			if verbose != tt.expectVerbose {
				t.Errorf("verbose = %v, want %v", verbose, tt.expectVerbose)
			}
			if configPath != tt.expectConfig {
				t.Errorf("configPath = %q, want %q", configPath, tt.expectConfig)
			}
			if noAuditLog != tt.expectNoAudit {
				t.Errorf("noAuditLog = %v, want %v", noAuditLog, tt.expectNoAudit)
			}
		})
	}
}

func TestRootCmdHasExpectedSubcommands(t *testing.T) {
	expectedCommands := []string{
		"init", "validate",
		"pre-invoke", "post-invoke-stats", "post-invoke-success", "process-templates",
	}

	for _, cmdName := range expectedCommands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q not found", cmdName)
		}
	}
}

func TestRootCmdUsageContainsDescription(t *testing.T) {
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short should not be empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long should not be empty")
	}
	if rootCmd.Use != "pro-apt-hook" {
		t.Errorf("rootCmd.Use = %q, want 'pro-apt-hook'", rootCmd.Use)
	}
}
