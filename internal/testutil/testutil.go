// Package testutil provides shared test utilities for pro-apt-hook tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

// SetupTestConfig writes configContent to a temporary config file and
// loads it. With empty content the file is absent and the embedded
// defaults apply. Returns a cleanup function that should be deferred.
func SetupTestConfig(t *testing.T, configContent string) func() {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "apt-hook.toml")
	os.Setenv(constants.EnvConfigFile, configPath)

	if configContent != "" {
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	config.Init()

	return func() {
		os.Unsetenv(constants.EnvConfigFile)
		config.Reset()
	}
}

// MinimalTestConfig disables pin handling and keeps the default scan.
const MinimalTestConfig = `
[classifier]
pin_policy = "ignore"
`
