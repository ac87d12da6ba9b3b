package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new pro-apt-hook configuration file",
	Long: `Initialize creates a new pro-apt-hook configuration file with default settings.

The config file is written to ` + constants.DefaultConfigPath + ` (or the path
given by --config or the ` + constants.EnvConfigFile + ` environment variable).

Use --force to overwrite an existing configuration file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := config.GetConfigPath()

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, config.GetDefaultConfig(), constants.FileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	fmt.Fprintf(out, "Run '%s validate' to verify your configuration.\n", constants.AppName)

	return nil
}
