package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the effective settings",
	Long: `Validate loads the pro-apt-hook configuration file and displays the
settings that will actually be used.

This is useful for:
- Checking that your apt-hook.toml syntax is correct
- Seeing which files the hook reads and writes
- Checking which classifier behaviour is selected`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}

	fmt.Fprintf(out, "Config file: %s\n", config.GetConfigPath())
	if err := config.InitError(); err != nil {
		fmt.Fprintln(out, color.RedString("Configuration invalid, embedded defaults in effect:"))
		fmt.Fprintf(out, "  %v\n", err)
		return err
	}
	fmt.Fprintln(out, color.GreenString("Configuration valid!"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Paths:")
	showPath(out, "messages_dir", cfg.Paths.MessagesDir)
	showPath(out, "notices_dir", cfg.Paths.NoticesDir)
	showPath(out, "promo_flag", cfg.Paths.PromoFlag)
	showPath(out, "dpkg_status", cfg.Paths.DpkgStatus)
	for _, dir := range cfg.Paths.AptLists {
		showPath(out, "apt_lists", dir)
	}
	for _, p := range cfg.Paths.AptPreferences {
		showPath(out, "apt_preferences", p)
	}
	showPath(out, "os_release", cfg.Paths.OSRelease)
	showPath(out, "cloud_id", cfg.Paths.CloudID)
	showPath(out, "proc", cfg.Paths.Proc)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Classifier:")
	fmt.Fprintf(out, "  - pin_policy: %s\n", cfg.Classifier.PinPolicy)
	fmt.Fprintf(out, "  - list_scan: %s\n", cfg.Classifier.ListScan)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Audit log:")
	if cfg.Audit.Enabled {
		path := cfg.Audit.Path
		if path == "" {
			path = "(default)"
		}
		fmt.Fprintf(out, "  - enabled: %s\n", path)
	} else {
		fmt.Fprintln(out, "  - disabled")
	}

	return nil
}

// showPath prints name and path, flagging paths that do not exist yet.
// Absent files are normal for most of them.
func showPath(out io.Writer, name, path string) {
	status := color.GreenString("present")
	if strings.TrimSpace(path) == "" {
		status = color.YellowString("unset")
	} else if _, err := os.Stat(path); err != nil {
		status = color.YellowString("absent")
	}
	fmt.Fprintf(out, "  - %s: %s [%s]\n", name, path, status)
}
