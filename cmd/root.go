// Package cmd implements the CLI commands for pro-apt-hook.
package cmd

import (
	"context"
	"path/filepath"

	"github.com/canonical/ubuntu-pro-client/internal/aptcache"
	"github.com/canonical/ubuntu-pro-client/internal/audit"
	"github.com/canonical/ubuntu-pro-client/internal/classify"
	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/hook"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
	"github.com/canonical/ubuntu-pro-client/internal/messages"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	noAuditLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pro-apt-hook",
	Short: "Ubuntu Pro advisories for apt",
	Long: `pro-apt-hook tells apt users about security updates that are only
available through Ubuntu Pro (esm-infra, esm-apps).

When called without arguments, it speaks the apt JSON hook protocol on the
socket named by APT_HOOK_SOCKET and prints advisories during apt runs.

Usage in /etc/apt/apt.conf.d/20apt-esm-hook.conf:
  APT::Update::Pre-Invoke { "[ ! -e /run/systemd/system ] || pro-apt-hook pre-invoke || true"; };
  APT::Update::Post-Invoke-Stats { "pro-apt-hook post-invoke-stats || true"; };
  APT::Update::Post-Invoke-Success { "pro-apt-hook post-invoke-success || true"; };
  AptCli::Hooks::Upgrade { "pro-apt-hook || true"; };`,
	// Run the hook session by default when no subcommand is given
	Run: runSession,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize before running any command
	cobra.OnInitialize(initApp)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (or set "+constants.EnvConfigFile+")")
	rootCmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	logger.Init(logger.Options{Verbose: verbose})

	if configPath != "" {
		config.SetPath(configPath)
	}
	if err := config.Init(); err != nil {
		logger.Debug("config fell back to defaults", "error", err)
	}

	cfg := config.Get()
	if err := audit.Init(cfg.Audit.Path, noAuditLog || !cfg.Audit.Enabled); err != nil {
		logger.Debug("audit log unavailable", "error", err)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

func newClassifier(cfg *config.Config) *classify.Classifier {
	return classify.New(classify.Options{
		PinPolicy: classify.PinPolicy(cfg.Classifier.PinPolicy),
		ListScan:  classify.ListScan(cfg.Classifier.ListScan),
	})
}

func cacheOptions(cfg *config.Config) aptcache.Options {
	return aptcache.Options{
		DpkgStatus:  cfg.Paths.DpkgStatus,
		ListsDirs:   cfg.Paths.AptLists,
		Preferences: cfg.Paths.AptPreferences,
	}
}

func loadCache(cfg *config.Config) (*aptcache.Cache, error) {
	return aptcache.Load(cacheOptions(cfg))
}

func layout(cfg *config.Config) messages.Layout {
	return messages.Layout{MessagesDir: cfg.Paths.MessagesDir}
}

// newAdvisor wires the session event handler to the configured system.
func newAdvisor(cfg *config.Config) *hook.Advisor {
	return &hook.Advisor{
		Classifier: newClassifier(cfg),
		LoadCache: func() (classify.Source, error) {
			return loadCache(cfg)
		},
		Layout:        layout(cfg),
		ExpiredNotice: filepath.Join(cfg.Paths.NoticesDir, constants.ContractExpiredNotice),
		PromoFlag:     cfg.Paths.PromoFlag,
		OSRelease:     cfg.Paths.OSRelease,
		CloudID:       cfg.Paths.CloudID,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newEntry starts a run record for mode.
func newEntry(mode string) audit.Entry {
	entry := audit.Entry{Mode: mode, ConfigPath: config.GetConfigPath()}
	if err := config.InitError(); err != nil {
		entry.ConfigError = err.Error()
	}
	return entry
}

func auditCounts(c classify.Counts) *audit.Counts {
	if c.Total() == 0 {
		return nil
	}
	return &audit.Counts{Standard: c.Standard, ESMInfra: c.ESMInfra, ESMApps: c.ESMApps}
}

func auditPackages(lists classify.Lists, expired []string) *audit.Packages {
	if lists.Empty() && len(expired) == 0 {
		return nil
	}
	return &audit.Packages{Infra: lists.Infra, Apps: lists.Apps, Expired: expired}
}
