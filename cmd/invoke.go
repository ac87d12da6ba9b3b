package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/canonical/ubuntu-pro-client/internal/audit"
	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
	"github.com/canonical/ubuntu-pro-client/internal/messages"
	"github.com/canonical/ubuntu-pro-client/internal/system"
	"github.com/spf13/cobra"
)

// testRun is set by --test or a trailing "test" argument.
var testRun bool

// apt hook names
const (
	modePreInvoke         = "pre-invoke"
	modePostInvokeStats   = "post-invoke-stats"
	modePostInvokeSuccess = "post-invoke-success"
	modeProcessTemplates  = "process-templates"
)

var preInvokeCmd = newInvokeCmd(modePreInvoke,
	"Refresh Pro mailbox files and show the pending Pro advisory",
	`Runs from APT::Update::Pre-Invoke. Refreshes the Pro mailbox files from the
package cache and, for "apt upgrade" and "apt dist-upgrade", prints the
apt-pre-invoke-esm-service-status message.`)

var postInvokeStatsCmd = newInvokeCmd(modePostInvokeStats,
	"Refresh Pro mailbox files after apt update",
	`Runs from APT::Update::Post-Invoke-Stats.`)

var postInvokeSuccessCmd = newInvokeCmd(modePostInvokeSuccess,
	"Refresh Pro mailbox files after a successful apt update",
	`Runs from APT::Update::Post-Invoke-Success.`)

var processTemplatesCmd = newInvokeCmd(modeProcessTemplates,
	"Render the Pro mailbox files now",
	`Renders the Pro mailbox files from the package cache regardless of which
command started the hook.`)

func newInvokeCmd(use, short, long string) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " [test]",
		Short: short,
		Long: long + `

Pass "test" (or --test) to skip the apt command check and behave as if
"apt upgrade" was running.`,
		Args:      testArg,
		ValidArgs: []string{"test"},
		RunE:      runInvoke,
	}
	c.Flags().BoolVar(&testRun, "test", false, "Skip the apt command check and act as 'apt upgrade'")
	return c
}

func init() {
	rootCmd.AddCommand(preInvokeCmd, postInvokeStatsCmd, postInvokeSuccessCmd, processTemplatesCmd)
}

// testArg accepts nothing or the single word "test".
func testArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(args) == 1 && args[0] != "test" {
		return fmt.Errorf("unknown argument %q (only \"test\" is accepted)", args[0])
	}
	return nil
}

// resolveInvocation decides whether mode should run at all. The gate is
// skipped for test runs and for process-templates.
func resolveInvocation(mode string, args []string, procRoot string) (system.Invocation, error) {
	if testRun || (len(args) == 1 && args[0] == "test") {
		return system.TestInvocation, nil
	}
	if mode == modeProcessTemplates {
		return system.Invocation{}, nil
	}
	inv, err := system.CheckAncestry(procRoot, os.Getpid())
	if err != nil && !errors.Is(err, system.ErrIneligible) {
		logger.Debug("cannot inspect process ancestry", "error", err)
		err = fmt.Errorf("%w: %v", system.ErrIneligible, err)
	}
	return inv, err
}

func runInvoke(cmd *cobra.Command, args []string) error {
	mode := cmd.Name()
	cfg := config.Get()

	start := time.Now()
	entry := newEntry(mode)
	defer func() {
		entry.DurationMs = float64(time.Since(start).Microseconds()) / 1000
		audit.Log(entry)
	}()

	inv, err := resolveInvocation(mode, args, cfg.Paths.Proc)
	if err != nil {
		logger.Debug("skipping", "mode", mode, "reason", err)
		entry.Outcome = audit.OutcomeIneligible
		return nil
	}
	entry.Command = inv.Command

	cache, err := loadCache(cfg)
	if err != nil {
		entry.Outcome = audit.OutcomeCacheError
		entry.Error = err.Error()
		return err
	}

	lists := newClassifier(cfg).ForAdvisory(cache)
	entry.Packages = auditPackages(lists, nil)

	l := layout(cfg)
	if err := messages.ProcessTemplates(l, lists); err != nil {
		logger.Warn("some mailbox files were not written", "error", err)
		entry.Error = err.Error()
	}

	if mode == modePreInvoke && inv.ShowsPreInvokeMessage() {
		printMailbox(cmd.OutOrStdout(), l.Path(messages.AptPreInvokeAggregate))
	}

	entry.Outcome = audit.OutcomeOK
	return nil
}

// printMailbox copies a mailbox file to w. Missing files print nothing.
func printMailbox(w io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("mailbox file unavailable", "path", path, "error", err)
		return
	}
	w.Write(data)
}
