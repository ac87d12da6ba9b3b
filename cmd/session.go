package cmd

import (
	"errors"
	"time"

	"github.com/canonical/ubuntu-pro-client/internal/audit"
	"github.com/canonical/ubuntu-pro-client/internal/config"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/hook"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
	"github.com/spf13/cobra"
)

// runSession is the default command: one JSON hook exchange with apt.
// It never fails the apt run, so every outcome exits 0.
func runSession(cmd *cobra.Command, args []string) {
	start := time.Now()
	entry := newEntry("session")
	defer func() {
		entry.DurationMs = float64(time.Since(start).Microseconds()) / 1000
		audit.Log(entry)
	}()

	conn, err := hook.OpenSocket(constants.EnvHookSocket)
	if errors.Is(err, hook.ErrNoSocket) {
		entry.Outcome = audit.OutcomeNoSocket
		return
	}
	if err != nil {
		logger.Error("cannot use apt hook socket", "error", err)
		entry.Outcome = audit.OutcomeError
		entry.Error = err.Error()
		return
	}
	defer conn.Close()

	advisor := newAdvisor(config.Get())
	advisor.Out = cmd.OutOrStdout()

	session := hook.NewSession(conn, advisor)
	err = session.Run(commandContext(cmd))

	res := session.Result()
	entry.Event = res.Event
	entry.State = res.State.String()
	entry.Counts = auditCounts(advisor.Counts)
	entry.Packages = auditPackages(advisor.Lists, advisor.Expired)

	var perr *hook.ProtocolError
	switch {
	case errors.As(err, &perr):
		logger.Debug("hook session aborted", "state", perr.State.String(), "error", perr.Err)
		entry.Outcome = audit.OutcomeProtocolError
		entry.Error = perr.Error()
	case err != nil:
		entry.Outcome = audit.OutcomeError
		entry.Error = err.Error()
	default:
		entry.Outcome = audit.OutcomeOK
		if res.HandlerError != nil {
			entry.Error = res.HandlerError.Error()
		}
	}
}
