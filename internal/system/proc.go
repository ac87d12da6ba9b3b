package system

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrIneligible is returned when the hook was not started by an eligible
// apt command.
var ErrIneligible = errors.New("not started by an eligible apt command")

// EligibleCommands are the apt commands after which advisories are shown.
var EligibleCommands = []string{"update", "upgrade", "dist-upgrade", "full-upgrade", "safe-upgrade"}

// Invocation describes why the hook is running. It is passed explicitly
// from the command line layer to whatever needs it.
type Invocation struct {
	// Command is the matched apt command, "upgrade" for test runs.
	Command string
	// Test runs skip the ancestry check.
	Test bool
}

// TestInvocation is used when the hook is run by hand with "test".
var TestInvocation = Invocation{Command: "upgrade", Test: true}

// ShowsPreInvokeMessage reports whether pre-invoke prints the aggregate
// advisory for this command.
func (i Invocation) ShowsPreInvokeMessage() bool {
	return i.Command == "upgrade" || i.Command == "dist-upgrade"
}

// ParentPID returns the PPid of pid as listed in <procRoot>/<pid>/status.
func ParentPID(procRoot string, pid int) (int, error) {
	path := filepath.Join(procRoot, strconv.Itoa(pid), "status")
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		value, ok := strings.CutPrefix(sc.Text(), "PPid:")
		if !ok {
			continue
		}
		ppid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("%s: bad PPid: %w", path, err)
		}
		return ppid, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("%s: no PPid", path)
}

// Cmdline returns the NUL-separated command line of pid.
func Cmdline(procRoot string, pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MatchCommand finds the first eligible command that appears as a whole
// argument of cmdline.
func MatchCommand(cmdline string) (string, bool) {
	for _, cmd := range EligibleCommands {
		if strings.Contains(cmdline, "\x00"+cmd+"\x00") {
			return cmd, true
		}
	}
	return "", false
}

// CheckAncestry inspects the grandparent of pid (apt, which runs the hook
// through a shell) and returns the Invocation when it is an eligible apt
// command.
func CheckAncestry(procRoot string, pid int) (Invocation, error) {
	parent, err := ParentPID(procRoot, pid)
	if err != nil {
		return Invocation{}, err
	}
	grandparent, err := ParentPID(procRoot, parent)
	if err != nil {
		return Invocation{}, err
	}
	cmdline, err := Cmdline(procRoot, grandparent)
	if err != nil {
		return Invocation{}, err
	}
	cmd, ok := MatchCommand(cmdline)
	if !ok {
		return Invocation{}, ErrIneligible
	}
	return Invocation{Command: cmd}, nil
}
