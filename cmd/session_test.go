package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/canonical/ubuntu-pro-client/internal/audit"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/testutil"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

const (
	helloFrame = `{"jsonrpc":"2.0","id":0,"method":"org.debian.apt.hooks.hello","params":{"versions":["0.1","0.2"]}}` + "\n\n"
	statsFrame = `{"jsonrpc":"2.0","method":"org.debian.apt.hooks.install.statistics","params":{"command":"upgrade","packages":[` +
		`{"name":"openssl","mode":"upgrade","versions":{"install":{"version":"3.0.2-0ubuntu1+esm1","pin":500,` +
		`"origins":[{"archive":"jammy-infra-security","origin":"UbuntuESM"}]}}}]}}` + "\n\n"
	byeFrame = `{"jsonrpc":"2.0","method":"org.debian.apt.hooks.bye","params":{}}` + "\n\n"
)

// aptSide hands one end of a socketpair to the hook through
// APT_HOOK_SOCKET and returns the other.
func aptSide(t *testing.T) net.Conn {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	f := os.NewFile(uintptr(fds[1]), "apt-side")
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		t.Fatalf("FileConn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv(constants.EnvHookSocket, strconv.Itoa(fds[0]))
	return conn
}

// enableAudit turns on the run record and returns the path it is written to.
func enableAudit(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := audit.Init(path, false); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAudit(t *testing.T, path string) []audit.Entry {
	t.Helper()
	audit.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []audit.Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e audit.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad audit line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestRunSessionWithoutSocket(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()
	t.Setenv(constants.EnvHookSocket, "")
	auditPath := enableAudit(t)

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	runSession(cmd, nil)

	if stdout.Len() != 0 {
		t.Errorf("expected no output, got %q", stdout.String())
	}
	entries := readAudit(t, auditPath)
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeNoSocket || entries[0].Mode != "session" {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestRunSessionBadDescriptor(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()
	t.Setenv(constants.EnvHookSocket, "not-a-number")
	auditPath := enableAudit(t)

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	runSession(cmd, nil)

	entries := readAudit(t, auditPath)
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeError || entries[0].Error == "" {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestRunSessionStatistics(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()
	root := testutil.NewAptRoot(t)
	cleanup := testutil.SetupTestConfig(t, root.ConfigTOML())
	defer cleanup()
	auditPath := enableAudit(t)

	apt := aptSide(t)

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	done := make(chan struct{})
	go func() {
		runSession(cmd, nil)
		close(done)
	}()

	r := bufio.NewReader(apt)
	if _, err := apt.Write([]byte(helloFrame)); err != nil {
		t.Fatal(err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if reply != `{"jsonrpc":"2.0","id":0,"result":{"version":"0.2"}}`+"\n" {
		t.Errorf("hello reply = %q", reply)
	}
	if _, err := apt.Write([]byte(statsFrame + byeFrame)); err != nil {
		t.Fatal(err)
	}
	<-done

	if got := stdout.String(); got != "1 esm-infra security update\n" {
		t.Errorf("output = %q", got)
	}

	entries := readAudit(t, auditPath)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %+v", entries)
	}
	e := entries[0]
	if e.Outcome != audit.OutcomeOK || e.State != "closed" {
		t.Errorf("entry = %+v", e)
	}
	if e.Event != "org.debian.apt.hooks.install.statistics" {
		t.Errorf("event = %q", e.Event)
	}
	if e.Counts == nil || e.Counts.ESMInfra != 1 {
		t.Errorf("counts = %+v", e.Counts)
	}
}

func TestRunSessionProtocolError(t *testing.T) {
	resetGlobalState()
	defer resetGlobalState()
	root := testutil.NewAptRoot(t)
	cleanup := testutil.SetupTestConfig(t, root.ConfigTOML())
	defer cleanup()
	auditPath := enableAudit(t)

	apt := aptSide(t)
	// hello is skipped: the session must stop without writing anything
	if _, err := apt.Write([]byte(byeFrame)); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	runSession(cmd, nil)

	if stdout.Len() != 0 {
		t.Errorf("expected no output, got %q", stdout.String())
	}
	entries := readAudit(t, auditPath)
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeProtocolError {
		t.Fatalf("audit entries = %+v", entries)
	}
	if entries[0].State != "awaiting-hello" {
		t.Errorf("state = %q, want awaiting-hello", entries[0].State)
	}
}
