// Package audit keeps an optional JSON-lines record of every hook run.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Outcomes
const (
	OutcomeOK            = "OK"
	OutcomeNoSocket      = "NO_SOCKET"
	OutcomeProtocolError = "PROTOCOL_ERROR"
	OutcomeCacheError    = "CACHE_ERROR"
	OutcomeIneligible    = "INELIGIBLE"
	OutcomeError         = "ERROR"
)

// EntryVersion is the current record format.
const EntryVersion = 1

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// DefaultLogPath is used when the configuration names no path.
const DefaultLogPath = "/var/log/ubuntu-advantage-apt-hook.jsonl"

// Entry is one run of the hook.
type Entry struct {
	Version    int     `json:"version"`
	Timestamp  string  `json:"timestamp"`
	DurationMs float64 `json:"duration_ms"`
	// Mode is "session" or the subcommand name.
	Mode        string    `json:"mode"`
	Event       string    `json:"event,omitempty"`
	State       string    `json:"state,omitempty"`
	Command     string    `json:"command,omitempty"`
	Outcome     string    `json:"outcome"`
	Counts      *Counts   `json:"counts,omitempty"`
	Packages    *Packages `json:"packages,omitempty"`
	Error       string    `json:"error,omitempty"`
	ConfigPath  string    `json:"config_path"`
	ConfigError string    `json:"config_error,omitempty"`
}

// Counts mirrors the update counts shown to the user.
type Counts struct {
	Standard uint `json:"standard"`
	ESMInfra uint `json:"esm_infra"`
	ESMApps  uint `json:"esm_apps"`
}

// Packages lists the packages named in advisories.
type Packages struct {
	Infra   []string `json:"infra,omitempty"`
	Apps    []string `json:"apps,omitempty"`
	Expired []string `json:"expired,omitempty"`
}

var (
	auditFile *os.File
	mu        sync.Mutex
	enabled   bool
)

// Init opens the audit log. An empty path means DefaultLogPath.
// With disable set, logging stays off and nothing is opened.
func Init(path string, disable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if disable {
		enabled = false
		return nil
	}

	if path == "" {
		path = DefaultLogPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}

	auditFile = f
	enabled = true
	logger.Debug("audit logging initialized", "path", path)
	return nil
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		err := auditFile.Close()
		auditFile = nil
		enabled = false
		return err
	}
	return nil
}

// Log appends an entry. It is a no-op unless Init enabled logging.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	entry.Version = EntryVersion
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	if _, err := auditFile.Write(append(data, '\n')); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}

	return nil
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	enabled = false
}
