// Package system reads the facts about the running machine the hook
// needs: the Ubuntu release, the cloud it runs on, and which apt command
// started it.
package system

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Cloud identifiers as normalized from cloud-init.
const (
	CloudAWS   = "aws"
	CloudAzure = "azure"
	CloudGCE   = "gce"
)

// Context is the machine context advisory text depends on.
type Context struct {
	Series string
	Cloud  string
}

// ParseOSRelease reads the shell-style assignments of an os-release file.
// Anything that is not a plain assignment is ignored.
func ParseOSRelease(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := syntax.NewParser().Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	vars := map[string]string{}
	for _, stmt := range prog.Stmts {
		call, ok := stmt.Cmd.(*syntax.CallExpr)
		if !ok || len(call.Args) > 0 {
			continue
		}
		for _, assign := range call.Assigns {
			if assign.Name == nil || assign.Append {
				continue
			}
			vars[assign.Name.Value] = literal(assign.Value)
		}
	}
	return vars, nil
}

// literal flattens the quoted and unquoted literal parts of word.
// Expansions are dropped.
func literal(word *syntax.Word) string {
	if word == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(p.Value)
		case *syntax.SglQuoted:
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					b.WriteString(lit.Value)
				}
			}
		}
	}
	return b.String()
}

// Series returns the release codename from os-release, or "" when it
// cannot be determined.
func Series(path string) string {
	vars, err := ParseOSRelease(path)
	if err != nil {
		logger.Debug("cannot read os-release", "path", path, "error", err)
		return ""
	}
	for _, key := range []string{"VERSION_CODENAME", "UBUNTU_CODENAME"} {
		if v := vars[key]; v != "" {
			return v
		}
	}
	// xenial predates VERSION_CODENAME
	version := strings.ToLower(vars["VERSION"])
	for _, series := range []string{"xenial", "bionic"} {
		if strings.Contains(version, series) {
			return series
		}
	}
	return ""
}

// DetectContext gathers the release and cloud. Missing files leave the
// corresponding field empty.
func DetectContext(osReleasePath, cloudIDPath string) Context {
	return Context{
		Series: Series(osReleasePath),
		Cloud:  CloudID(cloudIDPath),
	}
}
