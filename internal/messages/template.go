package messages

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Template placeholders.
const (
	VarAppsCount     = "{ESM_APPS_PKG_COUNT}"
	VarAppsPackages  = "{ESM_APPS_PACKAGES}"
	VarInfraCount    = "{ESM_INFRA_PKG_COUNT}"
	VarInfraPackages = "{ESM_INFRA_PACKAGES}"
)

// Vars are the values substituted into a template. They are inserted
// verbatim.
type Vars struct {
	AppsCount     string
	AppsPackages  string
	InfraCount    string
	InfraPackages string
}

func (v Vars) pairs() [][2]string {
	return [][2]string{
		{VarAppsCount, v.AppsCount},
		{VarAppsPackages, v.AppsPackages},
		{VarInfraCount, v.InfraCount},
		{VarInfraPackages, v.InfraPackages},
	}
}

// Render replaces the first occurrence of each placeholder in text.
func (v Vars) Render(text string) string {
	for _, p := range v.pairs() {
		text = strings.Replace(text, p[0], p[1], 1)
	}
	return text
}

// RenderTemplate renders the template at templatePath into outputPath.
// When the template cannot be opened, a stale outputPath is removed and
// nothing is written.
func RenderTemplate(templatePath string, vars Vars, outputPath string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		logger.Debug("template unavailable, removing output", "template", templatePath, "output", outputPath, "error", err)
		return removeStale(outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(vars.Render(string(data))), constants.FileMode); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
