package messages

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/classify"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Mailbox file names under the messages directory.
const (
	AptPreInvokeAppsFile  = "apt-pre-invoke-packages-apps"
	AptPreInvokeInfraFile = "apt-pre-invoke-packages-infra"
	MotdAppsFile          = "motd-packages-apps"
	MotdInfraFile         = "motd-packages-infra"
	NoWarrantyFile        = "ubuntu-no-warranty"
	AptNewsFile           = "apt-news"

	AptPreInvokeAggregate = "apt-pre-invoke-esm-service-status"
	MotdAggregate         = "motd-esm-service-status"
)

// Layout locates the mailbox files.
type Layout struct {
	MessagesDir string
}

// Path returns the location of a file in the messages directory.
func (l Layout) Path(name string) string {
	return filepath.Join(l.MessagesDir, name)
}

// templateFor names the template rendering output: "<output>.tmpl" when the
// tier has packages, and the no-packages variant otherwise.
func templateFor(output string, hasPackages bool) string {
	if hasPackages {
		return output + ".tmpl"
	}
	return strings.Replace(output, "-packages-", "-no-packages-", 1) + ".tmpl"
}

type rendering struct {
	output      string
	hasPackages bool
}

// ProcessTemplates renders the per-tier mailbox files from lists, then the
// two aggregates. Every file is attempted; failures are joined.
func ProcessTemplates(layout Layout, lists classify.Lists) error {
	vars := Vars{
		AppsCount:     strconv.Itoa(len(lists.Apps)),
		AppsPackages:  strings.Join(lists.Apps, " "),
		InfraCount:    strconv.Itoa(len(lists.Infra)),
		InfraPackages: strings.Join(lists.Infra, " "),
	}

	renderings := []rendering{
		{AptPreInvokeAppsFile, len(lists.Apps) > 0},
		{MotdAppsFile, len(lists.Apps) > 0},
		{AptPreInvokeInfraFile, len(lists.Infra) > 0},
		{MotdInfraFile, len(lists.Infra) > 0},
	}

	var errs []error
	for _, r := range renderings {
		tmpl := layout.Path(templateFor(r.output, r.hasPackages))
		if err := RenderTemplate(tmpl, vars, layout.Path(r.output)); err != nil {
			errs = append(errs, err)
		}
	}

	aggregates := map[string][]string{
		AptPreInvokeAggregate: {AptPreInvokeAppsFile, AptPreInvokeInfraFile, NoWarrantyFile},
		MotdAggregate:         {MotdAppsFile, MotdInfraFile, NoWarrantyFile},
	}
	for _, name := range []string{AptPreInvokeAggregate, MotdAggregate} {
		var fragments []string
		for _, f := range aggregates[name] {
			fragments = append(fragments, layout.Path(f))
		}
		if err := Concatenate(layout.Path(name), fragments); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Debug("templates processed", "dir", layout.MessagesDir, "apps", len(lists.Apps), "infra", len(lists.Infra))
	return errors.Join(errs...)
}
