// Package messages turns classification results into the text apt shows
// and into the mailbox files read by motd and the next pre-invoke run.
package messages

import (
	"fmt"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/classify"
)

func updateClause(n uint, source string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s security update", n, source)
	}
	return fmt.Sprintf("%d %s security updates", n, source)
}

// CountMessage summarizes counts in one sentence, for example
// "2 standard security updates, 1 esm-infra security update and 2 esm-apps
// security updates". Channels with no updates are left out; with no updates
// at all the result is empty.
func CountMessage(counts classify.Counts) string {
	var clauses []string
	if counts.Standard > 0 {
		clauses = append(clauses, updateClause(counts.Standard, "standard"))
	}
	if counts.ESMInfra > 0 {
		clauses = append(clauses, updateClause(counts.ESMInfra, "esm-infra"))
	}
	if counts.ESMApps > 0 {
		clauses = append(clauses, updateClause(counts.ESMApps, "esm-apps"))
	}

	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	}
	last := len(clauses) - 1
	return strings.Join(clauses[:last], ", ") + " and " + clauses[last]
}
