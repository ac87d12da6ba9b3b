// Package classify decides which pending package updates come from the
// Ubuntu Pro entitlement channels (esm-infra, esm-apps), from the standard
// security pocket, or from neither.
//
// Two sources are supported: the live apt cache (see aptcache) and the
// package snapshot apt embeds in JSON hook events.
package classify

import (
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

// Tag is the channel a single repository record belongs to.
type Tag int

const (
	TagNone Tag = iota
	TagStandard
	TagESMInfra
	TagESMApps
)

func (t Tag) String() string {
	switch t {
	case TagStandard:
		return "standard"
	case TagESMInfra:
		return "esm-infra"
	case TagESMApps:
		return "esm-apps"
	}
	return "none"
}

// Channel is the entitlement channel of a package's pending update.
// Both is its own value: the update is offered by both tiers.
type Channel int

const (
	ChannelNone Channel = iota
	ChannelInfra
	ChannelApps
	ChannelBoth
)

func (c Channel) String() string {
	switch c {
	case ChannelInfra:
		return "infra"
	case ChannelApps:
		return "apps"
	case ChannelBoth:
		return "both"
	}
	return "none"
}

// PinPolicy says whether a "Pin-Priority: never" source counts as disabled.
type PinPolicy string

const (
	PinHonor  PinPolicy = "honor"
	PinIgnore PinPolicy = "ignore"
)

// TagFromOrigin classifies a record of the live cache. Records without an
// archive (local or flat repositories) never classify.
func TagFromOrigin(origin, archive string) Tag {
	if archive == "" {
		return TagNone
	}
	switch origin {
	case constants.OriginESMInfra:
		return TagESMInfra
	case constants.OriginESMApps:
		return TagESMApps
	case constants.OriginUbuntu:
		if strings.HasSuffix(archive, "-security") {
			return TagStandard
		}
	}
	return TagNone
}

// TagFromOriginAndArchive classifies a record of a JSON snapshot, where the
// archive suffix must agree with the origin.
func TagFromOriginAndArchive(origin, archive string) Tag {
	switch {
	case origin == constants.OriginESMApps && strings.HasSuffix(archive, "-apps-security"):
		return TagESMApps
	case origin == constants.OriginESMInfra && strings.HasSuffix(archive, "-infra-security"):
		return TagESMInfra
	case origin == constants.OriginUbuntu && strings.HasSuffix(archive, "-security"):
		return TagStandard
	}
	return TagNone
}

// Enabled reports whether a source with the given pin priority is in use.
func Enabled(priority int, policy PinPolicy) bool {
	return policy == PinIgnore || priority != constants.PinNever
}
