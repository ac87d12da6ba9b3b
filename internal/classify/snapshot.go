package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// ErrSnapshotStructure is returned when the event params do not carry a
// package list at all.
var ErrSnapshotStructure = errors.New("malformed package snapshot")

// ModeUpgrade is the snapshot mode of a package apt is about to upgrade.
const ModeUpgrade = "upgrade"

// ProOrigins are the repository origins served only to Ubuntu Pro
// subscribers.
var ProOrigins = []string{
	"UbuntuESM",
	"UbuntuESMApps",
	"UbuntuCC",
	"UbuntuCIS",
	"UbuntuFIPS",
	"UbuntuFIPSUpdates",
	"UbuntuFIPSPreview",
	"UbuntuRealtimeKernel",
	"UbuntuROS",
	"UbuntuROSUpdates",
}

// SnapshotFieldError describes a package entry that was skipped.
type SnapshotFieldError struct {
	Index int
	Field string
	Err   error
}

func (e *SnapshotFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("package %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("package %d: missing %q", e.Index, e.Field)
}

func (e *SnapshotFieldError) Unwrap() error {
	return e.Err
}

// SnapshotOrigin is one repository a version is available from.
type SnapshotOrigin struct {
	Archive  string `json:"archive"`
	Codename string `json:"codename"`
	Version  string `json:"version"`
	Origin   string `json:"origin"`
	Label    string `json:"label"`
	Site     string `json:"site"`
}

// SnapshotVersion is a package version as apt serializes it.
type SnapshotVersion struct {
	ID           int              `json:"id"`
	Version      string           `json:"version"`
	Architecture string           `json:"architecture"`
	Pin          int              `json:"pin"`
	Origins      []SnapshotOrigin `json:"origins"`
}

// SnapshotPackage is one entry of the snapshot package list.
type SnapshotPackage struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Architecture string `json:"architecture"`
	Mode         string `json:"mode"`
	Automatic    bool   `json:"automatic"`
	Versions     struct {
		Candidate *SnapshotVersion `json:"candidate"`
		Install   *SnapshotVersion `json:"install"`
		Current   *SnapshotVersion `json:"current"`
	} `json:"versions"`
}

// Snapshot is the package list embedded in install.* hook events.
type Snapshot struct {
	Command         string
	UnknownPackages []string
	Packages        []SnapshotPackage
	// Skipped holds the entries dropped while parsing.
	Skipped []*SnapshotFieldError
}

// ParseSnapshot decodes event params. Only a params value that is not an
// object, or a missing or non-array "packages" field, fails the parse;
// malformed entries are skipped and recorded in Skipped.
func ParseSnapshot(params json.RawMessage) (*Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(params, &top); err != nil || top == nil {
		return nil, fmt.Errorf("%w: params is not an object", ErrSnapshotStructure)
	}

	raw, ok := top["packages"]
	if !ok {
		return nil, fmt.Errorf("%w: missing packages", ErrSnapshotStructure)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: packages is not an array", ErrSnapshotStructure)
	}

	s := &Snapshot{}
	if v, ok := top["command"]; ok {
		if err := json.Unmarshal(v, &s.Command); err != nil {
			logger.Debug("ignoring snapshot command", "error", err)
		}
	}
	if v, ok := top["unknown-packages"]; ok {
		if err := json.Unmarshal(v, &s.UnknownPackages); err != nil {
			logger.Debug("ignoring snapshot unknown-packages", "error", err)
		}
	}

	for i, entry := range entries {
		var pkg SnapshotPackage
		if err := json.Unmarshal(entry, &pkg); err != nil {
			s.skip(&SnapshotFieldError{Index: i, Err: err})
			continue
		}
		switch {
		case pkg.Name == "":
			s.skip(&SnapshotFieldError{Index: i, Field: "name"})
		case pkg.Mode == "":
			s.skip(&SnapshotFieldError{Index: i, Field: "mode"})
		case pkg.Mode == ModeUpgrade && pkg.Versions.Install == nil:
			s.skip(&SnapshotFieldError{Index: i, Field: "versions.install"})
		default:
			s.Packages = append(s.Packages, pkg)
		}
	}
	return s, nil
}

func (s *Snapshot) skip(err *SnapshotFieldError) {
	logger.Debug("skipping snapshot package", "error", err)
	s.Skipped = append(s.Skipped, err)
}

// upgrades returns the entries apt is about to upgrade.
func (s *Snapshot) upgrades() []SnapshotPackage {
	var out []SnapshotPackage
	for _, pkg := range s.Packages {
		if pkg.Mode == ModeUpgrade && pkg.Versions.Install != nil {
			out = append(out, pkg)
		}
	}
	return out
}

func snapshotTag(v *SnapshotVersion) Tag {
	for _, o := range v.Origins {
		if tag := TagFromOriginAndArchive(o.Origin, o.Archive); tag != TagNone {
			return tag
		}
	}
	return TagNone
}

// CountsFromSnapshot counts the upgrades in s by the channel of the version
// apt will install.
func (c *Classifier) CountsFromSnapshot(s *Snapshot) Counts {
	var counts Counts
	for _, pkg := range s.upgrades() {
		counts.add(snapshotTag(pkg.Versions.Install))
	}
	return counts
}

// ListsFromSnapshot lists the upgrades in s served by esm-infra or esm-apps.
// The version pin decides whether the source counts as enabled.
func (c *Classifier) ListsFromSnapshot(s *Snapshot) Lists {
	var l Lists
	seen := map[Tag]map[string]bool{TagESMInfra: {}, TagESMApps: {}}

	for _, pkg := range s.upgrades() {
		install := pkg.Versions.Install
		tag := snapshotTag(install)
		if tag != TagESMInfra && tag != TagESMApps {
			continue
		}
		if seen[tag][pkg.Name] {
			continue
		}
		seen[tag][pkg.Name] = true

		enabled := Enabled(install.Pin, c.opts.PinPolicy)
		if tag == TagESMInfra {
			l.Infra = append(l.Infra, pkg.Name)
			if enabled {
				l.EnabledInfra++
			} else {
				l.DisabledInfra++
			}
			continue
		}
		l.Apps = append(l.Apps, pkg.Name)
		if enabled {
			l.EnabledApps++
		} else {
			l.DisabledApps++
		}
	}
	return l
}

// ProPackagesFromSnapshot returns the upgrades in s that can only be
// downloaded with a Pro subscription.
func ProPackagesFromSnapshot(s *Snapshot) []string {
	var names []string
	for _, pkg := range s.upgrades() {
		for _, o := range pkg.Versions.Install.Origins {
			if slices.Contains(ProOrigins, o.Origin) {
				names = append(names, pkg.Name)
				break
			}
		}
	}
	return names
}
