package aptcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Priorities apt assigns to a source without a matching pin.
const (
	DefaultPriority              = 500
	NotAutomaticPriority         = 1
	ButAutomaticUpgradesPriority = 100
)

// Pin is a generic ("Package: *") apt preferences entry.
type Pin struct {
	// Site is set for "Pin: origin <host>" entries.
	Site string
	// Release holds the key=value selectors of a "Pin: release ..." entry.
	Release  map[string]string
	Priority int
}

// apt ignores preferences.d files that do not match this pattern.
var preferencesName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// LoadPins reads every preferences file and directory in paths, in order.
// Missing paths are skipped.
func LoadPins(paths []string) ([]Pin, error) {
	var pins []Pin
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		files := []string{p}
		if info.IsDir() {
			files, err = preferencesFiles(p)
			if err != nil {
				return nil, err
			}
		}

		for _, file := range files {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			filePins, err := parsePins(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", file, err)
			}
			pins = append(pins, filePins...)
		}
	}
	return pins, nil
}

func preferencesFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !preferencesName.MatchString(name) {
			continue
		}
		if ext := filepath.Ext(name); ext != "" && ext != ".pref" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func parsePins(r io.Reader) ([]Pin, error) {
	var pins []Pin
	err := readParagraphs(r, func(p paragraph) error {
		if p["package"] != "*" {
			// package-specific pins never affect a whole source
			return nil
		}
		pin, ok := parsePin(p["pin"], p["pin-priority"])
		if !ok {
			logger.Debug("skipping unsupported pin", "pin", p["pin"], "priority", p["pin-priority"])
			return nil
		}
		pins = append(pins, pin)
		return nil
	})
	return pins, err
}

func parsePin(selector, priority string) (Pin, bool) {
	var pin Pin

	switch priority = strings.TrimSpace(priority); priority {
	case "never":
		pin.Priority = constants.PinNever
	default:
		n, err := strconv.Atoi(priority)
		if err != nil {
			return Pin{}, false
		}
		pin.Priority = n
	}

	kind, value, _ := strings.Cut(strings.TrimSpace(selector), " ")
	value = strings.TrimSpace(value)
	switch kind {
	case "origin":
		pin.Site = strings.Trim(value, `"`)
		return pin, pin.Site != ""
	case "release":
		pin.Release = map[string]string{}
		for _, term := range strings.Split(value, ",") {
			k, v, ok := strings.Cut(strings.TrimSpace(term), "=")
			if !ok {
				return Pin{}, false
			}
			pin.Release[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
		}
		return pin, len(pin.Release) > 0
	}
	return Pin{}, false
}

// matches reports whether the pin selects the index. Values may be globs.
func (p Pin) matches(f *PackageFile) bool {
	if p.Site != "" {
		return glob(p.Site, f.Site)
	}
	for k, want := range p.Release {
		var got string
		switch k {
		case "o":
			got = f.Origin
		case "a":
			got = f.Archive
		case "n":
			got = f.Codename
		case "l":
			got = f.Label
		case "c":
			got = f.Component
		case "b":
			got = f.Architecture
		default:
			return false
		}
		if !glob(want, got) {
			return false
		}
	}
	return true
}

func glob(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	if err != nil {
		return pattern == s
	}
	return ok
}

// priorityFor returns the priority of the first matching pin, or the
// default priority apt derives from the Release flags.
func priorityFor(f *PackageFile, pins []Pin) int {
	for _, pin := range pins {
		if pin.matches(f) {
			return pin.Priority
		}
	}
	switch {
	case f.notAutomatic && f.butAutomaticUpgrades:
		return ButAutomaticUpgradesPriority
	case f.notAutomatic:
		return NotAutomaticPriority
	}
	return DefaultPriority
}
