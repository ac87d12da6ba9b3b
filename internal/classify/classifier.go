package classify

import (
	"github.com/canonical/ubuntu-pro-client/internal/aptcache"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// ListScan selects how ForAdvisory walks the versions of a package.
type ListScan string

const (
	// ScanAllNewer examines every version newer than the installed one.
	ScanAllNewer ListScan = "all-newer"
	// ScanHighest examines only the highest available version.
	ScanHighest ListScan = "highest"
)

// Options configures a Classifier.
type Options struct {
	PinPolicy PinPolicy
	ListScan  ListScan
	// Compare orders Debian versions; aptcache.CompareVersions when nil.
	Compare func(a, b string) int
}

// Source is a package cache snapshot.
type Source interface {
	Packages() []*aptcache.Package
}

// Lists holds the packages with a pending update per entitlement tier, in
// cache iteration order. A name appears at most once per list.
type Lists struct {
	Infra []string
	Apps  []string

	// Per-tier tallies of the sources that caused an insertion.
	EnabledInfra  int
	DisabledInfra int
	EnabledApps   int
	DisabledApps  int
}

// Empty reports whether neither tier has a pending update.
func (l Lists) Empty() bool {
	return len(l.Infra) == 0 && len(l.Apps) == 0
}

// Counts tallies pending security updates per channel.
type Counts struct {
	Standard uint
	ESMInfra uint
	ESMApps  uint
}

// Total returns the number of updates across all channels.
func (c Counts) Total() uint {
	return c.Standard + c.ESMInfra + c.ESMApps
}

func (c *Counts) add(t Tag) {
	switch t {
	case TagStandard:
		c.Standard++
	case TagESMInfra:
		c.ESMInfra++
	case TagESMApps:
		c.ESMApps++
	}
}

// Classifier buckets package updates by entitlement channel.
type Classifier struct {
	opts Options
}

// New returns a Classifier. Zero options mean honoured pins, the
// all-newer scan and Debian version ordering.
func New(opts Options) *Classifier {
	if opts.PinPolicy == "" {
		opts.PinPolicy = PinHonor
	}
	if opts.ListScan == "" {
		opts.ListScan = ScanAllNewer
	}
	if opts.Compare == nil {
		opts.Compare = aptcache.CompareVersions
	}
	return &Classifier{opts: opts}
}

// newer returns the versions of pkg strictly newer than the installed one,
// highest first.
func (c *Classifier) newer(pkg *aptcache.Package) []*aptcache.Version {
	if pkg.Installed == "" {
		return nil
	}
	var out []*aptcache.Version
	for _, v := range pkg.Versions {
		if c.opts.Compare(v.Version, pkg.Installed) > 0 {
			out = append(out, v)
		}
	}
	return out
}

// ForAdvisory lists installed packages whose update comes from esm-infra
// or esm-apps.
func (c *Classifier) ForAdvisory(src Source) Lists {
	var l Lists
	infra := map[string]bool{}
	apps := map[string]bool{}

	insert := func(pkg string, f *aptcache.PackageFile, tag Tag) {
		enabled := Enabled(f.Priority, c.opts.PinPolicy)
		switch tag {
		case TagESMInfra:
			if infra[pkg] {
				return
			}
			infra[pkg] = true
			l.Infra = append(l.Infra, pkg)
			if enabled {
				l.EnabledInfra++
			} else {
				l.DisabledInfra++
			}
		case TagESMApps:
			if apps[pkg] {
				return
			}
			apps[pkg] = true
			l.Apps = append(l.Apps, pkg)
			if enabled {
				l.EnabledApps++
			} else {
				l.DisabledApps++
			}
		}
	}

	for _, pkg := range src.Packages() {
		newer := c.newer(pkg)
		if len(newer) == 0 {
			continue
		}
		if c.opts.ListScan == ScanHighest {
			newer = newer[:1]
		}
		for _, v := range newer {
			for _, f := range v.Files {
				insert(pkg.Name, f, TagFromOrigin(f.Origin, f.Archive))
			}
		}
	}

	logger.Debug("classified advisory lists",
		"scan", string(c.opts.ListScan),
		"infra", len(l.Infra),
		"apps", len(l.Apps))
	return l
}

// ForCounts counts installed packages with a newer version by the channel
// of their highest version. The first classifying source wins.
func (c *Classifier) ForCounts(src Source) Counts {
	var counts Counts
	for _, pkg := range src.Packages() {
		newer := c.newer(pkg)
		if len(newer) == 0 {
			continue
		}
		for _, f := range newer[0].Files {
			if tag := TagFromOrigin(f.Origin, f.Archive); tag != TagNone {
				counts.add(tag)
				break
			}
		}
	}
	return counts
}

// Channel returns the entitlement channel of the highest version of pkg,
// or ChannelNone when nothing newer than the installed version exists.
func (c *Classifier) Channel(pkg *aptcache.Package) Channel {
	newer := c.newer(pkg)
	if len(newer) == 0 {
		return ChannelNone
	}
	var infra, apps bool
	for _, f := range newer[0].Files {
		switch TagFromOrigin(f.Origin, f.Archive) {
		case TagESMInfra:
			infra = true
		case TagESMApps:
			apps = true
		}
	}
	switch {
	case infra && apps:
		return ChannelBoth
	case infra:
		return ChannelInfra
	case apps:
		return ChannelApps
	}
	return ChannelNone
}
