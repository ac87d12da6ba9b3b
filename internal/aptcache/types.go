// Package aptcache builds a read-only view of the apt package cache from
// the files apt itself maintains: the dpkg status database, the Packages
// indexes under the lists directories with their Release metadata, and the
// apt preferences that assign pin priorities.
package aptcache

// PackageFile is one Packages index together with the Release metadata of
// the repository it came from.
type PackageFile struct {
	Path         string
	Site         string
	Origin       string
	Label        string
	Archive      string // the Release "Suite" field
	Codename     string
	Component    string
	Architecture string
	// Priority is the pin priority apt would assign; constants.PinNever
	// marks a source that is present but never used.
	Priority int

	notAutomatic         bool
	butAutomaticUpgrades bool
}

// Version is one version string of a package and the indexes offering it,
// in enumeration order.
type Version struct {
	Version string
	Files   []*PackageFile
}

// Package is an installed package. Versions are sorted highest first and
// include the installed version.
type Package struct {
	Name         string
	Architecture string
	Installed    string
	Versions     []*Version
}

func (p *Package) key() string {
	return p.Name + ":" + p.Architecture
}

func (p *Package) addFile(version string, f *PackageFile) {
	for _, v := range p.Versions {
		if v.Version != version {
			continue
		}
		for _, existing := range v.Files {
			if existing == f {
				return
			}
		}
		v.Files = append(v.Files, f)
		return
	}
	p.Versions = append(p.Versions, &Version{Version: version, Files: []*PackageFile{f}})
}
