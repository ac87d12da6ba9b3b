package aptcache

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// ErrCacheInit is returned when the package cache cannot be built.
var ErrCacheInit = errors.New("failed to initialize apt cache")

// Options locates the files the cache is built from.
type Options struct {
	DpkgStatus  string
	ListsDirs   []string
	Preferences []string
	// Compare orders version strings; CompareVersions when nil.
	Compare func(a, b string) int
}

// Cache is the set of installed packages with every version apt knows of.
type Cache struct {
	packages []*Package
	byKey    map[string]*Package
	files    []*PackageFile
}

// Load reads the dpkg status database, then every Packages index in the
// lists directories. Lists directories that do not exist are skipped.
func Load(opts Options) (*Cache, error) {
	compare := opts.Compare
	if compare == nil {
		compare = CompareVersions
	}

	c := &Cache{byKey: map[string]*Package{}}
	if err := c.readStatus(opts.DpkgStatus); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInit, err)
	}

	pins, err := LoadPins(opts.Preferences)
	if err != nil {
		return nil, fmt.Errorf("%w: preferences: %w", ErrCacheInit, err)
	}

	for _, dir := range opts.ListsDirs {
		files, err := indexFiles(dir)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("lists directory not found", "dir", dir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheInit, err)
		}
		for _, path := range files {
			pf := describeIndex(path)
			pf.Priority = priorityFor(pf, pins)
			if err := c.readIndex(pf); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrCacheInit, path, err)
			}
			c.files = append(c.files, pf)
		}
	}

	for _, p := range c.packages {
		sort.SliceStable(p.Versions, func(i, j int) bool {
			return compare(p.Versions[i].Version, p.Versions[j].Version) > 0
		})
	}

	logger.Debug("apt cache loaded", "installed", len(c.packages), "indexes", len(c.files), "pins", len(pins))
	return c, nil
}

func (c *Cache) readStatus(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return readParagraphs(f, func(p paragraph) error {
		name, version := p["package"], p["version"]
		if name == "" || version == "" || !strings.HasSuffix(p["status"], " installed") {
			return nil
		}
		pkg := &Package{
			Name:         name,
			Architecture: p["architecture"],
			Installed:    version,
			Versions:     []*Version{{Version: version}},
		}
		if _, dup := c.byKey[pkg.key()]; dup {
			return nil
		}
		c.byKey[pkg.key()] = pkg
		c.packages = append(c.packages, pkg)
		return nil
	})
}

func (c *Cache) readIndex(pf *PackageFile) error {
	r, err := openIndex(pf.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	return readParagraphs(r, func(p paragraph) error {
		name, version := p["package"], p["version"]
		if name == "" || version == "" {
			return nil
		}
		arch := p["architecture"]
		if arch == "" {
			arch = pf.Architecture
		}
		for _, pkg := range c.candidates(name, arch) {
			pkg.addFile(version, pf)
		}
		return nil
	})
}

// candidates returns the installed packages an index stanza can upgrade.
func (c *Cache) candidates(name, arch string) []*Package {
	if pkg, ok := c.byKey[name+":"+arch]; ok {
		return []*Package{pkg}
	}
	if arch != "all" {
		return nil
	}
	var out []*Package
	for _, pkg := range c.packages {
		if pkg.Name == name {
			out = append(out, pkg)
		}
	}
	return out
}

// Packages returns the installed packages in dpkg status order.
func (c *Cache) Packages() []*Package {
	return c.packages
}

// Lookup finds an installed package by name, optionally qualified with
// ":arch".
func (c *Cache) Lookup(name string) (*Package, bool) {
	if strings.Contains(name, ":") {
		pkg, ok := c.byKey[name]
		return pkg, ok
	}
	for _, pkg := range c.packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return nil, false
}

// Files returns every index the cache was built from, in enumeration order.
func (c *Cache) Files() []*PackageFile {
	return c.files
}
