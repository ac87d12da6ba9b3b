package aptcache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Index file name suffixes apt may leave in a lists directory.
var indexSuffixes = []string{"_Packages", "_Packages.gz", "_Packages.zst"}

// indexFiles returns the Packages indexes in dir in lexical order.
func indexFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, suffix := range indexSuffixes {
			if strings.HasSuffix(e.Name(), suffix) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}

type indexReader struct {
	io.Reader
	closers []func() error
}

func (r *indexReader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openIndex opens a Packages index, decompressing by file extension.
func openIndex(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &indexReader{Reader: zr, closers: []func() error{f.Close, zr.Close}}, nil

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return &indexReader{Reader: dec, closers: []func() error{f.Close, func() error { dec.Close(); return nil }}}, nil
	}

	return f, nil
}

// describeIndex fills the repository metadata for an index from its file
// name and the matching InRelease or Release file.
//
// apt names list files after the URI: <site>_<path>_dists_<suite>_<component>_binary-<arch>_Packages
func describeIndex(path string) *PackageFile {
	name := filepath.Base(path)
	pf := &PackageFile{Path: path}

	if site, _, ok := strings.Cut(name, "_"); ok {
		pf.Site = site
	}
	if i := strings.LastIndex(name, "_binary-"); i >= 0 {
		arch := name[i+len("_binary-"):]
		arch, _, _ = strings.Cut(arch, "_")
		pf.Architecture = arch
	}

	const dists = "_dists_"
	i := strings.Index(name, dists)
	if i < 0 {
		return pf // flat repository, no Release metadata
	}
	rest := name[i+len(dists):]
	j := strings.Index(rest, "_")
	if j < 0 {
		return pf
	}
	if component, _, ok := strings.Cut(rest[j+1:], "_binary-"); ok {
		pf.Component = component
	}

	prefix := filepath.Join(filepath.Dir(path), name[:i+len(dists)+j])
	for _, candidate := range []string{prefix + "_InRelease", prefix + "_Release"} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		readRelease(string(data), pf)
		return pf
	}
	logger.Debug("no release file for index", "index", path)
	return pf
}

func readRelease(data string, pf *PackageFile) {
	body := stripClearsign(data)
	first := true
	readParagraphs(strings.NewReader(body), func(p paragraph) error {
		if !first {
			return nil
		}
		first = false
		pf.Origin = p["origin"]
		pf.Label = p["label"]
		pf.Archive = p["suite"]
		pf.Codename = p["codename"]
		pf.notAutomatic = strings.EqualFold(p["notautomatic"], "yes")
		pf.butAutomaticUpgrades = strings.EqualFold(p["butautomaticupgrades"], "yes")
		return nil
	})
}
