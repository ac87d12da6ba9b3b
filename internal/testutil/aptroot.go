package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

// Repo describes one apt source in an AptRoot.
type Repo struct {
	Site      string // defaults to archive.ubuntu.com
	Suite     string
	Codename  string // defaults to the suite up to the first '-'
	Component string // defaults to main
	Arch      string // defaults to amd64
	Origin    string
	Label     string
	// Compress is "", "gz" or "zst".
	Compress string
	// InRelease writes a clearsigned InRelease instead of a Release file.
	InRelease    bool
	NotAutomatic bool
	// ESM places the index in the Pro ESM cache lists directory.
	ESM bool
}

func (r Repo) withDefaults() Repo {
	if r.Site == "" {
		r.Site = "archive.ubuntu.com"
	}
	if r.Codename == "" {
		r.Codename, _, _ = strings.Cut(r.Suite, "-")
	}
	if r.Component == "" {
		r.Component = "main"
	}
	if r.Arch == "" {
		r.Arch = "amd64"
	}
	return r
}

func (r Repo) prefix() string {
	return fmt.Sprintf("%s_ubuntu_dists_%s", r.Site, r.Suite)
}

func (r Repo) indexName() string {
	name := fmt.Sprintf("%s_%s_binary-%s_Packages", r.prefix(), r.Component, r.Arch)
	if r.Compress != "" {
		name += "." + r.Compress
	}
	return name
}

// AptRoot is a throwaway filesystem laid out like the parts of a Ubuntu
// system the hook reads.
type AptRoot struct {
	t *testing.T

	Dir            string
	DpkgStatus     string
	ListsDir       string
	ESMListsDir    string
	PreferencesDir string
	MessagesDir    string
	NoticesDir     string
	PromoFlag      string
	OSRelease      string
	CloudID        string
	Proc           string

	status  []string
	stanzas map[string][]string
	repos   map[string]Repo
}

// NewAptRoot creates an empty root under t.TempDir().
func NewAptRoot(t *testing.T) *AptRoot {
	t.Helper()

	dir := t.TempDir()
	r := &AptRoot{
		t:              t,
		Dir:            dir,
		DpkgStatus:     filepath.Join(dir, "var/lib/dpkg/status"),
		ListsDir:       filepath.Join(dir, "var/lib/apt/lists"),
		ESMListsDir:    filepath.Join(dir, "var/lib/ubuntu-advantage/apt-esm/var/lib/apt/lists"),
		PreferencesDir: filepath.Join(dir, "etc/apt/preferences.d"),
		MessagesDir:    filepath.Join(dir, "var/lib/ubuntu-advantage/messages"),
		NoticesDir:     filepath.Join(dir, "var/lib/ubuntu-advantage/notices"),
		PromoFlag:      filepath.Join(dir, "var/lib/ubuntu-advantage/flags/show-apt-post-promo"),
		OSRelease:      filepath.Join(dir, "etc/os-release"),
		CloudID:        filepath.Join(dir, "run/cloud-init/cloud-id"),
		Proc:           filepath.Join(dir, "proc"),
		stanzas:        map[string][]string{},
		repos:          map[string]Repo{},
	}
	for _, d := range []string{
		filepath.Dir(r.DpkgStatus), r.ListsDir, r.ESMListsDir, r.PreferencesDir,
		r.MessagesDir, r.NoticesDir, filepath.Dir(r.PromoFlag), r.Proc,
	} {
		if err := os.MkdirAll(d, constants.DirMode); err != nil {
			t.Fatal(err)
		}
	}
	r.WriteFile(r.DpkgStatus, "")
	return r
}

// WriteFile writes content to path, creating parent directories.
func (r *AptRoot) WriteFile(path, content string) {
	r.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), constants.FileMode); err != nil {
		r.t.Fatal(err)
	}
}

// Install records an installed package in the dpkg status file.
func (r *AptRoot) Install(name, arch, version string) {
	r.t.Helper()
	r.status = append(r.status, fmt.Sprintf(
		"Package: %s\nStatus: install ok installed\nArchitecture: %s\nVersion: %s\n", name, arch, version))
	r.WriteFile(r.DpkgStatus, strings.Join(r.status, "\n"))
}

// Offer adds a package version to the repository's Packages index and
// (re)writes the index and its Release file.
func (r *AptRoot) Offer(repo Repo, name, arch, version string) {
	r.t.Helper()
	repo = repo.withDefaults()

	dir := r.ListsDir
	if repo.ESM {
		dir = r.ESMListsDir
	}
	index := filepath.Join(dir, repo.indexName())
	r.repos[index] = repo
	r.stanzas[index] = append(r.stanzas[index], fmt.Sprintf(
		"Package: %s\nArchitecture: %s\nVersion: %s\nFilename: pool/%s_%s_%s.deb\n", name, arch, version, name, version, arch))

	r.writeIndex(index, []byte(strings.Join(r.stanzas[index], "\n")), repo.Compress)
	r.writeRelease(dir, repo)
}

func (r *AptRoot) writeIndex(path string, data []byte, compress string) {
	r.t.Helper()
	var buf bytes.Buffer
	switch compress {
	case "gz":
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			r.t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			r.t.Fatal(err)
		}
	case "zst":
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			r.t.Fatal(err)
		}
		buf.Write(enc.EncodeAll(data, nil))
		enc.Close()
	default:
		buf.Write(data)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FileMode); err != nil {
		r.t.Fatal(err)
	}
}

func (r *AptRoot) writeRelease(dir string, repo Repo) {
	r.t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "Origin: %s\nLabel: %s\nSuite: %s\nCodename: %s\n", repo.Origin, repo.Label, repo.Suite, repo.Codename)
	if repo.NotAutomatic {
		b.WriteString("NotAutomatic: yes\n")
	}
	b.WriteString("Architectures: amd64 arm64\nComponents: main universe\n")

	name := repo.prefix() + "_Release"
	body := b.String()
	if repo.InRelease {
		name = repo.prefix() + "_InRelease"
		body = "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA512\n\n" + body +
			"-----BEGIN PGP SIGNATURE-----\n\niQIzBAEBCgAdFiEE\n-----END PGP SIGNATURE-----\n"
	}
	r.WriteFile(filepath.Join(dir, name), body)
}

// Pin appends a stanza to an apt preferences file.
func (r *AptRoot) Pin(stanza string) {
	r.t.Helper()
	path := filepath.Join(r.PreferencesDir, "ubuntu-pro")
	existing, _ := os.ReadFile(path)
	content := string(existing)
	if content != "" {
		content += "\n"
	}
	r.WriteFile(path, content+strings.TrimSpace(stanza)+"\n")
}

// Process writes /proc/<pid>/cmdline and a status file naming ppid as
// its parent.
func (r *AptRoot) Process(pid, ppid int, args ...string) {
	r.t.Helper()
	dir := filepath.Join(r.Proc, fmt.Sprint(pid))
	r.WriteFile(filepath.Join(dir, "cmdline"), strings.Join(args, "\x00")+"\x00")
	r.WriteFile(filepath.Join(dir, "status"), fmt.Sprintf("Name:\t%s\nState:\tS (sleeping)\nPid:\t%d\nPPid:\t%d\n", filepath.Base(firstOr(args, "init")), pid, ppid))
}

func firstOr(args []string, def string) string {
	if len(args) == 0 {
		return def
	}
	return args[0]
}

// ConfigTOML returns a configuration whose [paths] all point into the root.
func (r *AptRoot) ConfigTOML() string {
	return fmt.Sprintf(`[paths]
messages_dir = %q
notices_dir = %q
promo_flag = %q
dpkg_status = %q
apt_lists = [%q, %q]
apt_preferences = [%q, %q]
os_release = %q
cloud_id = %q
proc = %q
`,
		r.MessagesDir, r.NoticesDir, r.PromoFlag, r.DpkgStatus,
		r.ListsDir, r.ESMListsDir,
		filepath.Join(r.Dir, "etc/apt/preferences"), r.PreferencesDir,
		r.OSRelease, r.CloudID, r.Proc)
}
