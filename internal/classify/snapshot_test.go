package classify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

const statisticsParams = `{
  "command": "upgrade",
  "search-terms": [],
  "unknown-packages": [],
  "packages": [
    {"id": 1, "name": "openssl", "architecture": "amd64", "mode": "upgrade", "automatic": false,
     "versions": {"install": {"id": 11, "version": "3.0.2-0ubuntu1.10+esm1", "architecture": "amd64", "pin": 500,
       "origins": [{"archive": "jammy-infra-security", "codename": "jammy", "origin": "UbuntuESM", "label": "Ubuntu", "site": "esm.ubuntu.com"}]}}},
    {"id": 2, "name": "hello", "architecture": "amd64", "mode": "upgrade",
     "versions": {"install": {"id": 12, "version": "2.10-2ubuntu0.1~esm1", "pin": -32768,
       "origins": [{"archive": "jammy-apps-security", "origin": "UbuntuESMApps"}]}}},
    {"id": 3, "name": "bash", "architecture": "amd64", "mode": "upgrade",
     "versions": {"install": {"id": 13, "version": "5.1-6ubuntu1.1", "pin": 500,
       "origins": [{"archive": "jammy-updates", "origin": "Ubuntu"}, {"archive": "jammy-security", "origin": "Ubuntu"}]}}},
    {"id": 4, "name": "vim", "architecture": "amd64", "mode": "install",
     "versions": {"install": {"id": 14, "version": "2:8.2", "pin": 500,
       "origins": [{"archive": "jammy-security", "origin": "Ubuntu"}]}}},
    {"id": 5, "name": "fips-kernel", "architecture": "amd64", "mode": "upgrade",
     "versions": {"install": {"id": 15, "version": "5.15.0-1", "pin": 500,
       "origins": [{"archive": "jammy", "origin": "UbuntuFIPS"}]}}}
  ]
}`

func TestParseSnapshot(t *testing.T) {
	s, err := ParseSnapshot(json.RawMessage(statisticsParams))
	require.NoError(t, err)
	assert.Equal(t, "upgrade", s.Command)
	assert.Len(t, s.Packages, 5)
	assert.Empty(t, s.Skipped)
	assert.Equal(t, "jammy", s.Packages[0].Versions.Install.Origins[0].Codename)
}

func TestParseSnapshotStructure(t *testing.T) {
	tests := []struct {
		name   string
		params string
	}{
		{"array", `[]`},
		{"null", `null`},
		{"string", `"packages"`},
		{"missing packages", `{"command": "upgrade"}`},
		{"packages not array", `{"packages": {"name": "x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot(json.RawMessage(tt.params))
			assert.ErrorIs(t, err, ErrSnapshotStructure)
		})
	}
}

func TestCountsFromSnapshot(t *testing.T) {
	s, err := ParseSnapshot(json.RawMessage(statisticsParams))
	require.NoError(t, err)

	got := New(Options{}).CountsFromSnapshot(s)
	assert.Equal(t, Counts{Standard: 1, ESMInfra: 1, ESMApps: 1}, got)
}

func TestCountsFromSnapshotSkipsMalformedEntries(t *testing.T) {
	params := `{"packages": [
	  {"name": "nomode", "versions": {"install": {"origins": [{"archive": "jammy-security", "origin": "Ubuntu"}]}}},
	  {"mode": "upgrade", "versions": {"install": {"origins": [{"archive": "jammy-security", "origin": "Ubuntu"}]}}},
	  {"name": "noinstall", "mode": "upgrade", "versions": {}},
	  {"name": "badtype", "mode": 7},
	  "not an object",
	  {"name": "good", "mode": "upgrade", "versions": {"install": {"origins": [{"archive": "jammy-infra-security", "origin": "UbuntuESM"}]}}}
	]}`

	s, err := ParseSnapshot(json.RawMessage(params))
	require.NoError(t, err)
	require.Len(t, s.Packages, 1)
	require.Len(t, s.Skipped, 5)

	assert.Equal(t, "mode", s.Skipped[0].Field)
	assert.Equal(t, "name", s.Skipped[1].Field)
	assert.Equal(t, "versions.install", s.Skipped[2].Field)
	assert.Equal(t, 3, s.Skipped[3].Index)
	assert.Error(t, s.Skipped[3].Err)

	var fieldErr *SnapshotFieldError
	assert.True(t, errors.As(error(s.Skipped[0]), &fieldErr))
	assert.Contains(t, s.Skipped[0].Error(), `missing "mode"`)

	assert.Equal(t, Counts{ESMInfra: 1}, New(Options{}).CountsFromSnapshot(s))
}

func TestCountsFromSnapshotFirstOriginWins(t *testing.T) {
	params := `{"packages": [
	  {"name": "a", "mode": "upgrade", "versions": {"install": {"origins": [
	    {"archive": "jammy-security", "origin": "Ubuntu"},
	    {"archive": "jammy-apps-security", "origin": "UbuntuESMApps"}]}}},
	  {"name": "b", "mode": "upgrade", "versions": {"install": {"origins": [
	    {"archive": "jammy-apps-security", "origin": "UbuntuESMApps"},
	    {"archive": "jammy-security", "origin": "Ubuntu"}]}}}
	]}`
	s, err := ParseSnapshot(json.RawMessage(params))
	require.NoError(t, err)
	assert.Equal(t, Counts{Standard: 1, ESMApps: 1}, New(Options{}).CountsFromSnapshot(s))
}

func TestListsFromSnapshot(t *testing.T) {
	s, err := ParseSnapshot(json.RawMessage(statisticsParams))
	require.NoError(t, err)

	l := New(Options{}).ListsFromSnapshot(s)
	assert.Equal(t, []string{"openssl"}, l.Infra)
	assert.Equal(t, []string{"hello"}, l.Apps)
	assert.Equal(t, 1, l.EnabledInfra)
	assert.Equal(t, 1, l.DisabledApps)

	ignored := New(Options{PinPolicy: PinIgnore}).ListsFromSnapshot(s)
	assert.Equal(t, 1, ignored.EnabledApps)
	assert.Equal(t, 0, ignored.DisabledApps)
	assert.Equal(t, constants.PinNever, s.Packages[1].Versions.Install.Pin)
}

func TestProPackagesFromSnapshot(t *testing.T) {
	s, err := ParseSnapshot(json.RawMessage(statisticsParams))
	require.NoError(t, err)
	assert.Equal(t, []string{"openssl", "hello", "fips-kernel"}, ProPackagesFromSnapshot(s))
}
