package aptcache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParagraphs(t *testing.T) {
	input := "Package: a\nDescription: first line\n more text\n\n\n# comment\nPackage: b\nVersion: 1.0\n"

	var got []paragraph
	err := readParagraphs(strings.NewReader(input), func(p paragraph) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first line\nmore text", got[0]["description"])
	assert.Equal(t, "1.0", got[1]["version"])
}

func TestStripClearsign(t *testing.T) {
	signed := "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA512\n\nOrigin: Ubuntu\nSuite: jammy\n-----BEGIN PGP SIGNATURE-----\n\nabc\n-----END PGP SIGNATURE-----\n"
	assert.Equal(t, "Origin: Ubuntu\nSuite: jammy", stripClearsign(signed))
	assert.Equal(t, "Origin: Ubuntu\n", stripClearsign("Origin: Ubuntu\n"))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0~rc1", "1.0", -1},
		{"1:0.9", "2.0", 1},
		{"3.0.2-0ubuntu1.10+esm1", "3.0.2-0ubuntu1.10", 1},
		{"1.10", "1.9", 1},
	}
	for _, tt := range tests {
		got := CompareVersions(tt.a, tt.b)
		switch {
		case tt.want < 0:
			assert.Negative(t, got, "%s vs %s", tt.a, tt.b)
		case tt.want > 0:
			assert.Positive(t, got, "%s vs %s", tt.a, tt.b)
		default:
			assert.Zero(t, got, "%s vs %s", tt.a, tt.b)
		}
	}
}
