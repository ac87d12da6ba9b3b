package aptcache

import (
	"strings"

	debversion "github.com/knqyf263/go-deb-version"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// CompareVersions orders two Debian version strings: negative when a sorts
// before b, zero when equal, positive when a sorts after b.
// Strings that are not valid Debian versions fall back to byte order.
func CompareVersions(a, b string) int {
	va, errA := debversion.NewVersion(a)
	vb, errB := debversion.NewVersion(b)
	if errA != nil || errB != nil {
		logger.Debug("invalid debian version, comparing as text", "a", a, "b", b)
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}
