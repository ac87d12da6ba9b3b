package system

import (
	"os"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// CloudID reads the cloud-init cloud id and folds the regional variants
// (aws-china, azure-china, gcp) onto CloudAWS, CloudAzure and CloudGCE.
// Other clouds are returned as written; "" when unknown.
func CloudID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("no cloud id", "path", path, "error", err)
		return ""
	}
	id := strings.ToLower(strings.TrimSpace(string(data)))
	switch {
	case strings.Contains(id, "aws"):
		return CloudAWS
	case strings.Contains(id, "azure"):
		return CloudAzure
	case strings.Contains(id, "gce"), strings.Contains(id, "gcp"):
		return CloudGCE
	}
	return id
}
