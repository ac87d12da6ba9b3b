package messages

import (
	"bytes"
	"fmt"
	"os"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Concatenate joins the fragment files into outputPath with a blank line
// between non-empty fragments and a trailing newline. Missing and empty
// fragments are skipped. If nothing remains, outputPath is removed.
func Concatenate(outputPath string, fragments []string) error {
	var buf bytes.Buffer
	for _, path := range fragments {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("skipping fragment", "path", path, "error", err)
			continue
		}
		if len(data) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}

	if buf.Len() == 0 {
		return removeStale(outputPath)
	}
	buf.WriteByte('\n')

	if err := os.WriteFile(outputPath, buf.Bytes(), constants.FileMode); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}
