package hook

import (
	"bufio"
	"encoding/json"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

// FormatHelloResponse returns the framed reply to a hello request with id.
func FormatHelloResponse(id int64) ([]byte, error) {
	data, err := json.Marshal(Response{
		JSONRPC: constants.JSONRPCVersion,
		ID:      id,
		Result:  HelloResult{Version: constants.ProtocolVersion},
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n', '\n'), nil
}

func writeFrame(w *bufio.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return err
	}
	return w.Flush()
}
