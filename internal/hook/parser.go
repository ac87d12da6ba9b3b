package hook

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
)

// Reader reads framed hook messages: a JSON line, then an empty line.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadMessage consumes exactly two lines and decodes the first.
// ErrEndOfStream means the stream ended before a payload; a payload
// without its empty line is ErrMalformedFrame.
func (r *Reader) ReadMessage() (*Message, error) {
	payload, err := r.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if strings.TrimSpace(payload) == "" {
				return nil, ErrEndOfStream
			}
			return nil, fmt.Errorf("%w: payload not terminated", ErrMalformedFrame)
		}
		return nil, err
	}

	sep, err := r.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if errors.Is(err, io.EOF) && sep == "" {
		return nil, fmt.Errorf("%w: missing empty line", ErrMalformedFrame)
	}
	if strings.TrimRight(sep, "\r\n") != "" {
		return nil, fmt.Errorf("%w: expected empty line, got %q", ErrMalformedFrame, strings.TrimRight(sep, "\n"))
	}

	return ParseMessage([]byte(payload))
}

// ParseMessage decodes and validates one payload line.
func ParseMessage(line []byte) (*Message, error) {
	if !json.Valid(line) {
		return nil, ErrMalformedJSON
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch {
	case msg.JSONRPC != constants.JSONRPCVersion:
		return nil, fmt.Errorf("%w: jsonrpc %q", ErrInvalidMessage, msg.JSONRPC)
	case msg.Method == "":
		return nil, fmt.Errorf("%w: missing method", ErrInvalidMessage)
	case len(msg.Params) == 0:
		return nil, fmt.Errorf("%w: missing params", ErrInvalidMessage)
	}
	return &msg, nil
}
