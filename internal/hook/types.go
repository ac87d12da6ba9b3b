package hook

/*
Message flow of one apt JSON hook session (protocol 0.2):

  apt                                   pro-apt-hook
   | hello {versions:[...]} (request)  ->  |  AwaitingHello
   | <- {result:{version:"0.2"}}           |
   | install.* event (notification)    ->  |  AwaitingEvent -> Handler
   | bye (notification)                ->  |  AwaitingBye
   |                                       |  Closed

Every message is one line of JSON followed by an empty line.
*/

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Method names.
const (
	MethodHello      = "org.debian.apt.hooks.hello"
	MethodBye        = "org.debian.apt.hooks.bye"
	MethodStatistics = "org.debian.apt.hooks.install.statistics"
	MethodPrePrompt  = "org.debian.apt.hooks.install.pre-prompt"
	MethodPost       = "org.debian.apt.hooks.install.post"
)

// Message is a JSON-RPC request or notification sent by apt.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	// ID is nil for notifications.
	ID *int64 `json:"id,omitempty"`
}

// IsNotification reports whether the message expects no response.
func (m *Message) IsNotification() bool {
	return m.ID == nil
}

// HelloParams are the params of the hello request.
type HelloParams struct {
	Versions []string `json:"versions"`
}

// Response is the reply to the hello request.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Result  HelloResult `json:"result"`
}

// HelloResult carries the negotiated protocol version.
type HelloResult struct {
	Version string `json:"version"`
}

// State is the position of a session in the hello, event, bye exchange.
type State int

const (
	StateAwaitingHello State = iota
	StateAwaitingEvent
	StateAwaitingBye
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingHello:
		return "awaiting-hello"
	case StateAwaitingEvent:
		return "awaiting-event"
	case StateAwaitingBye:
		return "awaiting-bye"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Framing and validation errors.
var (
	ErrEndOfStream        = errors.New("end of stream")
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrMalformedJSON      = errors.New("malformed JSON")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrUnexpectedMethod   = errors.New("unexpected method")
	ErrOutOfSequence      = errors.New("message out of sequence")
)

// ProtocolError aborts a session. State is where the session stopped.
type ProtocolError struct {
	State State
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("hook protocol error while %s: %v", e.State, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
