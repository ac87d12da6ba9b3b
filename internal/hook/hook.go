// Package hook implements the apt JSON hook protocol: a hello handshake,
// one install event handed to a Handler, and a closing bye.
package hook

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

// Handler receives the event of a session. Errors are logged and never
// abort the session.
type Handler interface {
	HandleEvent(ctx context.Context, method string, params json.RawMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, method string, params json.RawMessage) error

func (f HandlerFunc) HandleEvent(ctx context.Context, method string, params json.RawMessage) error {
	return f(ctx, method, params)
}

// IsEvent reports whether method is an event dispatched to the Handler.
func IsEvent(method string) bool {
	switch method {
	case MethodStatistics, MethodPrePrompt, MethodPost:
		return true
	}
	return false
}

// Result summarizes a finished or aborted session.
type Result struct {
	State        State
	Event        string
	HandlerError error
	Duration     time.Duration
}

// Session runs one hook exchange over a duplex stream. It is not safe for
// concurrent use.
type Session struct {
	r       *Reader
	w       *bufio.Writer
	handler Handler
	state   State
	result  Result
	log     *slog.Logger
}

// NewSession returns a session reading and writing conn.
func NewSession(conn io.ReadWriter, handler Handler) *Session {
	return &Session{
		r:       NewReader(conn),
		w:       bufio.NewWriter(conn),
		handler: handler,
		state:   StateAwaitingHello,
		log:     logger.With("component", "session"),
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Result returns the summary of the session so far.
func (s *Session) Result() Result {
	r := s.result
	r.State = s.state
	return r
}

// Run performs the exchange. Any protocol violation stops the session
// where it is, without a response, and is returned as a *ProtocolError.
func (s *Session) Run(ctx context.Context) error {
	start := time.Now()
	defer func() { s.result.Duration = time.Since(start) }()

	for s.state != StateClosed {
		var err error
		switch s.state {
		case StateAwaitingHello:
			err = s.hello()
		case StateAwaitingEvent:
			err = s.event(ctx)
		case StateAwaitingBye:
			err = s.bye()
		}
		if err != nil {
			s.log.Debug("session aborted", "state", s.state.String(), "error", err)
			return &ProtocolError{State: s.state, Err: err}
		}
	}
	return nil
}

func (s *Session) hello() error {
	msg, err := s.r.ReadMessage()
	if err != nil {
		return err
	}
	if msg.Method != MethodHello {
		return fmt.Errorf("%w: %q, want hello", ErrUnexpectedMethod, msg.Method)
	}
	if msg.IsNotification() {
		return fmt.Errorf("%w: hello without id", ErrInvalidMessage)
	}

	var params HelloParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("%w: hello params: %v", ErrInvalidMessage, err)
	}
	if !slices.Contains(params.Versions, constants.ProtocolVersion) {
		return fmt.Errorf("%w: apt offers %v", ErrUnsupportedVersion, params.Versions)
	}

	frame, err := FormatHelloResponse(*msg.ID)
	if err != nil {
		return err
	}
	if err := writeFrame(s.w, frame); err != nil {
		return fmt.Errorf("writing hello response: %w", err)
	}

	s.log.Debug("hello", "id", *msg.ID, "versions", params.Versions)
	s.state = StateAwaitingEvent
	return nil
}

func (s *Session) event(ctx context.Context) error {
	msg, err := s.r.ReadMessage()
	if err != nil {
		return err
	}
	if msg.Method == MethodHello || msg.Method == MethodBye {
		return fmt.Errorf("%w: %q before an event", ErrOutOfSequence, msg.Method)
	}

	s.result.Event = msg.Method
	if IsEvent(msg.Method) && s.handler != nil {
		if err := s.handler.HandleEvent(ctx, msg.Method, msg.Params); err != nil {
			s.log.Debug("event handler failed", "method", msg.Method, "error", err)
			s.result.HandlerError = err
		}
	} else {
		s.log.Debug("ignoring event", "method", msg.Method)
	}

	s.state = StateAwaitingBye
	return nil
}

func (s *Session) bye() error {
	msg, err := s.r.ReadMessage()
	if err != nil {
		return err
	}
	if msg.Method != MethodBye {
		return fmt.Errorf("%w: %q, want bye", ErrUnexpectedMethod, msg.Method)
	}
	s.state = StateClosed
	return nil
}
