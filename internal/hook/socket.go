package hook

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrNoSocket means apt did not hand over a socket.
var ErrNoSocket = errors.New("no hook socket")

// OpenSocket connects to the descriptor number held in the environment
// variable env.
func OpenSocket(env string) (net.Conn, error) {
	value := strings.TrimSpace(os.Getenv(env))
	if value == "" {
		return nil, ErrNoSocket
	}
	fd, err := strconv.Atoi(value)
	if err != nil || fd < 0 {
		return nil, fmt.Errorf("%s=%q is not a file descriptor", env, value)
	}

	// os.NewFile accepts any number; check the descriptor is open first.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return nil, fmt.Errorf("descriptor %d: %w", fd, err)
	}

	f := os.NewFile(uintptr(fd), "apt-hook-socket")
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("descriptor %d: %w", fd, err)
	}
	return conn, nil
}
