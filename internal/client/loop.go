// Package client implements the interactive chat client core: a
// single-threaded event loop multiplexing a non-blocking socket and an
// interactive input source through poll(2). The loop suspends only inside
// the poll call; every read and write either makes progress or reports
// EAGAIN and yields back to the loop.
package client

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// bufSize - read page for both the socket and the input source; one frame
// may span several reads.
const bufSize = 512

// Loop - client session state. Owned by a single goroutine; no field is
// touched concurrently.
type Loop struct {
	sock  int // connected socket, non-blocking
	input int // interactive input source, readable interest only

	out    io.Writer
	logger *zap.Logger

	username string

	// outbound frame buffer with partial-write offset
	pending []byte
	written int
	// latched once the first staged frame (the handshake) is fully flushed
	handshakeSent bool

	// bytes of a not-yet-terminated input line between polls
	inbox []byte

	page [bufSize]byte
}

// New - builds an event loop over a connected non-blocking socket fd and an
// input fd. Lines for the user are printed to out.
func New(sock, input int, username string, out io.Writer, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		sock:     sock,
		input:    input,
		out:      out,
		logger:   logger,
		username: username,
	}
}

// Run - drives the session until the user leaves, the peer closes the
// connection (both clean outcomes), or a fatal I/O error occurs. The
// handshake frame is staged up front and flushed from writable readiness,
// so a short first write resumes instead of truncating the username.
func (l *Loop) Run() error {
	l.stage(l.username + "\n")

	for {
		fds := []unix.PollFd{
			{Fd: int32(l.sock), Events: unix.POLLIN},
			{Fd: int32(l.input), Events: unix.POLLIN},
		}
		if l.written < len(l.pending) {
			// Writable interest only while bytes are pending, otherwise a
			// level-triggered poll would wake on every iteration.
			fds[0].Events |= unix.POLLOUT
		}

		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("client: poll: %w", err)
		}

		if revents := fds[0].Revents &^ (unix.POLLIN | unix.POLLOUT | unix.POLLHUP | unix.POLLERR); revents != 0 {
			l.logger.Warn("unexpected socket poll events", zap.Int16("revents", revents))
		}

		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			closed, err := l.readSocket()
			if err != nil {
				return err
			}
			if closed {
				fmt.Fprintln(l.out, "Connection closed by server.")
				return nil
			}
		}

		if fds[0].Revents&unix.POLLOUT != 0 {
			if err := l.flush(); err != nil {
				return err
			}
		}

		// POLLHUP must dispatch too: a pipe or terminal whose writer closed
		// reports hangup without POLLIN, and only the read seeing EOF quits.
		if fds[1].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			quit, err := l.readInput()
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}
