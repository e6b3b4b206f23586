package client

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// readSocket - drains the socket until EAGAIN, printing every received
// chunk as a trimmed, lossily decoded line. Reports closed=true on a
// zero-length read (peer closed); any error other than EAGAIN is fatal.
func (l *Loop) readSocket() (closed bool, err error) {
	for {
		n, err := unix.Read(l.sock, l.page[:])
		switch {
		case err == unix.EAGAIN:
			return false, nil
		case err == unix.EINTR:
			continue
		case err != nil:
			return false, fmt.Errorf("client: read socket: %w", err)
		case n == 0:
			return true, nil
		}
		text := strings.ToValidUTF8(string(l.page[:n]), "�")
		fmt.Fprintln(l.out, strings.TrimSpace(text))
	}
}

// stage - appends one outbound frame to the pending buffer. The frame is
// flushed by the next write attempt and survives partial writes.
func (l *Loop) stage(frame string) {
	l.pending = append(l.pending, frame...)
}

// flush - issues one write attempt for the pending bytes. A short write
// advances the offset; EAGAIN leaves the remainder for the next writable
// readiness; draining the buffer resets it and latches the handshake.
func (l *Loop) flush() error {
	if l.written >= len(l.pending) {
		return nil
	}
	n, err := unix.Write(l.sock, l.pending[l.written:])
	switch {
	case err == unix.EAGAIN, err == unix.EINTR:
		return nil
	case err != nil:
		return fmt.Errorf("client: write socket: %w", err)
	}
	l.written += n
	if l.written == len(l.pending) {
		l.pending = l.pending[:0]
		l.written = 0
		if !l.handshakeSent {
			l.handshakeSent = true
		}
	}
	return nil
}
