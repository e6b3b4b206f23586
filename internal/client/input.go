package client

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

const usageLine = "Invalid command. Use 'send <MSG>' or 'leave'"

type commandKind int

const (
	cmdInvalid commandKind = iota
	cmdSend
	cmdLeave
)

type command struct {
	kind commandKind
	text string
}

// parseCommand - grammar of the interactive input: "send <text>" stages a
// chat frame, "leave" (exact) quits, anything else is invalid.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if text, ok := strings.CutPrefix(line, "send "); ok {
		return command{kind: cmdSend, text: text}
	}
	if line == "leave" {
		return command{kind: cmdLeave}
	}
	return command{kind: cmdInvalid}
}

// readInput - consumes one readiness notification from the input source:
// a single read (the source may be a blocking terminal, so it is not
// drained to EAGAIN), then every completed line is dispatched. A partial
// line is kept until its newline arrives. End of input quits like "leave".
func (l *Loop) readInput() (quit bool, err error) {
	n, rerr := unix.Read(l.input, l.page[:])
	switch {
	case rerr == unix.EAGAIN || rerr == unix.EINTR:
		return false, nil
	case rerr != nil:
		return false, fmt.Errorf("client: read input: %w", rerr)
	case n == 0:
		return true, nil
	}
	l.inbox = append(l.inbox, l.page[:n]...)

	for {
		i := bytes.IndexByte(l.inbox, '\n')
		if i < 0 {
			return false, nil
		}
		line := string(l.inbox[:i])
		l.inbox = l.inbox[i+1:]

		quit, err := l.dispatchCommand(parseCommand(line))
		if quit || err != nil {
			return quit, err
		}
	}
}

func (l *Loop) dispatchCommand(cmd command) (quit bool, err error) {
	switch cmd.kind {
	case cmdSend:
		l.stage(cmd.text + "\n")
		// immediate attempt; an EAGAIN here is retried on writable readiness
		return false, l.flush()
	case cmdLeave:
		fmt.Fprintln(l.out, "Disconnecting...")
		return true, nil
	default:
		fmt.Fprintln(l.out, usageLine)
		return false, nil
	}
}
