package chat

import (
	"bufio"
	"io"
	"net"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linechat/internal/chat/roster"
)

const (
	// LeaveToken - the literal line a client sends to leave the chat.
	LeaveToken = "/leave"

	// readPage - size of the buffered reader page; one frame may span
	// several reads of this size.
	readPage = 512

	msgInvalidName = "Invalid username\n"
	msgNameTaken   = "Username is already taken\n"
)

// Handler - serves a single accepted connection: negotiates a unique
// username, then relays every inbound line to the roster until the client
// leaves or the stream ends.
type Handler struct {
	roster  *roster.Roster
	history *historyGreeter
	logger  *zap.Logger
}

// NewHandler - builds a connection handler bound to the shared roster.
// History may be nil when join greetings are disabled.
func NewHandler(r *roster.Roster, history MessageHistory, greets int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		roster:  r,
		history: newHistoryGreeter(history, greets),
		logger:  logger,
	}
}

// ValidUsername - reports whether the candidate may identify a member:
// non-empty, no whitespace, not the leave token.
func ValidUsername(name string) bool {
	if name == "" || name == LeaveToken {
		return false
	}
	return !strings.ContainsFunc(name, unicode.IsSpace)
}

// Serve - drives the connection through its lifecycle:
// awaiting-username, registered, closed. The connection is closed and the
// username unregistered on every exit path.
func (h *Handler) Serve(conn net.Conn) {
	defer conn.Close()

	session := uuid.NewString()
	logger := h.logger.With(
		zap.String("session", session),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	in := bufio.NewReaderSize(conn, readPage)

	name, err := h.handshake(conn, in)
	if err != nil {
		logger.Info("connection closed before registration", zap.Error(err))
		return
	}
	logger.Info("user joined", zap.String("user", name))

	// Cleanup must run exactly once, whichever path closes the session.
	defer func() {
		h.roster.Leave(name)
		logger.Info("user left", zap.String("user", name))
	}()

	h.history.greet(conn)

	for {
		line, err := in.ReadString('\n')
		// Every received line is relayed, even an empty one; only the
		// zero-byte read at end-of-stream produces no frame.
		if line != "" {
			text := strings.TrimRight(line, "\r\n")
			if text == LeaveToken {
				return
			}
			h.roster.Broadcast(name, text)
			h.history.push(roster.Frame(name, text))
		}
		if err != nil {
			if err != io.EOF {
				logger.Warn("read failed", zap.String("user", name), zap.Error(err))
			}
			return
		}
	}
}

// handshake - reads username candidates until one passes validation and
// registers in the roster. A rejected candidate is discarded before the
// next attempt. Returns the registered name, or the read error that ended
// the attempt.
func (h *Handler) handshake(conn net.Conn, in *bufio.Reader) (string, error) {
	for {
		line, err := in.ReadString('\n')
		candidate := strings.TrimSpace(line)
		if err != nil && (candidate == "" || err != io.EOF) {
			return "", err
		}
		switch {
		case !ValidUsername(candidate):
			if _, werr := io.WriteString(conn, msgInvalidName); werr != nil {
				return "", werr
			}
		case h.roster.Join(candidate, conn) != nil:
			if _, werr := io.WriteString(conn, msgNameTaken); werr != nil {
				return "", werr
			}
		default:
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
