// Package roster keeps the set of active chat members and routes
// broadcast messages to their connections.
package roster

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNameTaken - returned by Join when the username is already registered.
var ErrNameTaken = errors.New("roster: username is already taken")

// Roster - thread-safe registry of active usernames and their connections.
// Both collections are guarded by the same mutex, so a member is either
// fully registered (present in both) or absent from both.
type Roster struct {
	mu           sync.Mutex
	names        map[string]struct{}
	conns        map[string]net.Conn
	writeTimeout time.Duration
	logger       *zap.Logger
}

type option func(*Roster) error

// WithWriteTimeout - overwrites the default per-peer write deadline used
// during broadcast.
func WithWriteTimeout(timeout time.Duration) option {
	return func(r *Roster) error {
		if timeout <= 0 {
			return fmt.Errorf("roster.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		r.writeTimeout = timeout
		return nil
	}
}

// WithLogger - attaches a logger for peer write failures.
func WithLogger(logger *zap.Logger) option {
	return func(r *Roster) error {
		if logger == nil {
			return errors.New("roster.WithLogger: logger is nil")
		}
		r.logger = logger
		return nil
	}
}

// New - builds a Roster with needed options.
func New(options ...option) (*Roster, error) {
	r := &Roster{
		names:        map[string]struct{}{},
		conns:        map[string]net.Conn{},
		writeTimeout: 30 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Join - registers the username with its connection. Both collections are
// updated under the lock, so no concurrent reader can observe a half-joined
// member. Fails with ErrNameTaken when the name is active.
func (r *Roster) Join(name string, conn net.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[name]; ok {
		return ErrNameTaken
	}
	r.names[name] = struct{}{}
	r.conns[name] = conn
	return nil
}

// Leave - removes the username from both collections. Idempotent.
func (r *Roster) Leave(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
	delete(r.conns, name)
}

// Broadcast - delivers text, framed as "[sender]: text\n", to every
// registered connection except the sender's own. Delivery is best-effort
// per peer: a failed write is logged and skipped, never aborts the fan-out.
// The member set seen by one Broadcast call is a consistent snapshot; each
// peer write is bounded by the roster write timeout, which is the only
// blocking the registry admits while locked.
func (r *Roster) Broadcast(sender, text string) {
	frame := []byte(Frame(sender, text))
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, conn := range r.conns {
		if name == sender {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(r.writeTimeout))
		if _, err := conn.Write(frame); err != nil {
			r.logger.Warn("dropped broadcast for peer",
				zap.String("peer", name),
				zap.String("sender", sender),
				zap.Error(err),
			)
		}
	}
}

// Len - number of currently registered members.
func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// Names - copy of the active username set, unordered.
func (r *Roster) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	return names
}

// Frame - formats one broadcast line.
func Frame(sender, text string) string {
	return fmt.Sprintf("[%s]: %s\n", sender, strings.TrimSuffix(text, "\n"))
}
