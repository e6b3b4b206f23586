// Package chat implements the broadcast chat server core: a dispatcher
// accepting connections and a per-connection handler negotiating usernames
// and fanning messages out through the shared roster.
package chat

import (
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"linechat/pkg/background"
)

// Server - accepts connections over any net.Listener and hands each one to
// its own handler goroutine.
type Server struct {
	handler *Handler
	logger  *zap.Logger

	scope  *background.Scope
	cancel func()
}

// NewServer - creates a chat server around the given handler.
func NewServer(handler *Handler, logger *zap.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("chat.NewServer: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	scope, cancel := background.NewScope()
	return &Server{
		handler: handler,
		logger:  logger,
		scope:   scope,
		cancel:  cancel,
	}, nil
}

// Serve - accepts connections until the listener fails permanently or the
// server is shut down. Transient accept errors are logged and the loop
// continues.
func (s *Server) Serve(listener net.Listener) {
	if listener == nil {
		return
	}
	if s.scope.Context().Err() != nil {
		listener.Close()
		return
	}

	s.scope.Add(1)
	go func() {
		defer s.scope.Done()
		<-s.scope.Context().Done()
		listener.Close()
	}()

	s.scope.Add(1)
	defer s.scope.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.scope.Context().Done():
				return
			default:
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		s.logger.Debug("accepted connection", zap.String("remote", conn.RemoteAddr().String()))

		s.scope.Add(1)
		go func() {
			defer s.scope.Done()
			s.handler.Serve(conn)
		}()
	}
}

// Shutdown - stops accepting, waits for running handlers up to the timeout
// and returns the time spent stopping.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()
	done := make(chan struct{})
	go func() {
		s.cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
	return time.Since(from)
}
