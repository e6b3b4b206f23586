// Package gateway exposes the chat room over websocket. Each upgraded
// connection is adapted to a net.Conn and served by the ordinary chat
// handler, so websocket members follow the same handshake and broadcast
// contract as TCP ones.
package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler - serves one member connection; satisfied by chat.Handler.
type Handler interface {
	Serve(net.Conn)
}

// Server - HTTP front door upgrading /ws requests into chat sessions.
type Server struct {
	upgrader websocket.Upgrader
	handler  Handler
	logger   *zap.Logger
	httpSrv  *http.Server
}

// New - builds a gateway around the given connection handler.
func New(handler Handler, logger *zap.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("gateway.New: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handler: handler,
		logger:  logger,
	}, nil
}

// Routes - the gateway HTTP handler, exposed separately for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// ListenAndServe - serves websocket upgrades on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.Routes()}
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown - stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	s.logger.Debug("websocket member connected", zap.String("remote", r.RemoteAddr))
	s.handler.Serve(newConn(ws))
}
