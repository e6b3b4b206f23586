package gateway

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// conn adapts a websocket connection to the byte-stream contract the chat
// handler expects: every inbound message surfaces as a newline-terminated
// chunk, every outbound write leaves as one text message.
type conn struct {
	ws   *websocket.Conn
	rbuf []byte
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (c *conn) Read(p []byte) (int, error) {
	for len(c.rbuf) == 0 {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			// any websocket-level failure ends the stream for the handler
			return 0, io.EOF
		}
		c.rbuf = append(c.rbuf, msg...)
		if len(msg) == 0 || msg[len(msg)-1] != '\n' {
			c.rbuf = append(c.rbuf, '\n')
		}
	}
	n := copy(p, c.rbuf)
	c.rbuf = c.rbuf[n:]
	return n, nil
}

func (c *conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, bytes.TrimRight(p, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *conn) Close() error {
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

func (c *conn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *conn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *conn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
