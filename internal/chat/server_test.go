package chat

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"linechat/internal/chat/roster"
)

// dialMember connects to the server and completes the username handshake.
func dialMember(t *testing.T, addr, name string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	writeLine(t, conn, name)
	return conn
}

func TestServer_BroadcastBetweenMembers(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := roster.New(roster.WithWriteTimeout(time.Second))
	require.NoError(t, err)
	server, err := NewServer(NewHandler(r, nil, 0, nil), nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(listener)
	addr := listener.Addr().String()

	alice := dialMember(t, addr, "alice")
	bob := dialMember(t, addr, "bob")
	require.Eventually(t, func() bool { return r.Len() == 2 }, time.Second, 10*time.Millisecond)

	writeLine(t, alice, "hi")

	line := readLine(t, bufio.NewReader(bob), bob)
	assert.Equal(t, "[alice]: hi\n", line)

	// nothing comes back to the sender
	alice.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 64)
	_, rerr := alice.Read(buf)
	var netErr net.Error
	require.ErrorAs(t, rerr, &netErr)
	assert.True(t, netErr.Timeout())

	writeLine(t, alice, LeaveToken)
	require.Eventually(t, func() bool { return r.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"bob"}, r.Names())

	bob.Close()
	alice.Close()
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)

	server.Shutdown(2 * time.Second)
}

func TestServer_DuplicateNameSecondClientRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := roster.New()
	require.NoError(t, err)
	server, err := NewServer(NewHandler(r, nil, 0, nil), nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(listener)
	addr := listener.Addr().String()

	first := dialMember(t, addr, "alice")
	require.Eventually(t, func() bool { return r.Len() == 1 }, time.Second, 10*time.Millisecond)

	second := dialMember(t, addr, "alice")
	line := readLine(t, bufio.NewReader(second), second)
	assert.Equal(t, "Username is already taken\n", line)
	assert.Equal(t, 1, r.Len())

	first.Close()
	second.Close()
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)

	server.Shutdown(2 * time.Second)
}

func TestServer_ShutdownClosesListener(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := roster.New()
	require.NoError(t, err)
	server, err := NewServer(NewHandler(r, nil, 0, nil), nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan struct{})
	go func() {
		defer close(served)
		server.Serve(listener)
	}()

	server.Shutdown(2 * time.Second)

	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	_, err = net.Dial("tcp", listener.Addr().String())
	assert.Error(t, err)
}
