package client

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestFlush_PartialWriteResumption saturates a shrunk send buffer so writes
// are accepted in pieces, then checks the frame is reassembled byte-exact
// on the peer: no duplication, no loss.
func TestFlush_PartialWriteResumption(t *testing.T) {
	sock, peer := pair(t)
	require.NoError(t, unix.SetNonblock(peer, true))
	unix.SetsockoptInt(sock, unix.SOL_SOCKET, unix.SO_SNDBUF, 4096)
	unix.SetsockoptInt(peer, unix.SOL_SOCKET, unix.SO_RCVBUF, 4096)

	loop := New(sock, -1, "alice", io.Discard, nil)

	frame := append(bytes.Repeat([]byte{'x'}, 256<<10), '\n')
	loop.stage(string(frame))

	received := make([]byte, 0, len(frame))
	drain := func() {
		buf := make([]byte, 8192)
		for {
			n, err := unix.Read(peer, buf)
			if err == unix.EAGAIN {
				return
			}
			require.NoError(t, err)
			received = append(received, buf[:n]...)
		}
	}

	attempts := 0
	for len(loop.pending) > 0 {
		require.NoError(t, loop.flush())
		attempts++
		drain()
		require.Less(t, attempts, 10000, "flush made no progress")
	}
	drain()

	assert.Greater(t, attempts, 1, "expected the frame to need several write attempts")
	assert.Equal(t, len(frame), len(received))
	assert.True(t, bytes.Equal(frame, received))
	assert.Zero(t, loop.written)
	assert.True(t, loop.handshakeSent)
}

func TestFlush_FatalWriteError(t *testing.T) {
	loop := New(-1, -1, "alice", io.Discard, nil)
	loop.stage("hi\n")
	assert.Error(t, loop.flush())
}

func TestReadSocket_TrimsAndDecodesLossy(t *testing.T) {
	sock, peer := pair(t)
	out := newSyncBuffer()
	loop := New(sock, -1, "alice", out, nil)

	_, err := unix.Write(peer, append([]byte("[bob]: caf\xc3\xa9 \xff\n"), []byte("[bob]: two\n")...))
	require.NoError(t, err)

	closed, err := loop.readSocket()
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Contains(t, out.String(), "café")
	assert.Contains(t, out.String(), "�")
	assert.Contains(t, out.String(), "[bob]: two")
}

func TestReadSocket_PeerClosed(t *testing.T) {
	sock, peer := pair(t)
	loop := New(sock, -1, "alice", io.Discard, nil)

	require.NoError(t, unix.Shutdown(peer, unix.SHUT_WR))
	closed, err := loop.readSocket()
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestReadSocket_WouldBlockIsNotAnError(t *testing.T) {
	sock, _ := pair(t)
	loop := New(sock, -1, "alice", io.Discard, nil)

	closed, err := loop.readSocket()
	require.NoError(t, err)
	assert.False(t, closed)
}
