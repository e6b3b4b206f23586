package client

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Dial - connects to host:port and returns the socket switched to
// non-blocking mode, ready for the event loop. The connect itself is
// blocking; readiness handling starts once the session is established.
func Dial(host, port string) (fd int, err error) {
	addr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(host, port))
	if err != nil {
		return -1, fmt.Errorf("client: resolve %s:%s: %w", host, port, err)
	}
	ip := addr.IP.To4()
	if ip == nil {
		return -1, fmt.Errorf("client: no IPv4 address for %s", host)
	}

	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("client: socket: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: addr.Port}
	copy(sa.Addr[:], ip)
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("client: connect %s:%d: %w", ip, addr.Port, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("client: set nonblock: %w", err)
	}
	return fd, nil
}
