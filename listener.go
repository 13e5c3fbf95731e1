package webserv

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// listener is a non-blocking, raw-fd TCP listener. Binding goes through
// net.Listen (for its dual-stack and address-resolution correctness);
// the resulting socket's file descriptor is then extracted and handed to
// the poll set directly, bypassing Go's own runtime netpoller, since the
// whole point of the multiplexer is to drive its own single-threaded,
// poll()-based event loop (spec.md §4.4).
type listener struct {
	fd   int
	port int
}

// newListener binds a TCP listener on iface:port and returns it configured
// for non-blocking accept with TCP keep-alive enabled.
func newListener(iface string, port int) (*listener, error) {
	addr := addrFor(iface, port)

	nl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	tl, ok := nl.(*net.TCPListener)
	if !ok {
		nl.Close()
		return nil, fmt.Errorf("webserv: %s did not yield a TCP listener", addr)
	}

	f, err := tl.File()
	if err != nil {
		tl.Close()
		return nil, err
	}
	defer f.Close()

	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		tl.Close()
		return nil, err
	}

	tl.Close() // the dup above keeps the socket alive under fd

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)

	return &listener{fd: fd, port: port}, nil
}

// addrFor builds a net.Listen address string from an nginx-style interface
// (which may be empty or "*", meaning "all interfaces") and a port.
func addrFor(iface string, port int) string {
	if iface == "" || iface == "*" {
		return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	}
	return net.JoinHostPort(iface, strconv.Itoa(port))
}

// Accept accepts one pending connection as a non-blocking fd, or returns
// unix.EAGAIN if none is pending.
func (l *listener) Accept() (connFD int, remoteAddr string, err error) {
	nfd, sa, err := unix.Accept(l.fd)
	if err != nil {
		return -1, "", err
	}

	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return -1, "", err
	}
	unix.SetsockoptInt(nfd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)

	return nfd, sockaddrString(sa), nil
}

// Close closes the listening socket.
func (l *listener) Close() error {
	return unix.Close(l.fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%x]:%d", a.Addr, a.Port)
	default:
		return "unknown"
	}
}
