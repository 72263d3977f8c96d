package transport

import (
	"fmt"
	"net"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Transport defines the interface for I/O on one accepted connection
type Transport interface {
	// Write sends data to the peer.
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Read receives data from the peer.
	// Returns the number of bytes read
	Read(buf []byte) (int, error)

	// Close closes the connection
	Close() error
}

// Kind selects the I/O engine used for accepted connections
type Kind string

const (
	KindNet    Kind = "net"
	KindUring  Kind = "uring"
	KindUring2 Kind = "uring2"
)

// ParseKind validates a transport name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNet, KindUring, KindUring2:
		return k, nil
	}
	return "", errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", s))
}

// New wraps an accepted connection in a transport of the given kind.
// The io_uring kinds require a TCP connection; they take ownership of conn.
func New(kind Kind, conn net.Conn) (Transport, error) {
	switch kind {
	case KindNet, "":
		return NewTcpTransport(conn), nil
	case KindUring, KindUring2:
		tcpConn, ok := conn.(*net.TCPConn)
		if !ok {
			return nil, errors.NewInvalidArgumentError(
				fmt.Sprintf("transport %q needs a TCP connection, got %T", kind, conn),
			)
		}
		if kind == KindUring {
			t, err := NewUringTransport(tcpConn)
			if err != nil {
				return nil, err
			}
			return t, nil
		}
		t, err := NewUringTransportV2(tcpConn)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", kind))
}
