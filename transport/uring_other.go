//go:build !linux

package transport

import (
	"net"

	"github.com/nczempin/httpd-go-uring/errors"
)

// UringTransport is only available on linux
type UringTransport struct{ TcpTransport }

// UringTransportV2 is only available on linux
type UringTransportV2 struct{ TcpTransport }

func NewUringTransport(conn *net.TCPConn) (*UringTransport, error) {
	return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring requires linux", nil)
}

func NewUringTransportV2(conn *net.TCPConn) (*UringTransportV2, error) {
	return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring requires linux", nil)
}
