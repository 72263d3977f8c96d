package transport

import (
	stderrors "errors"
	"io"
	"net"
	"syscall"

	"github.com/nczempin/httpd-go-uring/errors"
)

// TcpTransport implements the Transport interface over a net.Conn.
// It serves TCP and unix domain stream sockets alike.
type TcpTransport struct {
	conn net.Conn
}

// NewTcpTransport wraps an established connection
func NewTcpTransport(conn net.Conn) *TcpTransport {
	return &TcpTransport{
		conn: conn,
	}
}

// Dial connects to addr over network and wraps the connection.
func Dial(network, addr string) (*TcpTransport, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"failed to connect to "+addr,
			err,
		)
	}

	// Disable Nagle's algorithm for lower latency
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, errors.NewTransportError(
				errors.TransportErrorSocketConnectFailure,
				"failed to set TCP_NODELAY",
				err,
			)
		}
	}

	return NewTcpTransport(conn), nil
}

// Write sends all of buf over the connection
func (t *TcpTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "write failed", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	return n, nil
}

// Read receives data from the connection
func (t *TcpTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	}

	return n, nil
}

// Close closes the connection
func (t *TcpTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "close failed", err)
	}

	return nil
}

// RemoteAddr returns the peer address, or nil once closed
func (t *TcpTransport) RemoteAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}
