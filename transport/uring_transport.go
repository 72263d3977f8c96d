//go:build linux

package transport

import (
	stderrors "errors"
	"net"
	"os"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
	"golang.org/x/sys/unix"
)

// UringTransport implements Transport using io_uring for async I/O
// on an accepted TCP connection
type UringTransport struct {
	iour   *iouring.IOURing
	file   *os.File
	fd     int
	closed bool
}

// NewUringTransport moves an accepted connection onto an io_uring instance.
// On success the transport owns the socket and conn is closed; on failure
// conn is left untouched.
func NewUringTransport(conn *net.TCPConn) (*UringTransport, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	file, fd, err := detachSocket(conn)
	if err != nil {
		iour.Close()
		return nil, err
	}

	return &UringTransport{
		iour: iour,
		file: file,
		fd:   fd,
	}, nil
}

// detachSocket duplicates the connection's descriptor into a blocking
// *os.File, sets TCP_NODELAY and closes the net.Conn it was given.
func detachSocket(conn *net.TCPConn) (*os.File, int, error) {
	file, err := conn.File()
	if err != nil {
		return nil, -1, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"failed to duplicate socket",
			err,
		)
	}

	fd := int(file.Fd())
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		file.Close()
		return nil, -1, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	conn.Close()
	return file, fd, nil
}

// Write sends data over the connection using io_uring
func (t *UringTransport) Write(buf []byte) (int, error) {
	if t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		prepReq := iouring.Write(t.fd, buf[totalWritten:])
		if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			if stderrors.Is(err, unix.EPIPE) || stderrors.Is(err, unix.ECONNRESET) {
				return totalWritten, errors.NewTransportError(
					errors.TransportErrorConnectionClosed,
					"connection closed during write",
					err,
				)
			}
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (t *UringTransport) Read(buf []byte) (int, error) {
	if t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"connection closed",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Read(t.fd, buf)
	if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		if stderrors.Is(err, unix.ECONNRESET) {
			return 0, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection reset by peer",
				err,
			)
		}
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the socket and releases the io_uring instance
func (t *UringTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var err error
	if cerr := t.file.Close(); cerr != nil {
		err = errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			cerr,
		)
	}
	t.fd = -1
	t.iour.Close()

	return err
}
