//go:build linux

package transport

import (
	stderrors "errors"
	"net"
	"os"

	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/httpd-go-uring/errors"
	"golang.org/x/sys/unix"
)

// UringTransportV2 implements Transport using godzie44/go-uring for async I/O
type UringTransportV2 struct {
	ring *uring.Ring
	file *os.File
}

// NewUringTransportV2 moves an accepted connection onto a go-uring ring.
// Ownership rules match NewUringTransport.
func NewUringTransportV2(conn *net.TCPConn) (*UringTransportV2, error) {
	// Create io_uring instance with queue depth of 32
	ring, err := uring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	file, _, err := detachSocket(conn)
	if err != nil {
		ring.Close()
		return nil, err
	}

	return &UringTransportV2{
		ring: ring,
		file: file,
	}, nil
}

// complete submits one queued operation and waits for its result.
func (t *UringTransportV2) complete(op uring.Operation, what string) (int, error) {
	if err := t.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue "+what+" request",
			err,
		)
	}

	// Submit and wait
	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+what+" request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to wait for "+what+" completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		t.ring.SeenCQE(cqe)
		if stderrors.Is(err, unix.ECONNRESET) || stderrors.Is(err, unix.EPIPE) {
			return 0, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during "+what,
				err,
			)
		}
		return 0, err
	}

	n := int(cqe.Res)
	t.ring.SeenCQE(cqe)
	return n, nil
}

// Write sends data over the connection using io_uring
func (t *UringTransportV2) Write(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.complete(uring.Write(t.file.Fd(), buf[totalWritten:], 0), "write")
		if err != nil {
			if _, ok := errors.As(err); ok {
				return totalWritten, err
			}
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write operation failed",
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
func (t *UringTransportV2) Read(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"connection closed",
			nil,
		)
	}

	n, err := t.complete(uring.Read(t.file.Fd(), buf, 0), "read")
	if err != nil {
		if _, ok := errors.As(err); ok {
			return 0, err
		}
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read operation failed",
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

// Close closes the socket and the ring
func (t *UringTransportV2) Close() error {
	if t.file == nil {
		return nil
	}

	err := t.file.Close()
	t.file = nil
	t.ring.Close()

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	return nil
}
