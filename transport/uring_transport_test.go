//go:build linux

package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// acceptTCP returns both ends of a loopback TCP connection.
func acceptTCP(t *testing.T) (*net.TCPConn, net.Conn) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- conn
	}()

	peer, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	conn := <-accepted
	if conn == nil {
		peer.Close()
		t.Fatal("Accept failed")
	}
	return conn.(*net.TCPConn), peer
}

// skipWithoutUring skips when the kernel or sandbox refuses io_uring.
func skipWithoutUring(t *testing.T, err error) {
	t.Helper()

	if httpErr, ok := errors.As(err); ok && httpErr.TransportErr == errors.TransportErrorIoUringInit {
		t.Skipf("io_uring unavailable: %v", err)
	}
}

func exerciseTransport(t *testing.T, tr Transport, peer net.Conn) {
	t.Helper()

	request := "GET /file1.html HTTP/1.0\r\n\r\n"
	go peer.Write([]byte(request))

	buf := make([]byte, len(request))
	if _, err := io.ReadFull(tr, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != request {
		t.Errorf("Expected %q, got %q", request, buf)
	}

	response := "HTTP/1.0 400 Bad Request\r\n\r\n"
	if _, err := tr.Write([]byte(response)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	peer.SetReadDeadline(time.Now().Add(time.Second))
	got := make([]byte, len(response))
	if _, err := io.ReadFull(peer, got); err != nil {
		t.Fatalf("Peer read failed: %v", err)
	}
	if string(got) != response {
		t.Errorf("Expected %q, got %q", response, got)
	}

	peer.Close()
	_, err := tr.Read(make([]byte, 16))
	if !errors.IsConnectionClosed(err) {
		t.Errorf("Expected ConnectionClosed after peer close, got %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

// exerciseReset checks that a peer reset surfaces as ConnectionClosed on
// both directions.
func exerciseReset(t *testing.T, tr Transport, peer net.Conn) {
	t.Helper()
	defer tr.Close()

	peer.(*net.TCPConn).SetLinger(0)
	peer.Close()

	_, err := tr.Read(make([]byte, 16))
	if !errors.IsConnectionClosed(err) {
		t.Errorf("Expected ConnectionClosed on read after reset, got %v", err)
	}

	_, err = tr.Write([]byte("HTTP/1.0 400 Bad Request\r\n\r\n"))
	if !errors.IsConnectionClosed(err) {
		t.Errorf("Expected ConnectionClosed on write after reset, got %v", err)
	}
}

func TestUringTransport_RoundTrip(t *testing.T) {
	conn, peer := acceptTCP(t)
	defer peer.Close()

	tr, err := NewUringTransport(conn)
	skipWithoutUring(t, err)
	if err != nil {
		conn.Close()
		t.Fatalf("NewUringTransport failed: %v", err)
	}

	exerciseTransport(t, tr, peer)
}

func TestUringTransportV2_RoundTrip(t *testing.T) {
	conn, peer := acceptTCP(t)
	defer peer.Close()

	tr, err := NewUringTransportV2(conn)
	skipWithoutUring(t, err)
	if err != nil {
		conn.Close()
		t.Fatalf("NewUringTransportV2 failed: %v", err)
	}

	exerciseTransport(t, tr, peer)
}

func TestNew_UringKinds(t *testing.T) {
	for _, kind := range []Kind{KindUring, KindUring2} {
		conn, peer := acceptTCP(t)

		tr, err := New(kind, conn)
		skipWithoutUring(t, err)
		if err != nil {
			conn.Close()
			peer.Close()
			t.Fatalf("%s: New failed: %v", kind, err)
		}

		exerciseTransport(t, tr, peer)
	}
}

func TestUringTransports_PeerReset(t *testing.T) {
	for _, kind := range []Kind{KindUring, KindUring2} {
		t.Run(string(kind), func(t *testing.T) {
			conn, peer := acceptTCP(t)

			tr, err := New(kind, conn)
			skipWithoutUring(t, err)
			if err != nil {
				conn.Close()
				peer.Close()
				t.Fatalf("New failed: %v", err)
			}

			exerciseReset(t, tr, peer)
		})
	}
}
