package protocol

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/store"
)

// scriptedTransport replays reads segment by segment. A single Read never
// returns bytes from two segments, like a TCP receive that only has one
// segment queued.
type scriptedTransport struct {
	segments [][]byte
	readErr  error
	writeErr error
	written  bytes.Buffer
	reads    int
	closed   bool
}

func newScriptedTransport(segments ...string) *scriptedTransport {
	s := &scriptedTransport{}
	for _, seg := range segments {
		s.segments = append(s.segments, []byte(seg))
	}
	return s
}

func (s *scriptedTransport) Read(buf []byte) (int, error) {
	s.reads++
	for len(s.segments) > 0 && len(s.segments[0]) == 0 {
		s.segments = s.segments[1:]
	}
	if len(s.segments) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", io.EOF)
	}
	n := copy(buf, s.segments[0])
	s.segments[0] = s.segments[0][n:]
	return n, nil
}

func (s *scriptedTransport) Write(buf []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.written.Write(buf)
}

func (s *scriptedTransport) Close() error {
	s.closed = true
	return nil
}

// setupTestDir creates an allow-listed directory holding files.
func setupTestDir(t *testing.T, files map[string]string) (*store.Dir, string) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
	return store.New(root), root
}

func newTestHandler(t *testing.T, files map[string]string, opts Options) (*Handler, string) {
	t.Helper()

	dir, root := setupTestDir(t, files)
	return NewHandler(dir, opts), root
}
