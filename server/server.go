// Package server owns the listening socket and the sequential accept loop
// that hands one connection at a time to a protocol.Handler.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
	"golang.org/x/sys/unix"
)

const maxPort = 65535

// Listen binds a TCP listener on host, starting at port and moving to the
// next port while the current one is in use. Port 0 lets the kernel pick.
func Listen(host string, port int) (net.Listener, error) {
	for {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
		if !stderrors.Is(err, unix.EADDRINUSE) || port == 0 || port >= maxPort {
			return nil, errors.NewTransportError(
				errors.TransportErrorSocketBindFailure,
				"unable to bind port "+strconv.Itoa(port),
				err,
			)
		}
		port++
	}
}

// ListenUnix binds a unix domain stream socket at path, replacing a stale
// socket file left by an earlier run.
func ListenUnix(path string) (net.Listener, error) {
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		os.Remove(path)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			"unable to bind "+path,
			err,
		)
	}
	return ln, nil
}

// Port returns the TCP port ln is bound to, or 0 for other listeners
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Options tunes a Server
type Options struct {
	Transport transport.Kind
	// FailFast makes Serve return on the first transport or file error.
	// Otherwise the connection is dropped and the loop continues.
	FailFast bool
	Logger   *slog.Logger
}

// Server runs the accept loop. Connections are processed strictly one after
// another, which is what keeps concurrent uploads of the same name apart.
type Server struct {
	listener net.Listener
	handler  *protocol.Handler
	kind     transport.Kind
	failFast bool
	logger   *slog.Logger

	mu     sync.Mutex
	active net.Conn
}

// New creates a server accepting on ln
func New(ln net.Listener, h *protocol.Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		listener: ln,
		handler:  h,
		kind:     opts.Transport,
		failFast: opts.FailFast,
		logger:   logger,
	}
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts and processes connections until ctx is cancelled, the
// handler asks to stop, or an error is fatal under the configured policy.
// Cancellation closes the listener and the in-flight connection; Serve then
// returns nil.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.listener.Close()
		s.closeActive()
	})
	defer stop()
	defer s.listener.Close()

	for {
		s.logger.Debug("waiting for a connection", "addr", s.listener.Addr().String())
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.NewTransportError(
				errors.TransportErrorSocketAcceptFailure,
				"failed to accept connection",
				err,
			)
		}

		next, err := s.serveConn(ctx, conn)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if next == protocol.Stop {
			s.logger.Error("handler asked to stop serving")
			return nil
		}
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) (protocol.Next, error) {
	s.setActive(conn)
	defer s.setActive(nil)

	remote := conn.RemoteAddr().String()
	s.logger.Debug("received connection", "remote", remote)

	t, err := transport.New(s.kind, conn)
	if err != nil {
		conn.Close()
		return s.connectionFailed(ctx, remote, err)
	}
	defer func() {
		s.logger.Debug("closing connection", "remote", remote)
		t.Close()
	}()

	next, err := s.handler.ProcessConnection(t)
	if err == nil {
		return next, nil
	}
	return s.connectionFailed(ctx, remote, err)
}

// connectionFailed applies the error policy to a failed connection.
func (s *Server) connectionFailed(ctx context.Context, remote string, err error) (protocol.Next, error) {
	switch {
	case ctx.Err() != nil:
		return protocol.Stop, nil
	case errors.IsConnectionClosed(err):
		s.logger.Warn("peer closed the connection", "remote", remote, "error", err)
		return protocol.Continue, nil
	case s.failFast:
		s.logger.Error("connection failed", "remote", remote, "error", err)
		return protocol.Stop, err
	}

	s.logger.Error("dropping connection", "remote", remote, "error", err)
	return protocol.Continue, nil
}

func (s *Server) setActive(conn net.Conn) {
	s.mu.Lock()
	s.active = conn
	s.mu.Unlock()
}

func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Close()
	}
}
