// Command webserver serves a very limited subset of HTTP/1.0 from ./data.
//
// GET and HEAD are answered for file<digit>.html and image<digit>.jpg that
// exist in the directory; POST creates the file named after the first '='
// of its body. Everything else gets 400. The first free port at or above
// -port is used and printed on stdout. SIGINT or SIGTERM stop the server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/store"
)

// shutdownGrace bounds how long a connection blocked in I/O may delay exit
const shutdownGrace = time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(os.Args[0], args, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: %s -d LOG_LEVEL: %v\n", os.Args[0], err)
		return 1
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ln net.Listener
	if cfg.Network == "unix" {
		ln, err = server.ListenUnix(cfg.SocketPath)
	} else {
		ln, err = server.Listen(cfg.Host, cfg.Port)
	}
	if err != nil {
		logger.Error("cannot listen", "error", err)
		return 1
	}

	if cfg.Network == "unix" {
		fmt.Printf("Using socket: %s\n", cfg.SocketPath)
	} else {
		fmt.Printf("Using port: %d\n", server.Port(ln))
	}

	handler := protocol.NewHandler(store.New(cfg.Dir), cfg.HandlerOptions(logger))
	srv := server.New(ln, handler, server.Options{
		Transport: cfg.Transport,
		FailFast:  cfg.FailFast,
		Logger:    logger,
	})

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("server stopped", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	fmt.Println("Caught signal, exiting program...")
	select {
	case err := <-done:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
	case <-time.After(shutdownGrace):
		logger.Warn("connection still busy at shutdown", "grace", shutdownGrace.String())
	}
	return 0
}
