// Package config holds the server settings that come from command-line
// flags and builds the logger they describe.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/store"
	"github.com/nczempin/httpd-go-uring/transport"
)

// DefaultPort is the first port tried when binding
const DefaultPort = 1025

// Config holds all server settings
type Config struct {
	LogLevel    int    // 0 errors, 1 warnings, 2 info, 3+ debug
	Host        string // bind host, empty for all interfaces
	Port        int    // first port to try; the next free one is used if taken
	Network     string // "tcp" or "unix"
	SocketPath  string // unix socket path when Network is "unix"
	Dir         string // allow-listed directory
	ChunkSize   int    // bytes per read/write call
	Transport   transport.Kind
	MaxBodySize int  // largest accepted upload Content-Length
	FailFast    bool // stop serving on transport or file errors
	StoreBody   bool // write upload bodies instead of creating empty files
}

// Default returns the settings used when no flags are given
func Default() Config {
	return Config{
		Port:        DefaultPort,
		Network:     "tcp",
		Dir:         store.DefaultRoot,
		ChunkSize:   protocol.DefaultChunkSize,
		Transport:   transport.KindNet,
		MaxBodySize: protocol.DefaultMaxBodySize,
		FailFast:    true,
	}
}

// Parse reads flags from args (without the program name). Usage and flag
// errors go to output.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	cfg := Default()
	var kind string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.LogLevel, "d", cfg.LogLevel, "log level: 0 errors, 1 warnings, 2 info, 3 debug")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "first port to try")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "listen network: tcp or unix")
	fs.StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "unix socket path")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "allow-listed directory")
	fs.IntVar(&cfg.ChunkSize, "chunk", cfg.ChunkSize, "bytes per read/write call")
	fs.StringVar(&kind, "transport", string(cfg.Transport), "connection I/O: net, uring or uring2")
	fs.IntVar(&cfg.MaxBodySize, "max-body", cfg.MaxBodySize, "largest accepted upload body")
	fs.BoolVar(&cfg.FailFast, "failfast", cfg.FailFast, "stop on transport or file errors")
	fs.BoolVar(&cfg.StoreBody, "store-body", cfg.StoreBody, "write upload bodies to disk")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.NewInvalidArgumentError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}

	k, err := transport.ParseKind(kind)
	if err != nil {
		return Config{}, err
	}
	cfg.Transport = k

	return cfg, cfg.Validate()
}

// Validate checks the settings for consistency
func (c Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return errors.NewInvalidArgumentError("chunk size must be positive")
	case c.MaxBodySize <= 0:
		return errors.NewInvalidArgumentError("max body size must be positive")
	case c.Dir == "":
		return errors.NewInvalidArgumentError("directory must not be empty")
	case c.Port < 0 || c.Port > 65535:
		return errors.NewInvalidArgumentError(fmt.Sprintf("port %d out of range", c.Port))
	}

	switch c.Network {
	case "tcp":
	case "unix":
		if c.SocketPath == "" {
			return errors.NewInvalidArgumentError("unix network needs -socket")
		}
		if c.Transport != transport.KindNet {
			return errors.NewInvalidArgumentError("io_uring transports only serve tcp")
		}
	default:
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown network %q", c.Network))
	}
	return nil
}

// Level maps the numeric verbosity onto a slog level
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewLogger builds a text logger writing to w at the given verbosity
func NewLogger(w io.Writer, verbosity int) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     Level(verbosity),
		AddSource: verbosity >= 3,
	}))
}

// HandlerOptions translates the settings into protocol options
func (c Config) HandlerOptions(logger *slog.Logger) protocol.Options {
	return protocol.Options{
		ChunkSize:   c.ChunkSize,
		MaxBodySize: c.MaxBodySize,
		StoreBody:   c.StoreBody,
		Logger:      logger,
	}
}
