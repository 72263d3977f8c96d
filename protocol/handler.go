package protocol

import (
	"io"
	"log/slog"

	"github.com/nczempin/httpd-go-uring/store"
)

const (
	// DefaultChunkSize is the number of bytes moved per read or write call.
	// It only changes the number of calls, never the result.
	DefaultChunkSize = 10

	// DefaultMaxBodySize bounds the Content-Length of an upload.
	DefaultMaxBodySize = 1 << 20

	// maxHeaderSize bounds the header accumulation buffer.
	maxHeaderSize = 64 << 10
)

// Options tunes a Handler
type Options struct {
	ChunkSize   int
	MaxBodySize int
	// StoreBody writes the upload body into the created file. When false
	// the file is created empty.
	StoreBody bool
	Logger    *slog.Logger
}

// Handler reads, answers and completes one connection at a time against
// an allow-listed directory.
type Handler struct {
	dir         *store.Dir
	chunkSize   int
	maxBodySize int
	storeBody   bool
	logger      *slog.Logger
}

// NewHandler creates a handler serving dir
func NewHandler(dir *store.Dir, opts Options) *Handler {
	h := &Handler{
		dir:         dir,
		chunkSize:   opts.ChunkSize,
		maxBodySize: opts.MaxBodySize,
		storeBody:   opts.StoreBody,
		logger:      opts.Logger,
	}
	if h.chunkSize <= 0 {
		h.chunkSize = DefaultChunkSize
	}
	if h.maxBodySize <= 0 {
		h.maxBodySize = DefaultMaxBodySize
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h
}
