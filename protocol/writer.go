package protocol

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Send400 sends the complete 400 response
func (h *Handler) Send400(t transport.Transport) error {
	return sendLines(t,
		"HTTP/1.0 400 Bad Request",
		"",
	)
}

// Send404 sends the complete 404 response, header and body. The body is the
// single line "File not found." with no further empty line after it, which
// is one CRLF shorter than what older builds of this server sent.
func (h *Handler) Send404(t transport.Transport) error {
	return sendLines(t,
		"HTTP/1.0 404 Not Found",
		"content-type: text/html",
		"",
		"File not found.",
	)
}

// Send201 sends the 201 response. Persisting the upload is the caller's job.
func (h *Handler) Send201(t transport.Transport) error {
	return sendLines(t,
		"HTTP/1.0 201 Created",
		"",
	)
}

// Send200 sends the header for name and, when sendBody is set, the file
// itself. A file that cannot be stat'ed or opened is answered with 404.
func (h *Handler) Send200(t transport.Transport, name string, sendBody bool) error {
	f, info, err := h.dir.Open(name)
	if err != nil {
		h.logger.Debug("cannot open file, sending 404", "name", name, "error", err)
		return h.Send404(t)
	}
	defer f.Close()

	size := info.Size()
	h.logger.Debug("sending the header", "name", name, "size", size)
	if err := sendLines(t,
		"HTTP/1.0 200 OK",
		"content-type: "+contentType(name),
		"content-length: "+strconv.FormatInt(size, 10),
		"",
	); err != nil {
		return err
	}

	if !sendBody {
		return nil
	}

	h.logger.Debug("sending the file", "name", name)
	return h.streamFile(t, f, size)
}

// streamFile copies exactly size bytes from r to t, one chunk per write.
func (h *Handler) streamFile(t transport.Transport, r io.Reader, size int64) error {
	buf := make([]byte, h.chunkSize)
	var sent int64

	for sent < size {
		want := buf
		if remaining := size - sent; remaining < int64(len(want)) {
			want = want[:remaining]
		}

		n, err := r.Read(want)
		if n > 0 {
			if _, werr := t.Write(want[:n]); werr != nil {
				return werr
			}
			sent += int64(n)
		}

		if err == io.EOF && sent < size {
			return errors.NewFilesystemError(
				errors.FilesystemErrorFileReadFailure,
				"file shrank while sending: "+strconv.FormatInt(sent, 10)+" of "+strconv.FormatInt(size, 10)+" bytes",
				err,
			)
		}
		if err != nil && err != io.EOF {
			return errors.NewFilesystemError(errors.FilesystemErrorFileReadFailure, "unable to read from file", err)
		}
	}

	return nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".html":
		return "text/html"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
