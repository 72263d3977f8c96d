package protocol

import (
	"bytes"
	"io"
	"regexp"
	"strconv"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

var (
	headerSeparator  = []byte("\r\n\r\n")
	contentLengthKey = []byte("Content-Length: ")
	lineEnd          = []byte(crlf)

	// Only file<digit>.html and image<digit>.jpg may be requested.
	requestLine = regexp.MustCompile(`^(GET|HEAD) /(file[0-9]\.html|image[0-9]\.jpg) `)
)

// ReadRequest reads one request from t and classifies it. Protocol
// problems are reported through the outcome; the error is only set when
// the transport fails, in which case nothing should be sent back.
func (h *Handler) ReadRequest(t transport.Transport) (Request, error) {
	header, rest, err := h.readHeader(t)
	if err != nil {
		return Request{}, err
	}
	if header == nil {
		h.logger.Warn("request header too large", "limit", maxHeaderSize)
		return Request{Outcome: Outcome{Method: MethodInvalid, Status: StatusBadRequest}}, nil
	}

	h.logger.Debug("read header", "header", string(header))

	method := classify(header)
	switch method {
	case MethodGet, MethodHead:
		return h.resolveFile(method, header), nil
	case MethodPost:
		return h.readUpload(t, header, rest)
	}
	return Request{Outcome: Outcome{Method: MethodInvalid, Status: StatusBadRequest}}, nil
}

// readHeader accumulates bytes until the buffer ends with the header
// terminator. It returns the header, terminator included, and whatever the
// last read delivered past it. A nil header means the size limit was hit.
func (h *Handler) readHeader(t transport.Transport) ([]byte, []byte, error) {
	header := make([]byte, 0, 128)
	chunk := make([]byte, h.chunkSize)

	for {
		n, err := t.Read(chunk)
		if err != nil {
			return nil, nil, err
		}

		for i := 0; i < n; i++ {
			header = append(header, chunk[i])
			if bytes.HasSuffix(header, headerSeparator) {
				return header, chunk[i+1 : n], nil
			}
		}

		if len(header) > maxHeaderSize {
			return nil, nil, nil
		}
	}
}

func classify(header []byte) Method {
	switch {
	case bytes.HasPrefix(header, []byte("GET")):
		return MethodGet
	case bytes.HasPrefix(header, []byte("HEAD")):
		return MethodHead
	case bytes.HasPrefix(header, []byte("POST")):
		return MethodPost
	}
	return MethodInvalid
}

// resolveFile runs the two GET/HEAD validation stages: the name grammar,
// then membership in the allow-listed directory.
func (h *Handler) resolveFile(method Method, header []byte) Request {
	notFound := Request{Outcome: Outcome{Method: method, Status: StatusNotFound}}

	m := requestLine.FindSubmatch(header)
	if m == nil {
		h.logger.Debug("requested path does not match the file name grammar")
		return notFound
	}
	name := string(m[2])

	allowed, err := h.dir.Snapshot()
	if err != nil {
		h.logger.Warn("cannot list allow-listed directory", "dir", h.dir.Root(), "error", err)
		return notFound
	}

	h.logger.Debug("checking allow-list", "name", name, "entries", len(allowed))
	if !allowed.Contains(name) {
		return notFound
	}

	h.logger.Debug("found match", "name", name)
	return Request{
		Outcome:  Outcome{Method: method, Status: StatusOK},
		Filename: name,
	}
}

// readUpload frames the POST body by its Content-Length, using the bytes
// already buffered past the header first, and takes the file name from
// after the first '='.
func (h *Handler) readUpload(t transport.Transport, header, rest []byte) (Request, error) {
	badRequest := Request{Outcome: Outcome{Method: MethodPost, Status: StatusBadRequest}}

	contentLength, err := parseContentLength(header, h.maxBodySize)
	if err != nil {
		h.logger.Error("rejecting upload", "error", err)
		return badRequest, nil
	}
	h.logger.Debug("content length", "bytes", contentLength)

	// One spare byte keeps the C-string view of the body terminated.
	body := make([]byte, contentLength+1)
	filled := copy(body[:contentLength], rest)
	if filled < contentLength {
		if _, err := io.ReadFull(t, body[filled:contentLength]); err != nil {
			return Request{}, err
		}
	}

	body = body[:contentLength]
	if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	h.logger.Debug("body content", "body", string(body))

	eq := bytes.IndexByte(body, '=')
	if eq < 0 {
		h.logger.Error("invalid filename in body", "body", string(body))
		return badRequest, nil
	}

	return Request{
		Outcome:  Outcome{Method: MethodPost, Status: StatusCreated},
		Filename: string(body[eq+1:]),
		Body:     body,
	}, nil
}

// parseContentLength extracts the value of the first "Content-Length: "
// field, up to the following CRLF.
func parseContentLength(header []byte, limit int) (int, error) {
	pos := bytes.Index(header, contentLengthKey)
	if pos < 0 {
		return 0, errors.NewProtocolError(errors.ProtocolErrorMissingContentLength, "POST without Content-Length")
	}

	value := header[pos+len(contentLengthKey):]
	if end := bytes.Index(value, lineEnd); end >= 0 {
		value = value[:end]
	}

	n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
	if err != nil || n < 0 {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidContentLength,
			"bad Content-Length "+strconv.Quote(string(value)),
		)
	}
	if n > limit {
		return 0, errors.NewProtocolError(
			errors.ProtocolErrorMessageTooLarge,
			"Content-Length "+strconv.Itoa(n)+" exceeds "+strconv.Itoa(limit),
		)
	}
	return n, nil
}
