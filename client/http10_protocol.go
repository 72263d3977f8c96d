package client

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

var (
	headerSeparator  = []byte("\r\n\r\n")
	contentLengthKey = []byte("content-length:")
)

// http10Protocol speaks one HTTP/1.0 exchange over a transport: the server
// closes the connection after the response.
type http10Protocol struct {
	transport     transport.Transport
	buffer        []byte
	headerSize    int
	contentLength int
	expectBody    bool
}

func newHttp10Protocol(t transport.Transport) *http10Protocol {
	return &http10Protocol{
		transport:     t,
		buffer:        make([]byte, 0, 1024),
		contentLength: -1,
	}
}

// buildRequest formats an HTTP request into the internal buffer
func (p *http10Protocol) buildRequest(req *Request) {
	p.buffer = p.buffer[:0]

	// Request line
	p.buffer = append(p.buffer, fmt.Sprintf("%s %s HTTP/1.0\r\n", req.Method, req.Path)...)

	// Headers
	for _, header := range req.Headers {
		p.buffer = append(p.buffer, fmt.Sprintf("%s: %s\r\n", header.Key, header.Value)...)
	}

	// Blank line
	p.buffer = append(p.buffer, "\r\n"...)

	p.buffer = append(p.buffer, req.Body...)
}

// readFullResponse reads until the declared body is complete or the server
// closes the connection
func (p *http10Protocol) readFullResponse() error {
	p.buffer = p.buffer[:0]
	p.headerSize = 0
	p.contentLength = -1

	readBuf := make([]byte, 1024)

	for {
		n, err := p.transport.Read(readBuf)
		if err != nil {
			if errors.IsConnectionClosed(err) {
				if p.expectBody && p.contentLength >= 0 && len(p.buffer) < p.headerSize+p.contentLength {
					return errors.NewProtocolError(
						errors.ProtocolErrorIncompleteResponse,
						"connection closed before complete response received",
					)
				}
				break
			}
			return err
		}

		p.buffer = append(p.buffer, readBuf[:n]...)

		// Look for header separator if we haven't found it yet
		if p.headerSize == 0 {
			if pos := bytes.Index(p.buffer, headerSeparator); pos >= 0 {
				p.headerSize = pos + len(headerSeparator)
				p.contentLength = parseContentLength(p.buffer[:p.headerSize])
			}
		}

		if p.headerSize > 0 && !p.expectBody {
			break
		}
		if p.contentLength >= 0 && len(p.buffer) >= p.headerSize+p.contentLength {
			break
		}
	}

	if p.headerSize == 0 {
		return errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"failed to parse HTTP response headers",
		)
	}

	return nil
}

// parseContentLength extracts Content-Length from headers, -1 if absent
func parseContentLength(headersView []byte) int {
	lines := bytes.Split(headersView, []byte("\n"))
	for _, line := range lines[1:] { // Skip status line
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}

		if bytes.HasPrefix(bytes.ToLower(line), contentLengthKey) {
			valueStr := strings.TrimSpace(string(line[len(contentLengthKey):]))
			if length, err := strconv.Atoi(valueStr); err == nil {
				return length
			}
		}
	}
	return -1
}

// parseResponse parses the buffer into a Response that owns its memory
func (p *http10Protocol) parseResponse() (*Response, error) {
	headersBlock := p.buffer[:p.headerSize-len(headerSeparator)]

	// Split into status line and rest of headers
	parts := bytes.SplitN(headersBlock, []byte("\n"), 2)
	statusLine := bytes.TrimSuffix(parts[0], []byte("\r"))

	// Parse status line: "HTTP/1.0 200 OK"
	statusParts := bytes.SplitN(statusLine, []byte(" "), 3)
	if len(statusParts) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"invalid status line format",
		)
	}

	statusCode, err := strconv.Atoi(string(statusParts[1]))
	if err != nil {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status code: %s", statusParts[1]),
		)
	}

	statusMessage := ""
	if len(statusParts) >= 3 {
		statusMessage = string(statusParts[2])
	}

	var headers []Header
	if len(parts) > 1 {
		for _, line := range bytes.Split(parts[1], []byte("\n")) {
			line = bytes.TrimSuffix(line, []byte("\r"))
			if len(line) == 0 {
				break
			}

			headerParts := bytes.SplitN(line, []byte(":"), 2)
			if len(headerParts) != 2 {
				return nil, errors.NewProtocolError(
					errors.ProtocolErrorInvalidHeader,
					fmt.Sprintf("malformed header line: %q", line),
				)
			}
			headers = append(headers, Header{
				Key:   string(headerParts[0]),
				Value: strings.TrimSpace(string(headerParts[1])),
			})
		}
	}

	var body []byte
	switch {
	case !p.expectBody:
	case p.contentLength >= 0:
		body = bytes.Clone(p.buffer[p.headerSize : p.headerSize+p.contentLength])
	default:
		body = bytes.Clone(p.buffer[p.headerSize:])
	}

	return &Response{
		StatusCode:    statusCode,
		StatusMessage: statusMessage,
		Headers:       headers,
		Body:          body,
		ContentLength: p.contentLength,
	}, nil
}

// perform sends req and reads the response
func (p *http10Protocol) perform(req *Request) (*Response, error) {
	p.buildRequest(req)
	p.expectBody = req.Method != "HEAD"

	if _, err := p.transport.Write(p.buffer); err != nil {
		return nil, err
	}

	if err := p.readFullResponse(); err != nil {
		return nil, err
	}

	return p.parseResponse()
}
