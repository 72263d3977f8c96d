package client

import "strings"

// Header represents an HTTP header key-value pair
type Header struct {
	Key   string
	Value string
}

// Request represents an HTTP/1.0 request
type Request struct {
	Method  string
	Path    string
	Headers []Header
	Body    []byte
}

// Response represents an HTTP response. ContentLength is -1 when the server
// did not declare one.
type Response struct {
	StatusCode    int
	StatusMessage string
	Headers       []Header
	Body          []byte
	ContentLength int
}

// Header returns the first value of key, compared case-insensitively
func (r *Response) Header(key string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}
