package client

import (
	"strconv"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

// HttpClient sends one request per connection, HTTP/1.0 style
type HttpClient struct {
	network string
	addr    string
}

// NewHttpClient creates a client for the server at addr on network
// ("tcp" or "unix")
func NewHttpClient(network, addr string) *HttpClient {
	return &HttpClient{
		network: network,
		addr:    addr,
	}
}

// Do dials the server, performs req and closes the connection
func (c *HttpClient) Do(req *Request) (*Response, error) {
	if req.Method == "" || req.Path == "" {
		return nil, errors.NewInvalidArgumentError("request needs a method and a path")
	}

	t, err := transport.Dial(c.network, c.addr)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	return newHttp10Protocol(t).perform(req)
}

// Get performs a GET request
func (c *HttpClient) Get(path string) (*Response, error) {
	return c.Do(&Request{Method: "GET", Path: path})
}

// Head performs a HEAD request
func (c *HttpClient) Head(path string) (*Response, error) {
	return c.Do(&Request{Method: "HEAD", Path: path})
}

// Post performs a POST request, adding Content-Length unless present
func (c *HttpClient) Post(path string, headers []Header, body []byte) (*Response, error) {
	hasContentLength := false
	for _, header := range headers {
		if strings.EqualFold(header.Key, "Content-Length") {
			hasContentLength = true
			break
		}
	}
	if !hasContentLength {
		headers = append(headers, Header{Key: "Content-Length", Value: strconv.Itoa(len(body))})
	}
	return c.Do(&Request{Method: "POST", Path: path, Headers: headers, Body: body})
}

// Upload asks the server to create name in its directory
func (c *HttpClient) Upload(name string) (*Response, error) {
	return c.Post("/", nil, []byte("name="+name))
}
