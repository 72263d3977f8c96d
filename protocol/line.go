package protocol

import "github.com/nczempin/httpd-go-uring/transport"

const crlf = "\r\n"

// SendLine writes line followed by CRLF. The line must not carry its own
// terminator.
func SendLine(t transport.Transport, line string) error {
	_, err := t.Write([]byte(line + crlf))
	return err
}

// sendLines writes each line in order and stops at the first failure.
func sendLines(t transport.Transport, lines ...string) error {
	for _, line := range lines {
		if err := SendLine(t, line); err != nil {
			return err
		}
	}
	return nil
}
