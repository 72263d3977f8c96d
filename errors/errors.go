package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorFilesystem
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketBindFailure
	TransportErrorSocketAcceptFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorConnectionClosed
	TransportErrorSocketCloseFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorSocketBindFailure:
		return "socket bind failed"
	case TransportErrorSocketAcceptFailure:
		return "socket accept failed"
	case TransportErrorSocketConnectFailure:
		return "socket connect failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorSocketCloseFailure:
		return "socket close failed"
	case TransportErrorIoUringInit:
		return "io_uring initialization failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submission failed"
	default:
		return fmt.Sprintf("transport error %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorMissingContentLength
	ProtocolErrorInvalidContentLength
	ProtocolErrorMessageTooLarge
	ProtocolErrorIncompleteResponse
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorInvalidHeader:
		return "invalid header"
	case ProtocolErrorMissingContentLength:
		return "missing Content-Length"
	case ProtocolErrorInvalidContentLength:
		return "invalid Content-Length"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	case ProtocolErrorIncompleteResponse:
		return "incomplete response"
	default:
		return fmt.Sprintf("protocol error %d", int(e))
	}
}

// FilesystemError represents errors raised while touching the served directory
type FilesystemError int

const (
	FilesystemErrorNone FilesystemError = iota
	FilesystemErrorDirectoryReadFailure
	FilesystemErrorFileReadFailure
	FilesystemErrorFileCreateFailure
	FilesystemErrorFileWriteFailure
	FilesystemErrorInvalidName
)

func (e FilesystemError) String() string {
	switch e {
	case FilesystemErrorDirectoryReadFailure:
		return "directory read failed"
	case FilesystemErrorFileReadFailure:
		return "file read failed"
	case FilesystemErrorFileCreateFailure:
		return "file create failed"
	case FilesystemErrorFileWriteFailure:
		return "file write failed"
	case FilesystemErrorInvalidName:
		return "invalid file name"
	default:
		return fmt.Sprintf("filesystem error %d", int(e))
	}
}

// HttpError is the main error type for the server and the client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	FilesystemErr FilesystemError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorFilesystem:
		typeStr = fmt.Sprintf("Filesystem error (%s)", e.FilesystemErr)
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewFilesystemError creates a new filesystem error
func NewFilesystemError(err FilesystemError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorFilesystem,
		FilesystemErr: err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// As returns the first *HttpError in err's chain.
func As(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsConnectionClosed reports whether err means the peer went away.
func IsConnectionClosed(err error) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorTransport &&
		httpErr.TransportErr == TransportErrorConnectionClosed
}

// IsProtocol reports whether err carries the given protocol error.
func IsProtocol(err error, pe ProtocolError) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorProtocol && httpErr.ProtocolErr == pe
}
