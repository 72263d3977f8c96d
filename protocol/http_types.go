package protocol

// Method is the request method as classified from the header's first bytes
type Method int

const (
	MethodInvalid Method = iota
	MethodGet
	MethodHead
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	default:
		return "INVALID"
	}
}

// Status codes the server can produce
const (
	StatusOK         = 200
	StatusCreated    = 201
	StatusBadRequest = 400
	StatusNotFound   = 404
)

// Outcome is the classification of one request. It is produced once per
// connection and never modified afterwards.
type Outcome struct {
	Method Method
	Status int
}

// Request is everything the reader extracted from one connection.
// Filename is empty unless Status is 200 or 201. Body is only set for
// accepted uploads.
type Request struct {
	Outcome
	Filename string
	Body     []byte
}

// Next tells the accept loop whether to keep going after a connection
type Next int

const (
	Continue Next = iota
	Stop
)
