package protocol

import "github.com/nczempin/httpd-go-uring/transport"

// ProcessConnection handles exactly one request on t and returns. It never
// closes t. A non-nil error means the transport or the served file failed
// part way; the peer may have received a partial response or none.
func (h *Handler) ProcessConnection(t transport.Transport) (Next, error) {
	req, err := h.ReadRequest(t)
	if err != nil {
		return Continue, err
	}

	h.logger.Info("request", "method", req.Method.String(), "status", req.Status, "file", req.Filename)

	switch req.Status {
	case StatusBadRequest:
		return Continue, h.Send400(t)
	case StatusNotFound:
		return Continue, h.Send404(t)
	case StatusOK:
		return Continue, h.Send200(t, req.Filename, req.Method == MethodGet)
	case StatusCreated:
		if err := h.Send201(t); err != nil {
			return Continue, err
		}
		h.persist(req)
		return Continue, nil
	}

	h.logger.Error("unexpected status from request reader", "status", req.Status)
	return Stop, nil
}

// persist creates the uploaded file. Failure is logged only: the 201 has
// already gone out.
func (h *Handler) persist(req Request) {
	var body []byte
	if h.storeBody {
		body = req.Body
	}
	if err := h.dir.Create(req.Filename, body); err != nil {
		h.logger.Error("unable to write file", "name", req.Filename, "error", err)
		return
	}
	h.logger.Debug("created upload", "name", req.Filename, "bytes", len(body))
}
