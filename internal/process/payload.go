package process

import (
	"errors"
	"net/http"
)

var ErrTextRequired = errors.New("field required: text")

// Request is the POST /process payload.
type Request struct {
	// pointer so a missing field can be told apart from ""
	Text *string `json:"text"`
}

// Bind on Request runs after the unmarshalling is complete.
func (p *Request) Bind(r *http.Request) error {
	if p.Text == nil {
		return ErrTextRequired
	}

	return nil
}

type Response struct {
	Result string `json:"result"`
}

func NewResponse(result string) *Response {
	return &Response{Result: result}
}

func (rd *Response) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// StatusResponse is the body of the root and health endpoints.
type StatusResponse struct {
	OK   bool   `json:"ok"`
	Hint string `json:"hint,omitempty"`
}

func (rd *StatusResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
