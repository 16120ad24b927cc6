package graph

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response follows the GraphQL over HTTP result shape. A request error
// (parse, validation, variable coercion) carries no data key at all.
type Response struct {
	Data   json.RawMessage
	Errors gqlerror.List

	requestError bool
}

func requestErrorResponse(errs gqlerror.List) *Response {
	return &Response{Errors: errs, requestError: true}
}

// IsRequestError reports whether execution never started.
func (r *Response) IsRequestError() bool {
	return r.requestError
}

func (r *Response) MarshalJSON() ([]byte, error) {
	if r.requestError {
		return json.Marshal(struct {
			Errors gqlerror.List `json:"errors"`
		}{Errors: r.Errors})
	}
	return json.Marshal(struct {
		Data   json.RawMessage `json:"data"`
		Errors gqlerror.List   `json:"errors,omitempty"`
	}{Data: r.Data, Errors: r.Errors})
}

// RequestError builds the response for a request rejected before its
// document could be parsed, such as a malformed JSON body.
func RequestError(code, message string) *Response {
	return requestErrorResponse(gqlerror.List{newError(code, message, nil)})
}
