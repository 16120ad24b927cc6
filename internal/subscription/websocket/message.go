// Package websocket implements the graphql-transport-ws protocol on top of
// gorilla/websocket.
package websocket

import (
	"encoding/json"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AlibekovAA/postgraph/internal/graph"
)

const Subprotocol = "graphql-transport-ws"

type MessageType string

const (
	TypeConnectionInit MessageType = "connection_init"
	TypeConnectionAck  MessageType = "connection_ack"
	TypePing           MessageType = "ping"
	TypePong           MessageType = "pong"
	TypeSubscribe      MessageType = "subscribe"
	TypeNext           MessageType = "next"
	TypeError          MessageType = "error"
	TypeComplete       MessageType = "complete"
)

// Close codes defined by the protocol.
const (
	CloseBadRequest          = 4400
	CloseUnauthorized        = 4401
	CloseInitTimeout         = 4408
	CloseSubscriberExists    = 4409
	CloseTooManyInitRequests = 4429
	CloseInternalServerError = 4500
)

type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outgoing keeps the payload typed until it is marshalled by the writer.
type outgoing struct {
	ID      string      `json:"id,omitempty"`
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

type SubscribePayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func (p SubscribePayload) request() graph.Request {
	return graph.Request{
		Query:         p.Query,
		OperationName: p.OperationName,
		Variables:     p.Variables,
	}
}

func nextMessage(id string, resp *graph.Response) outgoing {
	return outgoing{ID: id, Type: TypeNext, Payload: resp}
}

func errorMessage(id string, errs gqlerror.List) outgoing {
	return outgoing{ID: id, Type: TypeError, Payload: errs}
}

func completeMessage(id string) outgoing {
	return outgoing{ID: id, Type: TypeComplete}
}

// authorizationFromInit accepts the common spellings clients use for the
// credential in the connection_init payload.
func authorizationFromInit(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"Authorization", "authorization", "authToken", "token"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return asBearer(v)
		}
	}
	if headers, ok := fields["headers"].(map[string]any); ok {
		if v, ok := headers["Authorization"].(string); ok && v != "" {
			return asBearer(v)
		}
	}
	return ""
}

func asBearer(v string) string {
	if strings.HasPrefix(v, "Bearer ") {
		return v
	}
	return "Bearer " + v
}
