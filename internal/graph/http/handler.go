package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"

	commonhttp "github.com/AlibekovAA/postgraph/internal/common/http"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/graph"
)

const Path = "/graphql"

type Config struct {
	EnablePlayground bool
	RequestTimeout   time.Duration
}

// Handler serves GraphQL over HTTP on a single path: POST and GET
// operations, the GraphiQL page for browsers and the WebSocket upgrade for
// subscriptions.
type Handler struct {
	exec       *graph.Executor
	streaming  http.Handler
	playground http.Handler
	serve      http.HandlerFunc
	log        *logger.Logger
}

func NewHandler(exec *graph.Executor, streaming http.Handler, cfg Config, log *logger.Logger) *Handler {
	h := &Handler{
		exec:      exec,
		streaming: streaming,
		log:       log,
	}
	if cfg.EnablePlayground {
		h.playground = playground.Handler("postgraph", Path)
	}
	h.serve = commonhttp.WithTimeout(cfg.RequestTimeout)(h.serveOperation)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		if h.streaming == nil {
			h.writeResponse(w, http.StatusBadRequest, graph.RequestError(graph.CodeBadUserInput, "subscriptions are not enabled"))
			return
		}
		h.streaming.ServeHTTP(w, r)
		return
	}
	h.serve(w, r)
}

func (h *Handler) serveOperation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if h.playground != nil && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
			h.playground.ServeHTTP(w, r)
			return
		}
		h.serveGet(w, r)
	case http.MethodPost:
		h.servePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		h.writeResponse(w, http.StatusMethodNotAllowed, graph.RequestError(commonhttp.CodeMethodNotAllowed, "method not allowed"))
	}
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := graph.Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if raw := q.Get("variables"); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&req.Variables); err != nil {
			h.writeResponse(w, http.StatusBadRequest, graph.RequestError(commonhttp.CodeInvalidJSON, "variables must be a JSON object"))
			return
		}
	}
	h.execute(w, r, req, false)
}

func (h *Handler) servePost(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "application/json" && mediaType != "application/graphql-response+json") {
			h.writeResponse(w, http.StatusUnsupportedMediaType, graph.RequestError(commonhttp.CodeBadRequest, "content type must be application/json"))
			return
		}
	}

	var req graph.Request
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, commonhttp.ErrRequestTooLarge) {
			h.writeResponse(w, http.StatusRequestEntityTooLarge, graph.RequestError(commonhttp.CodeRequestTooLarge, "request body too large"))
			return
		}
		h.writeResponse(w, http.StatusBadRequest, graph.RequestError(commonhttp.CodeInvalidJSON, "request body must be a JSON object"))
		return
	}
	h.execute(w, r, req, true)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, req graph.Request, allowMutation bool) {
	op, failed := h.exec.Prepare(r.Context(), req)
	if failed != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"operation": req.OperationName,
			"action":    "graphql_request_rejected",
		}).Debug("graphql request rejected")
		h.writeResponse(w, http.StatusBadRequest, failed)
		return
	}

	if op.Type() == ast.Mutation && !allowMutation {
		w.Header().Set("Allow", "POST")
		h.writeResponse(w, http.StatusMethodNotAllowed, graph.RequestError(commonhttp.CodeMethodNotAllowed, "mutations require POST"))
		return
	}
	if op.Type() == ast.Subscription {
		h.writeResponse(w, http.StatusBadRequest, graph.RequestError(graph.CodeBadUserInput, "subscriptions require a graphql-transport-ws connection"))
		return
	}

	ctx := r.Context()
	start := time.Now()
	resp := h.exec.Execute(ctx, op)

	h.log.WithFields(ctx, logger.Fields{
		"operation":   op.Name(),
		"type":        string(op.Type()),
		"errors":      len(resp.Errors),
		"duration_ms": time.Since(start).Milliseconds(),
		"action":      "graphql_request",
	}).Debug("graphql request served")

	h.writeResponse(w, http.StatusOK, resp)
}

func (h *Handler) writeResponse(w http.ResponseWriter, status int, resp *graph.Response) {
	commonhttp.WriteJSON(w, status, resp)
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
