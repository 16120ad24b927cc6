package websocket

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/postgraph/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	commonhttp "github.com/AlibekovAA/postgraph/internal/common/http"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/graph"
)

// Handler upgrades graphql-transport-ws connections on the GraphQL path.
type Handler struct {
	exec     *graph.Executor
	hub      *Hub
	ids      commoncrypto.IDGenerator
	upgrader gorillaWS.Upgrader
	cfg      ClientConfig
	log      *logger.Logger
}

func NewHandler(exec *graph.Executor, hub *Hub, cfg ClientConfig, log *logger.Logger) *Handler {
	return &Handler{
		exec: exec,
		hub:  hub,
		ids:  commoncrypto.NewUUIDGenerator(),
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.WebSocketReadBufferSize,
			WriteBufferSize: constants.WebSocketWriteBufferSize,
			Subprotocols:    []string{Subprotocol},
			CheckOrigin:     sameOrigin,
		},
		cfg: cfg,
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !slices.Contains(gorillaWS.Subprotocols(r), Subprotocol) {
		commonhttp.HandleError(w, r, commonerrors.NewDomainError(
			commonhttp.CodeBadRequest,
			commonerrors.CategoryValidation,
			http.StatusBadRequest,
			"websocket subprotocol "+Subprotocol+" is required",
		), h.log)
		return
	}

	if err := h.hub.reserve(); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"remote_addr": commonhttp.GetClientIP(r),
			"action":      "ws_rejected",
		}).Warnf("websocket connection rejected: %v", err)
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	id, err := h.ids.NewID()
	if err != nil {
		h.hub.release()
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.release()
		h.log.WithFields(r.Context(), logger.Fields{
			"remote_addr": commonhttp.GetClientIP(r),
			"action":      "ws_upgrade",
		}).Warnf("websocket upgrade failed: %v", err)
		return
	}

	// The request context ends with ServeHTTP, the connection outlives it.
	ctx := context.WithValue(context.Background(), constants.TraceIDKey, commonhttp.TraceIDFromContext(r.Context()))
	authorization := r.Header.Get("Authorization")

	client := newClient(ctx, id, h.hub, conn, h.exec, authorization, h.cfg, h.log)
	h.hub.register(client)
	client.Start()
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
