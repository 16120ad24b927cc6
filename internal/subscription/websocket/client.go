package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/graph"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
)

type ClientConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int
	InitTimeout    time.Duration
}

// operation is the handle for one subscribe id. An id may be reused once
// completed, so cleanup compares handles rather than ids.
type operation struct {
	cancel context.CancelFunc
}

// Client is one graphql-transport-ws connection. A single writer goroutine
// owns the socket, so everything queued on send reaches the peer in order.
type Client struct {
	id     string
	hub    *Hub
	conn   *gorillaWS.Conn
	exec   *graph.Executor
	cfg    ClientConfig
	log    *logger.Logger
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	initReceived  bool
	authorization string
	operations    map[string]*operation

	initTimer *time.Timer
	closeOnce sync.Once
}

func newClient(ctx context.Context, id string, hub *Hub, conn *gorillaWS.Conn, exec *graph.Executor, authorization string, cfg ClientConfig, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		id:            id,
		hub:           hub,
		conn:          conn,
		exec:          exec,
		cfg:           cfg,
		log:           log,
		send:          make(chan []byte, cfg.SendBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		authorization: authorization,
		operations:    make(map[string]*operation),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Start() {
	c.initTimer = time.AfterFunc(c.cfg.InitTimeout, func() {
		c.mu.Lock()
		initialized := c.initReceived
		c.mu.Unlock()
		if !initialized {
			c.closeWith(CloseInitTimeout, "Connection initialisation timeout", "init_timeout")
		}
	})

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer c.shutdown("client_closed")

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure, gorillaWS.CloseAbnormalClosure) {
				metrics.WebSocketErrors.WithLabelValues("read").Inc()
				c.log.WithFields(c.ctx, logger.Fields{
					"connection_id": c.id,
					"action":        "ws_read_error",
				}).Warnf("websocket read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			metrics.WebSocketErrors.WithLabelValues("invalid_message").Inc()
			c.closeWith(CloseBadRequest, "Invalid message received", "bad_request")
			return
		}
		metrics.WebSocketMessagesTotal.WithLabelValues(string(msg.Type), "in").Inc()

		if !c.handle(msg) {
			return
		}
	}
}

// handle returns false once the connection has been closed.
func (c *Client) handle(msg Message) bool {
	switch msg.Type {
	case TypeConnectionInit:
		c.mu.Lock()
		if c.initReceived {
			c.mu.Unlock()
			c.closeWith(CloseTooManyInitRequests, "Too many initialisation requests", "duplicate_init")
			return false
		}
		c.initReceived = true
		if auth := authorizationFromInit(msg.Payload); auth != "" {
			c.authorization = auth
		}
		c.mu.Unlock()
		c.initTimer.Stop()
		c.enqueue(outgoing{Type: TypeConnectionAck})

	case TypePing:
		c.enqueue(outgoing{Type: TypePong})

	case TypePong:

	case TypeSubscribe:
		return c.subscribe(msg)

	case TypeComplete:
		c.mu.Lock()
		op, ok := c.operations[msg.ID]
		delete(c.operations, msg.ID)
		c.mu.Unlock()
		if ok {
			op.cancel()
		}

	default:
		metrics.WebSocketErrors.WithLabelValues("unknown_type").Inc()
		c.closeWith(CloseBadRequest, "Invalid message received", "bad_request")
		return false
	}
	return true
}

func (c *Client) subscribe(msg Message) bool {
	c.mu.Lock()
	acked := c.initReceived
	c.mu.Unlock()
	if !acked {
		c.closeWith(CloseUnauthorized, "Unauthorized", "unauthorized")
		return false
	}

	var payload SubscribePayload
	dec := json.NewDecoder(bytes.NewReader(msg.Payload))
	dec.UseNumber()
	if msg.ID == "" || len(msg.Payload) == 0 || dec.Decode(&payload) != nil {
		metrics.WebSocketErrors.WithLabelValues("invalid_subscribe").Inc()
		c.closeWith(CloseBadRequest, "Invalid message received", "bad_request")
		return false
	}

	c.mu.Lock()
	if _, exists := c.operations[msg.ID]; exists {
		c.mu.Unlock()
		c.closeWith(CloseSubscriberExists, "Subscriber for "+msg.ID+" already exists", "duplicate_id")
		return false
	}
	ctx, cancel := context.WithCancel(c.ctx)
	op := &operation{cancel: cancel}
	c.operations[msg.ID] = op
	authorization := c.authorization
	c.mu.Unlock()

	if authorization != "" {
		ctx = jwtverify.WithAuthorization(ctx, authorization)
	}
	go c.runOperation(ctx, msg.ID, op, payload)
	return true
}

// runOperation serves one subscribe message. Queries and mutations answer
// with a single next followed by complete.
func (c *Client) runOperation(ctx context.Context, id string, handle *operation, payload SubscribePayload) {
	defer c.forget(id, handle)
	defer func() {
		if rec := recover(); rec != nil {
			c.log.WithFields(ctx, logger.Fields{
				"connection_id":   c.id,
				"subscription_id": id,
				"action":          "ws_operation_panic",
			}).Errorf("panic in websocket operation: %v", rec)
			c.closeWith(CloseInternalServerError, "Internal server error", "internal_error")
		}
	}()

	op, failed := c.exec.Prepare(ctx, payload.request())
	if failed != nil {
		c.enqueue(errorMessage(id, failed.Errors))
		return
	}

	if op.Type() != ast.Subscription {
		resp := c.exec.Execute(ctx, op)
		if ctx.Err() != nil {
			return
		}
		c.enqueue(nextMessage(id, resp))
		c.enqueue(completeMessage(id))
		return
	}

	stream, failed := c.exec.Subscribe(ctx, op)
	if failed != nil {
		c.enqueue(errorMessage(id, failed.Errors))
		return
	}
	defer stream.Close()

	metrics.WebSocketSubscriptionsActive.Inc()
	defer metrics.WebSocketSubscriptionsActive.Dec()

	c.log.WithFields(ctx, logger.Fields{
		"connection_id":   c.id,
		"subscription_id": id,
		"action":          "ws_subscription_started",
	}).Debug("subscription started")

	for {
		resp, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, pubsub.ErrSubscriptionClosed) {
				c.enqueue(completeMessage(id))
				return
			}
			if errors.Is(err, pubsub.ErrSubscriberOverflow) {
				metrics.WebSocketErrors.WithLabelValues("subscriber_overflow").Inc()
				c.log.WithFields(ctx, logger.Fields{
					"connection_id":   c.id,
					"subscription_id": id,
					"action":          "ws_subscription_overflow",
				}).Warn("subscriber fell behind and was dropped")
			}
			c.enqueue(errorMessage(id, gqlerror.List{graph.ToGraphQLError(ctx, c.log, err, nil)}))
			return
		}
		if ctx.Err() != nil || !c.enqueue(nextMessage(id, resp)) {
			return
		}
	}
}

// forget drops handle's entry unless a later subscribe has taken the id.
func (c *Client) forget(id string, handle *operation) {
	c.mu.Lock()
	if c.operations[id] == handle {
		delete(c.operations, id)
	}
	c.mu.Unlock()
	handle.cancel()
}

// enqueue blocks while the send buffer is full and gives up once the
// connection is gone.
func (c *Client) enqueue(msg outgoing) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		metrics.WebSocketErrors.WithLabelValues("marshal").Inc()
		c.log.WithFields(c.ctx, logger.Fields{
			"connection_id": c.id,
			"type":          string(msg.Type),
			"action":        "ws_marshal",
		}).Errorf("websocket marshal error: %v", err)
		return false
	}

	select {
	case c.send <- data:
		metrics.WebSocketMessagesTotal.WithLabelValues(string(msg.Type), "out").Inc()
		return true
	case <-c.ctx.Done():
		metrics.WebSocketDroppedMessages.WithLabelValues(string(msg.Type)).Inc()
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown("write_closed")
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.TextMessage, message); err != nil {
				metrics.WebSocketErrors.WithLabelValues("write").Inc()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeWith sends a close frame with a protocol close code and tears the
// connection down.
func (c *Client) closeWith(code int, reason, label string) {
	c.log.WithFields(c.ctx, logger.Fields{
		"connection_id": c.id,
		"code":          code,
		"action":        "ws_close",
	}).Infof("closing websocket: %s", reason)

	deadline := time.Now().Add(c.cfg.WriteWait)
	_ = c.conn.WriteControl(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(code, reason), deadline)
	c.shutdown(label)
}

// shutdown cancels every running operation, which unregisters their bus
// subscriptions, and releases the hub slot.
func (c *Client) shutdown(reason string) {
	c.closeOnce.Do(func() {
		if c.initTimer != nil {
			c.initTimer.Stop()
		}
		c.cancel()
		_ = c.conn.Close()
		c.hub.unregister(c)
		metrics.WebSocketDisconnections.WithLabelValues(reason).Inc()

		c.log.WithFields(c.ctx, logger.Fields{
			"connection_id": c.id,
			"reason":        reason,
			"action":        "ws_disconnect",
		}).Info("websocket client disconnected")
	})
}
