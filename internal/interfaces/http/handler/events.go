package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/interfaces/http/dto"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID   string
	Chan chan SSEMessage
	Done chan struct{}
}

// SSEMessage is a single server-sent event on the wire
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// EventsHandler streams customer change events to dashboard clients over
// SSE. It implements customer.Notifier, so it can sit directly behind the
// service or behind the Redis bridge when events arrive from other
// instances. Payloads carry only public summary fields regardless of the
// subscriber's visibility mode.
type EventsHandler struct {
	BaseHandler
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int
	started    bool
	startMu    sync.Mutex
}

// EventsOption configures the events handler
type EventsOption func(*EventsHandler)

// WithEventsLogger sets the logger for the handler
func WithEventsLogger(logger *zap.Logger) EventsOption {
	return func(h *EventsHandler) {
		h.logger = logger
	}
}

// WithHeartbeat sets the heartbeat interval
func WithHeartbeat(interval time.Duration) EventsOption {
	return func(h *EventsHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithMaxClients caps the number of concurrent SSE connections
func WithMaxClients(max int) EventsOption {
	return func(h *EventsHandler) {
		h.maxClients = max
	}
}

// NewEventsHandler creates an SSE hub for customer events
func NewEventsHandler(opts ...EventsOption) *EventsHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &EventsHandler{
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 1000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes wires the event stream endpoint onto the API group
func (h *EventsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.Stream)
}

// Start launches the heartbeat loop
func (h *EventsHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("events handler already started")
	}

	go h.sendHeartbeats()

	h.started = true
	h.logger.Info("customer events handler started")
	return nil
}

// Stop disconnects all clients and stops the heartbeat loop
func (h *EventsHandler) Stop() {
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("customer events handler stopped")
}

// CustomerCreated broadcasts a customer.created event
func (h *EventsHandler) CustomerCreated(summary customer.Summary) {
	h.broadcastJSON(customer.EventCreated, summary)
}

// CustomerUpdated broadcasts a customer.updated event
func (h *EventsHandler) CustomerUpdated(summary customer.Summary) {
	h.broadcastJSON(customer.EventUpdated, summary)
}

// CustomerDeleted broadcasts a customer.deleted event
func (h *EventsHandler) CustomerDeleted(id uuid.UUID) {
	h.broadcastJSON(customer.EventDeleted, gin.H{"id": id})
}

// CustomersBulkDeleted broadcasts a customers.bulk_deleted event
func (h *EventsHandler) CustomersBulkDeleted(ids []uuid.UUID) {
	h.broadcastJSON(customer.EventBulkDeleted, gin.H{"ids": ids})
}

func (h *EventsHandler) broadcastJSON(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.broadcast(SSEMessage{
		Event: event,
		Data:  string(data),
		ID:    fmt.Sprintf("%d", time.Now().UnixNano()),
	})
}

// broadcast sends a message to all connected clients, dropping it for
// clients whose buffers are full rather than blocking the caller.
func (h *EventsHandler) broadcast(msg SSEMessage) {
	h.clients.Range(func(key, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			h.logger.Warn("client channel full, dropping message",
				zap.String("client_id", client.ID),
				zap.String("event", msg.Event))
		}
		return true
	})
}

func (h *EventsHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		}
	}
}

// Stream handles GET /events
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.ErrCodeUnavailable, "Maximum number of event stream connections reached"))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	const messageBufferSize = 100
	client := &SSEClient{
		ID:   uuid.New().String(),
		Chan: make(chan SSEMessage, messageBufferSize),
		Done: make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	defer func() {
		close(client.Chan)
		h.clients.Delete(client.ID)
	}()

	h.logger.Info("SSE client connected", zap.String("client_id", client.ID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected", zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg, ok := <-client.Chan:
			if !ok {
				return
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *EventsHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of connected SSE clients
func (h *EventsHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

var _ customer.Notifier = (*EventsHandler)(nil)
