package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/api/storage"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/gin-gonic/gin"
)

const sessionKey = "db_session"

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Health       HealthChecker
	Publisher    events.Publisher
	EventTimeout time.Duration
	ServiceName  string
}

// ResourceHandler serves the four resources behind one dispatcher
type ResourceHandler struct {
	logger       *slog.Logger
	publisher    events.Publisher
	eventTimeout time.Duration
}

// NewResourceHandler creates a new ResourceHandler instance
func NewResourceHandler(deps *Dependencies) *ResourceHandler {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	timeout := deps.EventTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &ResourceHandler{
		logger:       deps.Logger,
		publisher:    publisher,
		eventTimeout: timeout,
	}
}

// BindSession attaches the request's database session to the gin context
func BindSession(c *gin.Context, s storage.Session) {
	c.Set(sessionKey, s)
}

// storageFor returns a Storage on the request's session
func storageFor(c *gin.Context) (*storage.Storage, error) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, domain.ErrNoConnection
	}
	s, ok := v.(storage.Session)
	if !ok {
		return nil, domain.ErrNoConnection
	}
	return storage.NewStorage(s), nil
}

// NotFound writes the one intentional error response
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: domain.MsgNotFound})
}

// fail records err on the context; the fault middleware turns it into a 500
func (h *ResourceHandler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg,
		slog.String("method", c.Request.Method),
		slog.String("error", err.Error()),
	)
	_ = c.Error(err)
	c.Abort()
}

// publish emits a change event. The mutation is already committed, so a
// failure is only logged.
func (h *ResourceHandler) publish(c *gin.Context, resource, action, recordID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.eventTimeout)
	defer cancel()

	ev := events.NewChangeEvent(resource, action, recordID)
	if err := h.publisher.Publish(ctx, ev); err != nil {
		h.logger.Warn("Failed to publish change event",
			slog.String("resource", resource),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
