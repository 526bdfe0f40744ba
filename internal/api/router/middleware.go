package router

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Connector hands out one dedicated database connection per request
type Connector interface {
	Conn(ctx context.Context) (*sqlx.Conn, error)
}

// CORSConfig holds the headers written by CORSMiddleware
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
	MaxAge       int
}

// RequestIDMiddleware propagates or generates X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP Request",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("body_size", c.Writer.Size()),
		)

		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("request_id", c.GetString(requestIDKey)),
				slog.String("error", e.Error()),
			)
		}
	}
}

// CORSMiddleware puts the allowed origin on every response and answers
// preflight requests itself with 200 and an empty body.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigin)

		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Allow-Methods", cfg.AllowMethods)
			c.Writer.Header().Set("Access-Control-Allow-Headers", cfg.AllowHeaders)
			c.Writer.Header().Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// FaultMiddleware converts errors recorded by handlers into the generic
// failure response, unless something was already written.
func FaultMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: domain.MsgInternalServerError})
		}
	}
}

// recoverFault answers panics the same way FaultMiddleware answers errors
func recoverFault(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("Panic recovered",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Any("panic", rec),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: domain.MsgInternalServerError})
	})
}

// SessionMiddleware checks out one connection for the request and
// returns it to the pool on every exit path.
func SessionMiddleware(connector Connector, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := connector.Conn(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Warn("Failed to release connection", slog.String("error", err.Error()))
			}
		}()

		handler.BindSession(c, conn)
		c.Next()
	}
}
