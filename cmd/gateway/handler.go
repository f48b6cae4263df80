// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dileep-u-k/agent-gateway/internal/agent"
	"github.com/dileep-u-k/agent-gateway/internal/api"
	"github.com/dileep-u-k/agent-gateway/internal/audit"
	"github.com/dileep-u-k/agent-gateway/internal/auth"
	"github.com/dileep-u-k/agent-gateway/internal/metrics"
)

const (
	userIDKey    = "userID"
	requestIDKey = "requestID"

	defaultAuditLimit = 20
	maxAuditLimit     = 200
)

// Previewer runs one agent turn.
type Previewer interface {
	Run(ctx context.Context, req agent.Request) (*api.ResponseEnvelope, error)
}

// AuditReader lists a user's recent tool calls.
type AuditReader interface {
	Recent(ctx context.Context, userID string, n int64) ([]audit.Entry, error)
}

type AgentHandler struct {
	agent   Previewer
	audit   AuditReader
	logger  hclog.Logger
	timeout time.Duration
}

// NewAgentHandler wires the HTTP layer. reader may be nil when no audit
// store is configured.
func NewAgentHandler(previewer Previewer, reader AuditReader, logger hclog.Logger, timeout time.Duration) *AgentHandler {
	return &AgentHandler{agent: previewer, audit: reader, logger: logger, timeout: timeout}
}

// HandlePreview answers one question with the agent's configuration.
func (h *AgentHandler) HandlePreview(c *gin.Context) {
	var req api.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Message and collections are required", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	userID := c.GetString(userIDKey)
	requestID := c.GetString(requestIDKey)
	env, err := h.agent.Run(ctx, agent.Request{RequestID: requestID, UserID: userID, Preview: req})
	if err != nil {
		h.logger.Error("preview failed", "request_id", requestID, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to preview agent", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, env)
}

// HandleAuditRecent lists the caller's most recent tool calls.
func (h *AgentHandler) HandleAuditRecent(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Audit log is not enabled"})
		return
	}
	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.audit.Recent(c.Request.Context(), c.GetString(userIDKey), int64(limit))
	if err != nil {
		h.logger.Error("audit read failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to read audit log", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// requireAuth resolves the caller from the bearer token or aborts with 401.
func requireAuth(v auth.Verifier, logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: auth.ErrUnauthorized.Error()})
			return
		}
		userID, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthorized) {
				logger.Warn("token verification failed", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: auth.ErrUnauthorized.Error()})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// requestContext assigns a request id and logs the request once it completes.
func requestContext(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", id,
		)
	}
}

// countPreviews records the final status of every preview request,
// rejected ones included.
func countPreviews(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.ObservePreview(c.Writer.Status())
	}
}

// newRouter builds the gin engine with every route of the gateway.
func newRouter(h *AgentHandler, verifier auth.Verifier, m *metrics.Metrics, logger hclog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestContext(logger))

	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := engine.Group("/api/v1/agents")
	{
		v1.POST("/preview", countPreviews(m), requireAuth(verifier, logger), h.HandlePreview)
		v1.GET("/audit", requireAuth(verifier, logger), h.HandleAuditRecent)
	}
	return engine
}
