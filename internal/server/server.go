// Package server exposes the assistant over HTTP. Identity arrives as an
// X-User-ID header set by the fronting auth proxy; this layer does not
// authenticate, it only refuses anonymous traffic.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledger-assistant/internal/chat"
	"ledger-assistant/internal/chat/classifier"
	apperrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

const userIDKey = "userID"

// Server is the HTTP surface over the chat service.
type Server struct {
	engine  *gin.Engine
	service *chat.Service
	logger  logger.Logger
}

// New builds the router. metricsHandler is mounted at /metrics when
// non-nil.
func New(service *chat.Service, log logger.Logger, metricsHandler http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:  engine,
		service: service,
		logger: log.With(map[string]interface{}{
			"component": "http-server",
		}),
	}

	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.handleHealth)
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := engine.Group("/api", s.requireIdentity())
	api.POST("/chat", s.handleChat)
	api.GET("/conversations", s.handleListConversations)
	api.GET("/conversations/:id/messages", s.handleListMessages)
	api.DELETE("/conversations/:id", s.handleDeleteConversation)

	return s
}

// Handler returns the root http.Handler for wiring into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Info("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		})
	}
}

func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			writeError(c, apperrors.NewUnauthorizedError("missing X-User-ID header"))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatContext struct {
	FiscalYear *int    `json:"fiscalYear"`
	Department *string `json:"department"`
}

type chatRequest struct {
	Message        string       `json:"message"`
	ConversationID string       `json:"conversationId"`
	Context        *chatContext `json:"context"`
}

type chatMessage struct {
	ID        string              `json:"id"`
	Role      models.Role         `json:"role"`
	Content   string              `json:"content"`
	Data      *models.QueryResult `json:"data,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type chatResponse struct {
	ConversationID string      `json:"conversationId"`
	Message        chatMessage `json:"message"`
	Suggestions    []string    `json:"suggestions"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewInvalidQueryError("body", "request body must be valid JSON"))
		return
	}
	if req.Message == "" {
		writeError(c, apperrors.NewInvalidQueryError("message", "message is required"))
		return
	}
	if len([]rune(req.Message)) > 500 {
		writeError(c, apperrors.NewInvalidQueryError("message", "message must be at most 500 characters"))
		return
	}

	callerCtx, err := parseContext(req.Context)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := s.service.Handle(c.Request.Context(), chat.Request{
		UserID:         c.GetString(userIDKey),
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Context:        callerCtx,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID: resp.ConversationID,
		Message: chatMessage{
			ID:        resp.Message.ID,
			Role:      resp.Message.Role,
			Content:   resp.Message.Content,
			Data:      resp.Message.Data,
			Timestamp: resp.Message.CreatedAt,
		},
		Suggestions: resp.Suggestions,
	})
}

func parseContext(raw *chatContext) (*classifier.Context, error) {
	if raw == nil {
		return nil, nil
	}
	ctx := &classifier.Context{FiscalYear: raw.FiscalYear}
	if raw.Department != nil {
		dept := models.Department(*raw.Department)
		if !models.ValidDepartment(dept) {
			return nil, apperrors.NewInvalidQueryError("context.department", "unknown department")
		}
		ctx.Department = &dept
	}
	return ctx, nil
}

func (s *Server) handleListConversations(c *gin.Context) {
	conversations, err := s.service.Conversations(c.Request.Context(), c.GetString(userIDKey), 50)
	if err != nil {
		writeError(c, err)
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (s *Server) handleListMessages(c *gin.Context) {
	messages, err := s.service.Messages(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), 100)
	if err != nil {
		writeError(c, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	if err := s.service.DeleteConversation(c.Request.Context(), c.Param("id"), c.GetString(userIDKey)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError renders the caller-facing error envelope. Internal causes
// stay in logs, never in the body.
func writeError(c *gin.Context, err error) {
	se := apperrors.AsStandard(err)

	body := gin.H{
		"error": se.Message,
		"code":  se.Code,
	}
	switch se.Code {
	case apperrors.ErrCodeInvalidQuery, apperrors.ErrCodeUnauthorized:
		if se.Details != "" {
			body["details"] = se.Details
		}
	case apperrors.ErrCodeRateLimited:
		if se.Metadata != nil {
			body["details"] = se.Metadata
		}
	}

	c.JSON(se.HTTPStatus(), body)
}
