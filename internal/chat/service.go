// Package chat orchestrates one message through the full pipeline:
// guard, rate check, conversation resolution, classification, execution
// or query, response generation, persistence, usage tracking.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"ledger-assistant/internal/chat/classifier"
	"ledger-assistant/internal/chat/guard"
	"ledger-assistant/internal/chat/ratelimit"
	apperrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/common/observability"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/store"
)

// executionThreshold gates the mutating branch: below it, even a
// register intent is routed to the read-only query path.
const executionThreshold = 0.7

// titleLimit caps auto-generated conversation titles, in runes.
const titleLimit = 30

// Request is one user message plus optional conversation and context.
type Request struct {
	UserID         string
	Message        string
	ConversationID string
	Context        *classifier.Context
}

// Response is the assistant's reply.
type Response struct {
	ConversationID string
	Message        *models.Message
	Suggestions    []string
}

type actionClassifier interface {
	Classify(ctx context.Context, message string) (*models.ActionIntent, int)
}

type queryClassifier interface {
	Classify(ctx context.Context, message string, callerCtx *classifier.Context) (*models.QueryIntent, int)
}

type queryEngine interface {
	Execute(ctx context.Context, userID string, intent *models.QueryIntent) (*models.QueryResult, error)
}

type actionExecutor interface {
	Execute(ctx context.Context, userID string, intent *models.ActionIntent) *models.ActionResult
}

type responder interface {
	Respond(ctx context.Context, userMessage string, result *models.QueryResult) (string, int)
}

type admissionLimiter interface {
	Allow(userID string) ratelimit.Decision
}

// Service wires the pipeline stages together.
type Service struct {
	actions       actionClassifier
	queries       queryClassifier
	engine        queryEngine
	executor      actionExecutor
	responder     responder
	limiter       admissionLimiter
	conversations store.ConversationStore
	usage         store.UsageTracker
	obs           *observability.Observability
	logger        logger.Logger
}

type Deps struct {
	Actions       actionClassifier
	Queries       queryClassifier
	Engine        queryEngine
	Executor      actionExecutor
	Responder     responder
	Limiter       admissionLimiter
	Conversations store.ConversationStore
	Usage         store.UsageTracker
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		actions:       deps.Actions,
		queries:       deps.Queries,
		engine:        deps.Engine,
		executor:      deps.Executor,
		responder:     deps.Responder,
		limiter:       deps.Limiter,
		conversations: deps.Conversations,
		usage:         deps.Usage,
		obs:           deps.Observability,
		logger: deps.Logger.With(map[string]interface{}{
			"component": "chat-service",
		}),
	}
}

// Handle runs one message through the pipeline. Classifier and
// generator failures degrade internally; the errors returned here are
// the terminal states only.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()

	if req.UserID == "" {
		s.record(ctx, "unauthorized", started)
		return nil, apperrors.NewUnauthorizedError("missing user id")
	}

	message, guardErr := guard.Sanitize(req.Message)
	if guardErr == nil && message == "" {
		s.record(ctx, "invalid", started)
		return nil, apperrors.NewInvalidQueryError("message", "message is required")
	}
	if guardErr != nil {
		// The rejected text is still persisted verbatim (truncated), but
		// never reaches a classifier prompt.
		s.logger.Warn("input guard tripped", map[string]interface{}{
			"userId": req.UserID,
		})
		message = truncate(strings.TrimSpace(req.Message), guard.MaxMessageLength)
	}

	decision := s.limiter.Allow(req.UserID)
	if !decision.Allowed {
		s.record(ctx, "rate_limited", started)
		return nil, apperrors.NewRateLimitedError(decision.Remaining, decision.ResetAt)
	}

	conv, err := s.resolveConversation(ctx, req, message)
	if err != nil {
		s.record(ctx, "error", started)
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
	}); err != nil {
		s.logger.Error("failed to persist user message", map[string]interface{}{
			"conversationId": conv.ID,
			"error":          err.Error(),
		})
		s.record(ctx, "error", started)
		return nil, apperrors.NewInternalError(err)
	}

	reply, err := s.produceReply(ctx, req, conv.ID, message, guardErr != nil)
	if err != nil {
		s.record(ctx, "error", started)
		return nil, err
	}

	persisted, err := s.conversations.AppendMessage(ctx, *reply.message)
	if err != nil {
		s.logger.Error("failed to persist assistant message", map[string]interface{}{
			"conversationId": conv.ID,
			"error":          err.Error(),
		})
		s.record(ctx, "error", started)
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.usage.Track(ctx, req.UserID, reply.tokens); err != nil {
		// Analytics only, never fails the request.
		s.logger.Warn("usage tracking failed", map[string]interface{}{
			"userId": req.UserID,
			"error":  err.Error(),
		})
	}
	if s.obs != nil {
		s.obs.RecordTokens(ctx, reply.tokens, reply.stage)
	}
	s.record(ctx, "ok", started)

	return &Response{
		ConversationID: conv.ID,
		Message:        persisted,
		Suggestions:    reply.suggestions,
	}, nil
}

type replyOutcome struct {
	message     *models.Message
	tokens      int
	stage       string
	suggestions []string
}

// produceReply runs classification and the chosen branch. guardTripped
// skips the classifiers entirely and serves the safe default query.
func (s *Service) produceReply(ctx context.Context, req Request, conversationID, message string, guardTripped bool) (*replyOutcome, error) {
	totalTokens := 0

	actionIntent := models.DefaultActionIntent()
	if !guardTripped {
		var tokens int
		actionIntent, tokens = s.actions.Classify(ctx, message)
		totalTokens += tokens
	}

	if actionIntent.ActionType != models.ActionQuery && actionIntent.Confidence >= executionThreshold {
		result := s.executor.Execute(ctx, req.UserID, actionIntent)
		return &replyOutcome{
			message: &models.Message{
				ConversationID: conversationID,
				Role:           models.RoleAssistant,
				Content:        result.Message,
				TokensUsed:     totalTokens,
			},
			tokens:      totalTokens,
			stage:       "action",
			suggestions: actionSuggestions(actionIntent.ActionType, result.Success),
		}, nil
	}

	queryIntent := models.DefaultQueryIntent()
	if !guardTripped {
		var tokens int
		queryIntent, tokens = s.queries.Classify(ctx, message, req.Context)
		totalTokens += tokens
	}

	result, err := s.engine.Execute(ctx, req.UserID, queryIntent)
	if err != nil {
		s.logger.Error("query execution failed", map[string]interface{}{
			"queryType": string(queryIntent.QueryType),
			"error":     err.Error(),
		})
		return nil, apperrors.NewInternalError(err)
	}

	content, tokens := s.responder.Respond(ctx, message, result)
	totalTokens += tokens

	return &replyOutcome{
		message: &models.Message{
			ConversationID: conversationID,
			Role:           models.RoleAssistant,
			Content:        content,
			Data:           result,
			Intent:         queryIntent,
			TokensUsed:     totalTokens,
		},
		tokens:      totalTokens,
		stage:       "query",
		suggestions: querySuggestions(queryIntent.QueryType),
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, req Request, message string) (*models.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.conversations.Get(ctx, req.ConversationID, req.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewUnauthorizedError("conversation not found or not owned")
		}
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return conv, nil
	}

	conv, err := s.conversations.Create(ctx, req.UserID, autoTitle(message))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return conv, nil
}

func (s *Service) record(ctx context.Context, outcome string, started time.Time) {
	if s.obs == nil {
		return
	}
	s.obs.RecordChatRequest(ctx, outcome)
	s.obs.RecordChatDuration(ctx, time.Since(started), outcome)
}

// Conversations lists the user's conversations, most recently active
// first.
func (s *Service) Conversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("missing user id")
	}
	conversations, err := s.conversations.List(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return conversations, nil
}

// Messages lists a conversation's messages oldest first. Ownership
// mismatches are indistinguishable from missing conversations.
func (s *Service) Messages(ctx context.Context, conversationID, userID string, limit int) ([]models.Message, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("missing user id")
	}
	messages, err := s.conversations.ListMessages(ctx, conversationID, userID, limit)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewUnauthorizedError("conversation not found or not owned")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return messages, nil
}

// DeleteConversation removes a whole conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	if userID == "" {
		return apperrors.NewUnauthorizedError("missing user id")
	}
	err := s.conversations.Delete(ctx, conversationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewUnauthorizedError("conversation not found or not owned")
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// autoTitle derives a new conversation's title from its first message.
func autoTitle(message string) string {
	return truncate(message, titleLimit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
