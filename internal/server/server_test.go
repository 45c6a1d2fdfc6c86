package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/chat"
	"ledger-assistant/internal/chat/classifier"
	"ledger-assistant/internal/chat/ratelimit"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/store"
)

type stubActions struct{}

func (stubActions) Classify(context.Context, string) (*models.ActionIntent, int) {
	return models.DefaultActionIntent(), 40
}

type stubQueries struct{}

func (stubQueries) Classify(context.Context, string, *classifier.Context) (*models.QueryIntent, int) {
	return &models.QueryIntent{
		QueryType: models.QueryExpenseSummary,
		TimeRange: models.TimeRange{Type: models.RangeCurrentMonth},
	}, 60
}

type stubEngine struct{}

func (stubEngine) Execute(context.Context, string, *models.QueryIntent) (*models.QueryResult, error) {
	result := models.NewQueryResult(models.ResultSummary, models.QueryExpenseSummary)
	result.Data = append(result.Data, map[string]any{"month": "2024-06", "amount": int64(4500)})
	return result, nil
}

type stubExecutor struct{}

func (stubExecutor) Execute(context.Context, string, *models.ActionIntent) *models.ActionResult {
	return &models.ActionResult{Success: true, Message: "registered"}
}

type stubResponder struct{}

func (stubResponder) Respond(context.Context, string, *models.QueryResult) (string, int) {
	return "You spent ¥4,500 this month.", 30
}

type stubLimiter struct {
	decision ratelimit.Decision
}

func (s stubLimiter) Allow(string) ratelimit.Decision { return s.decision }

type memConversations struct {
	conversations map[string]*models.Conversation
	messages      []models.Message
}

func newMemConversations() *memConversations {
	return &memConversations{conversations: make(map[string]*models.Conversation)}
}

func (m *memConversations) Create(_ context.Context, userID, title string) (*models.Conversation, error) {
	conv := &models.Conversation{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.conversations[conv.ID] = conv
	return conv, nil
}

func (m *memConversations) Get(_ context.Context, id, userID string) (*models.Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, store.ErrNotFound
	}
	return conv, nil
}

func (m *memConversations) List(_ context.Context, userID string, _ int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memConversations) AppendMessage(_ context.Context, msg models.Message) (*models.Message, error) {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memConversations) ListMessages(_ context.Context, conversationID, userID string, _ int) ([]models.Message, error) {
	if _, err := m.Get(context.Background(), conversationID, userID); err != nil {
		return nil, err
	}
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memConversations) Delete(_ context.Context, id, userID string) error {
	if _, err := m.Get(context.Background(), id, userID); err != nil {
		return err
	}
	delete(m.conversations, id)
	return nil
}

type stubUsage struct{}

func (stubUsage) Track(context.Context, string, int) error            { return nil }
func (stubUsage) Today(context.Context, string) (int64, int64, error) { return 0, 0, nil }

func newTestServer(t *testing.T, limiter stubLimiter) (*Server, *memConversations) {
	conversations := newMemConversations()
	service := chat.NewService(chat.Deps{
		Actions:       stubActions{},
		Queries:       stubQueries{},
		Engine:        stubEngine{},
		Executor:      stubExecutor{},
		Responder:     stubResponder{},
		Limiter:       limiter,
		Conversations: conversations,
		Usage:         stubUsage{},
		Logger:        logger.NewTestLogger(t),
	})
	return New(service, logger.NewTestLogger(t), nil), conversations
}

func allowAll() stubLimiter {
	return stubLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 29}}
}

func doRequest(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t, allowAll())
	rec := doRequest(s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Chat_RequiresIdentity(t *testing.T) {
	s, _ := newTestServer(t, allowAll())

	rec := doRequest(s, http.MethodPost, "/api/chat", "", `{"message":"hello"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestServer_Chat_Success(t *testing.T) {
	s, conversations := newTestServer(t, allowAll())

	rec := doRequest(s, http.MethodPost, "/api/chat", "user-1",
		`{"message":"what's this month's total expense?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ConversationID)
	assert.Equal(t, models.RoleAssistant, body.Message.Role)
	assert.Equal(t, "You spent ¥4,500 this month.", body.Message.Content)
	require.NotNil(t, body.Message.Data)
	assert.NotEmpty(t, body.Suggestions)
	assert.LessOrEqual(t, len(body.Suggestions), 4)
	assert.Len(t, conversations.messages, 2)
}

func TestServer_Chat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"message":`},
		{"missing message", `{}`},
		{"message too long", `{"message":"` + strings.Repeat("a", 501) + `"}`},
		{"unknown department", `{"message":"hello","context":{"department":"SALES"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, allowAll())
			rec := doRequest(s, http.MethodPost, "/api/chat", "user-1", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "INVALID_QUERY", body["code"])
		})
	}
}

func TestServer_Chat_RateLimited(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second)
	s, _ := newTestServer(t, stubLimiter{decision: ratelimit.Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}})

	rec := doRequest(s, http.MethodPost, "/api/chat", "user-1", `{"message":"hello"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), details["remaining"])
}

func TestServer_ListConversations_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, allowAll())

	rec := doRequest(s, http.MethodGet, "/api/conversations", "user-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conversations":[]`)
}

func TestServer_ListMessages_ForeignConversation(t *testing.T) {
	s, conversations := newTestServer(t, allowAll())
	conv, err := conversations.Create(context.Background(), "someone-else", "theirs")
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", "user-1", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_DeleteConversation(t *testing.T) {
	s, conversations := newTestServer(t, allowAll())
	conv, err := conversations.Create(context.Background(), "user-1", "mine")
	require.NoError(t, err)

	rec := doRequest(s, http.MethodDelete, "/api/conversations/"+conv.ID, "user-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/api/conversations/"+conv.ID, "user-1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
