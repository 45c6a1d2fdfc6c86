package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// PostgresConversationStore implements ConversationStore on PostgreSQL.
// Message data and intent snapshots are stored as JSONB.
type PostgresConversationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresConversationStore(db *sql.DB, log logger.Logger) *PostgresConversationStore {
	return &PostgresConversationStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "conversation-store",
		}),
	}
}

func (s *PostgresConversationStore) Create(ctx context.Context, userID, title string) (*models.Conversation, error) {
	conv := models.Conversation{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}

	query := `INSERT INTO conversations (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, conv.ID, conv.UserID, conv.Title).
		Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &conv, nil
}

func (s *PostgresConversationStore) Get(ctx context.Context, id, userID string) (*models.Conversation, error) {
	query := `SELECT id, user_id, title, created_at, updated_at
		FROM conversations WHERE id = $1 AND user_id = $2`

	var conv models.Conversation
	err := s.db.QueryRowContext(ctx, query, id, userID).
		Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresConversationStore) List(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, title, created_at, updated_at
		FROM conversations WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// AppendMessage inserts the message and advances the parent's updated_at
// in one transaction, so List ordering tracks the latest activity.
func (s *PostgresConversationStore) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	data, err := marshalNullable(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal message data: %w", err)
	}
	intent, err := marshalNullable(msg.Intent)
	if err != nil {
		return nil, fmt.Errorf("marshal message intent: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO messages (id, conversation_id, role, content, data, intent, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = tx.QueryRowContext(ctx, query,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, data, intent, msg.TokensUsed,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1`, msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &msg, nil
}

func (s *PostgresConversationStore) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]models.Message, error) {
	if _, err := s.Get(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, conversation_id, role, content, data, intent, tokens_used, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var role string
		var data, intent []byte
		err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content,
			&data, &intent, &msg.TokensUsed, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = models.Role(role)
		if len(data) > 0 {
			var result models.QueryResult
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, fmt.Errorf("decode message data: %w", err)
			}
			msg.Data = &result
		}
		if len(intent) > 0 {
			var qi models.QueryIntent
			if err := json.Unmarshal(intent, &qi); err != nil {
				return nil, fmt.Errorf("decode message intent: %w", err)
			}
			msg.Intent = &qi
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Delete removes the conversation and, via ON DELETE CASCADE, its
// messages. Deleting someone else's conversation reports ErrNotFound.
func (s *PostgresConversationStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// marshalNullable renders v as JSON, or SQL NULL when v is a nil pointer.
func marshalNullable(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *models.QueryResult:
		if t == nil {
			return nil, nil
		}
	case *models.QueryIntent:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
