// Package store holds the persistence boundaries the assistant core
// depends on. The core only ever sees these interfaces; the Postgres and
// Redis implementations live alongside them.
package store

import (
	"context"
	"errors"

	"ledger-assistant/internal/models"
)

// ErrNotFound is returned when a row does not exist or is not owned by
// the requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// LedgerStore is the financial ledger boundary: owner-scoped filtered
// range reads and single-row inserts. The core does not own the schema.
type LedgerStore interface {
	InsertExpense(ctx context.Context, row models.ExpenseRow) (*models.ExpenseRow, error)
	InsertSale(ctx context.Context, row models.SaleRow) (*models.SaleRow, error)
	ListExpenses(ctx context.Context, userID string, filter models.LedgerFilter) ([]models.ExpenseRow, error)
	ListSales(ctx context.Context, userID string, filter models.LedgerFilter) ([]models.SaleRow, error)
	ListBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error)
	// LatestBalance returns the balance of the account's most recent
	// transaction; ok is false when the account has no transactions.
	LatestBalance(ctx context.Context, accountID string) (balance int64, ok bool, err error)
}

// ConversationStore is the append-only conversation boundary. Every read
// and write is ownership-checked against the supplied user id.
type ConversationStore interface {
	Create(ctx context.Context, userID, title string) (*models.Conversation, error)
	Get(ctx context.Context, id, userID string) (*models.Conversation, error)
	List(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]models.Message, error)
	Delete(ctx context.Context, id, userID string) error
}

// UsageTracker durably records per-user per-day request/token counters.
// Analytics only; never consulted for admission control.
type UsageTracker interface {
	Track(ctx context.Context, userID string, tokens int) error
	Today(ctx context.Context, userID string) (requests, tokens int64, err error)
}
