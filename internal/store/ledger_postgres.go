package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// PostgresLedgerStore implements LedgerStore on PostgreSQL.
type PostgresLedgerStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresLedgerStore(db *sql.DB, log logger.Logger) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "ledger-store",
		}),
	}
}

func (s *PostgresLedgerStore) InsertExpense(ctx context.Context, row models.ExpenseRow) (*models.ExpenseRow, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.ReviewStatus == "" {
		row.ReviewStatus = models.ReviewStatusUnchecked
	}

	query := `INSERT INTO expenses
		(id, user_id, transaction_date, amount, account_item, department, description, review_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		row.ID, row.UserID, row.TransactionDate, row.Amount,
		row.AccountItem, string(row.Department), row.Description, row.ReviewStatus,
	).Scan(&row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	return &row, nil
}

func (s *PostgresLedgerStore) InsertSale(ctx context.Context, row models.SaleRow) (*models.SaleRow, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	query := `INSERT INTO sales
		(id, user_id, transaction_date, amount, client_name, department, channel, status, fee_amount, net_amount, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		row.ID, row.UserID, row.TransactionDate, row.Amount, row.ClientName,
		string(row.Department), string(row.Channel), string(row.Status),
		row.FeeAmount, row.NetAmount, row.Description,
	).Scan(&row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	return &row, nil
}

func (s *PostgresLedgerStore) ListExpenses(ctx context.Context, userID string, filter models.LedgerFilter) ([]models.ExpenseRow, error) {
	where, args := buildFilter(userID, filter)
	where, args = appendCondition(where, args, "department", departmentArg(filter.Department))
	where, args = appendCondition(where, args, "account_item", filter.AccountItem)

	query := `SELECT id, user_id, transaction_date, amount, account_item, department, description, review_status, created_at
		FROM expenses WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY transaction_date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.ExpenseRow
	for rows.Next() {
		var e models.ExpenseRow
		var department string
		err := rows.Scan(&e.ID, &e.UserID, &e.TransactionDate, &e.Amount,
			&e.AccountItem, &department, &e.Description, &e.ReviewStatus, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Department = models.Department(department)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *PostgresLedgerStore) ListSales(ctx context.Context, userID string, filter models.LedgerFilter) ([]models.SaleRow, error) {
	where, args := buildFilter(userID, filter)
	where, args = appendCondition(where, args, "department", departmentArg(filter.Department))
	where, args = appendCondition(where, args, "channel", channelArg(filter.Channel))
	where, args = appendCondition(where, args, "status", statusArg(filter.Status))

	query := `SELECT id, user_id, transaction_date, amount, client_name, department, channel, status, fee_amount, net_amount, description, created_at
		FROM sales WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY transaction_date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []models.SaleRow
	for rows.Next() {
		var sl models.SaleRow
		var department, channel, status string
		err := rows.Scan(&sl.ID, &sl.UserID, &sl.TransactionDate, &sl.Amount, &sl.ClientName,
			&department, &channel, &status, &sl.FeeAmount, &sl.NetAmount, &sl.Description, &sl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sl.Department = models.Department(department)
		sl.Channel = models.Channel(channel)
		sl.Status = models.SaleStatus(status)
		sales = append(sales, sl)
	}
	return sales, rows.Err()
}

func (s *PostgresLedgerStore) ListBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error) {
	query := `SELECT id, user_id, name, initial_balance FROM bank_accounts WHERE user_id = $1 ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.BankAccount
	for rows.Next() {
		var a models.BankAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.InitialBalance); err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresLedgerStore) LatestBalance(ctx context.Context, accountID string) (int64, bool, error) {
	query := `SELECT balance FROM bank_transactions
		WHERE account_id = $1
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT 1`

	var balance int64
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest balance: %w", err)
	}
	return balance, true, nil
}

// buildFilter starts every range read with the owner scope and the
// inclusive date bounds.
func buildFilter(userID string, filter models.LedgerFilter) ([]string, []interface{}) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, "transaction_date >= $"+strconv.Itoa(len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, "transaction_date <= $"+strconv.Itoa(len(args)))
	}
	return where, args
}

func appendCondition(where []string, args []interface{}, column string, value *string) ([]string, []interface{}) {
	if value == nil {
		return where, args
	}
	args = append(args, *value)
	where = append(where, column+" = $"+strconv.Itoa(len(args)))
	return where, args
}

func departmentArg(d *models.Department) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func channelArg(c *models.Channel) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func statusArg(s *models.SaleStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
