package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// recordingLedger captures inserts and can fail them selectively.
type recordingLedger struct {
	expenses   []models.ExpenseRow
	sales      []models.SaleRow
	expenseErr error
	saleErr    error
}

func (r *recordingLedger) InsertExpense(_ context.Context, row models.ExpenseRow) (*models.ExpenseRow, error) {
	if r.expenseErr != nil {
		return nil, r.expenseErr
	}
	row.ID = "expense-1"
	r.expenses = append(r.expenses, row)
	return &row, nil
}

func (r *recordingLedger) InsertSale(_ context.Context, row models.SaleRow) (*models.SaleRow, error) {
	if r.saleErr != nil {
		return nil, r.saleErr
	}
	row.ID = "sale-1"
	r.sales = append(r.sales, row)
	return &row, nil
}

func (r *recordingLedger) ListExpenses(context.Context, string, models.LedgerFilter) ([]models.ExpenseRow, error) {
	return nil, nil
}

func (r *recordingLedger) ListSales(context.Context, string, models.LedgerFilter) ([]models.SaleRow, error) {
	return nil, nil
}

func (r *recordingLedger) ListBankAccounts(context.Context, string) ([]models.BankAccount, error) {
	return nil, nil
}

func (r *recordingLedger) LatestBalance(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

func TestExecutor_RegisterExpense(t *testing.T) {
	ledger := &recordingLedger{}
	exec := New(ledger, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", &models.ActionIntent{
		ActionType: models.ActionRegisterExpense,
		Confidence: 0.9,
		Expense: &models.ExpenseData{
			TransactionDate: "2024-06-15",
			Amount:          1500,
			AccountItem:     "travel expense",
			Department:      models.DepartmentCommon,
			Description:     "train fare",
		},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.Message, "1,500")
	assert.Contains(t, result.Message, "travel expense")

	// Round-trip: the inserted row's fields survive into the result data.
	assert.Equal(t, int64(1500), result.Data["amount"])
	assert.Equal(t, "travel expense", result.Data["account_item"])
	assert.Equal(t, "COMMON", result.Data["department"])
	assert.Equal(t, "train fare", result.Data["description"])

	require.Len(t, ledger.expenses, 1)
	assert.Equal(t, models.ReviewStatusUnchecked, ledger.expenses[0].ReviewStatus)
}

func TestExecutor_RegisterSale_FeeBearingChannel(t *testing.T) {
	ledger := &recordingLedger{}
	exec := New(ledger, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", &models.ActionIntent{
		ActionType: models.ActionRegisterSale,
		Confidence: 0.9,
		Sale: &models.SaleData{
			TransactionDate: "2024-06-10",
			Amount:          10000,
			ClientName:      "ACME Inc",
			Department:      models.DepartmentPhoto,
			Channel:         models.ChannelPlatformA,
			Status:          models.SaleStatusPaid,
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, int64(2000), result.Data["fee_amount"])
	assert.Equal(t, int64(8000), result.Data["net_amount"])

	require.Len(t, ledger.sales, 1)
	assert.Equal(t, int64(2000), ledger.sales[0].FeeAmount)
	assert.Equal(t, int64(8000), ledger.sales[0].NetAmount)

	// Exactly one companion fee expense.
	require.Len(t, ledger.expenses, 1)
	assert.Equal(t, int64(2000), ledger.expenses[0].Amount)
	assert.Equal(t, models.AccountItemPaymentFee, ledger.expenses[0].AccountItem)
	assert.Contains(t, ledger.expenses[0].Description, "ACME Inc")
}

func TestExecutor_RegisterSale_FeeFreeChannel(t *testing.T) {
	ledger := &recordingLedger{}
	exec := New(ledger, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", &models.ActionIntent{
		ActionType: models.ActionRegisterSale,
		Confidence: 0.9,
		Sale: &models.SaleData{
			TransactionDate: "2024-06-10",
			Amount:          10000,
			ClientName:      "ACME Inc",
			Department:      models.DepartmentPhoto,
			Channel:         models.ChannelDirect,
			Status:          models.SaleStatusUnpaid,
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, int64(0), result.Data["fee_amount"])
	assert.Equal(t, int64(10000), result.Data["net_amount"])
	assert.Empty(t, ledger.expenses, "no fee expense for a fee-free channel")
}

func TestExecutor_RegisterSale_FeeExpenseFailureIsSwallowed(t *testing.T) {
	ledger := &recordingLedger{expenseErr: errors.New("expenses table locked")}
	exec := New(ledger, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", &models.ActionIntent{
		ActionType: models.ActionRegisterSale,
		Confidence: 0.9,
		Sale: &models.SaleData{
			TransactionDate: "2024-06-10",
			Amount:          10000,
			ClientName:      "ACME Inc",
			Department:      models.DepartmentPhoto,
			Channel:         models.ChannelPlatformA,
			Status:          models.SaleStatusPaid,
		},
	})

	assert.True(t, result.Success, "fee expense failure never rolls back the sale")
	require.Len(t, ledger.sales, 1)
	assert.Empty(t, ledger.expenses)
}

func TestExecutor_RegisterSale_InsertFailure(t *testing.T) {
	ledger := &recordingLedger{saleErr: errors.New("connection refused")}
	exec := New(ledger, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", &models.ActionIntent{
		ActionType: models.ActionRegisterSale,
		Confidence: 0.9,
		Sale: &models.SaleData{
			TransactionDate: "2024-06-10",
			Amount:          10000,
			ClientName:      "ACME Inc",
			Department:      models.DepartmentPhoto,
			Channel:         models.ChannelDirect,
			Status:          models.SaleStatusPaid,
		},
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "connection refused")
}

func TestExecutor_QueryActionIsNotExecutable(t *testing.T) {
	exec := New(&recordingLedger{}, logger.NewTestLogger(t))

	result := exec.Execute(context.Background(), "user-1", models.DefaultActionIntent())

	assert.False(t, result.Success)
}

func TestFeeAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		channel models.Channel
		want    int64
	}{
		{"fee-bearing round number", 10000, models.ChannelPlatformA, 2000},
		{"fee-bearing rounds half up", 999, models.ChannelPlatformA, 200},
		{"fee-free channel", 10000, models.ChannelDirect, 0},
		{"fee-free platform B", 10000, models.ChannelPlatformB, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FeeAmount(tt.amount, tt.channel))
		})
	}
}
