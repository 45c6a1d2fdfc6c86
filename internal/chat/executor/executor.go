// Package executor applies a validated action intent to the ledger:
// expense registration, and sale registration with platform fee calculus.
package executor

import (
	"context"
	"fmt"
	"math"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/store"
)

// feeRateByChannel is the platform fee schedule. Channels not listed
// charge nothing.
var feeRateByChannel = map[models.Channel]float64{
	models.ChannelPlatformA: 0.20,
}

// Executor writes validated intents into the ledger store.
type Executor struct {
	ledger store.LedgerStore
	logger logger.Logger
}

func New(ledger store.LedgerStore, log logger.Logger) *Executor {
	return &Executor{
		ledger: ledger,
		logger: log.With(map[string]interface{}{
			"component": "action-executor",
		}),
	}
}

// Execute applies the intent for the given user. Payloads are assumed
// to have passed schema validation already; query intents are a
// routing bug and fail loudly.
func (e *Executor) Execute(ctx context.Context, userID string, intent *models.ActionIntent) *models.ActionResult {
	switch intent.ActionType {
	case models.ActionRegisterExpense:
		return e.registerExpense(ctx, userID, intent.Expense)
	case models.ActionRegisterSale:
		return e.registerSale(ctx, userID, intent.Sale)
	default:
		return &models.ActionResult{
			Success: false,
			Message: fmt.Sprintf("action type %q is not executable", intent.ActionType),
		}
	}
}

func (e *Executor) registerExpense(ctx context.Context, userID string, data *models.ExpenseData) *models.ActionResult {
	txDate, err := time.Parse("2006-01-02", data.TransactionDate)
	if err != nil {
		return &models.ActionResult{
			Success: false,
			Message: "invalid transaction date: " + data.TransactionDate,
		}
	}

	row, err := e.ledger.InsertExpense(ctx, models.ExpenseRow{
		UserID:          userID,
		TransactionDate: txDate,
		Amount:          data.Amount,
		AccountItem:     data.AccountItem,
		Department:      data.Department,
		Description:     data.Description,
		ReviewStatus:    models.ReviewStatusUnchecked,
	})
	if err != nil {
		e.logger.Error("expense registration failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return &models.ActionResult{
			Success: false,
			Message: "failed to register expense: " + err.Error(),
		}
	}

	e.logger.Info("expense registered", map[string]interface{}{
		"userId": userID,
		"id":     row.ID,
		"amount": row.Amount,
	})

	return &models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Registered expense: %s %s %s (%s)",
			models.FormatDateSlash(row.TransactionDate),
			models.FormatYen(row.Amount),
			row.AccountItem,
			models.DepartmentLabel(row.Department)),
		Data: map[string]any{
			"id":               row.ID,
			"transaction_date": row.TransactionDate.Format("2006-01-02"),
			"amount":           row.Amount,
			"account_item":     row.AccountItem,
			"department":       string(row.Department),
			"description":      row.Description,
		},
	}
}

func (e *Executor) registerSale(ctx context.Context, userID string, data *models.SaleData) *models.ActionResult {
	txDate, err := time.Parse("2006-01-02", data.TransactionDate)
	if err != nil {
		return &models.ActionResult{
			Success: false,
			Message: "invalid transaction date: " + data.TransactionDate,
		}
	}

	fee := FeeAmount(data.Amount, data.Channel)
	row, err := e.ledger.InsertSale(ctx, models.SaleRow{
		UserID:          userID,
		TransactionDate: txDate,
		Amount:          data.Amount,
		ClientName:      data.ClientName,
		Department:      data.Department,
		Channel:         data.Channel,
		Status:          data.Status,
		FeeAmount:       fee,
		NetAmount:       data.Amount - fee,
		Description:     data.Description,
	})
	if err != nil {
		e.logger.Error("sale registration failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return &models.ActionResult{
			Success: false,
			Message: "failed to register sale: " + err.Error(),
		}
	}

	// Best-effort companion expense for the platform fee. Its failure
	// never rolls back the sale.
	if fee > 0 {
		_, feeErr := e.ledger.InsertExpense(ctx, models.ExpenseRow{
			UserID:          userID,
			TransactionDate: txDate,
			Amount:          fee,
			AccountItem:     models.AccountItemPaymentFee,
			Department:      data.Department,
			Description:     fmt.Sprintf("platform fee for sale to %s", data.ClientName),
			ReviewStatus:    models.ReviewStatusUnchecked,
		})
		if feeErr != nil {
			e.logger.Warn("fee expense registration failed, sale kept", map[string]interface{}{
				"userId": userID,
				"saleId": row.ID,
				"error":  feeErr.Error(),
			})
		}
	}

	e.logger.Info("sale registered", map[string]interface{}{
		"userId": userID,
		"id":     row.ID,
		"amount": row.Amount,
		"fee":    row.FeeAmount,
	})

	message := fmt.Sprintf("Registered sale: %s %s %s / %s (%s, %s)",
		models.FormatDateSlash(row.TransactionDate),
		models.FormatYen(row.Amount),
		row.ClientName,
		models.ChannelLabel(row.Channel),
		models.StatusLabel(row.Status),
		models.DepartmentLabel(row.Department))
	if fee > 0 {
		message += fmt.Sprintf(" (fee %s, net %s)",
			models.FormatYen(row.FeeAmount), models.FormatYen(row.NetAmount))
	}

	return &models.ActionResult{
		Success: true,
		Message: message,
		Data: map[string]any{
			"id":               row.ID,
			"transaction_date": row.TransactionDate.Format("2006-01-02"),
			"amount":           row.Amount,
			"client_name":      row.ClientName,
			"department":       string(row.Department),
			"channel":          string(row.Channel),
			"status":           string(row.Status),
			"fee_amount":       row.FeeAmount,
			"net_amount":       row.NetAmount,
		},
	}
}

// FeeAmount is round(amount * rate) for the channel's fee rate.
func FeeAmount(amount int64, channel models.Channel) int64 {
	rate, ok := feeRateByChannel[channel]
	if !ok {
		return 0
	}
	return int64(math.Round(float64(amount) * rate))
}
