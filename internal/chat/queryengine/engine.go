// Package queryengine maps a validated QueryIntent to ledger reads and
// in-memory aggregation, shaping the rows into a QueryResult.
package queryengine

import (
	"context"
	"fmt"
	"time"

	"ledger-assistant/internal/chat/timerange"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/store"
)

// defaultDetailLimit caps detail and unpaid listings unless the intent
// asks for a different limit.
const defaultDetailLimit = 20

// Engine executes read queries against the ledger store.
type Engine struct {
	ledger store.LedgerStore
	logger logger.Logger
	now    func() time.Time
}

func New(ledger store.LedgerStore, log logger.Logger) *Engine {
	return &Engine{
		ledger: ledger,
		logger: log.With(map[string]interface{}{
			"component": "query-engine",
		}),
		now: time.Now,
	}
}

// Execute dispatches on the intent's query type. The returned result
// always has a non-nil Data slice.
func (e *Engine) Execute(ctx context.Context, userID string, intent *models.QueryIntent) (*models.QueryResult, error) {
	start, end := timerange.Resolve(intent.TimeRange, e.now())

	var (
		result *models.QueryResult
		err    error
	)
	switch intent.QueryType {
	case models.QueryExpenseSummary:
		result, err = e.expenseSummary(ctx, userID, intent, start, end)
	case models.QueryExpenseByCategory:
		result, err = e.expenseGrouped(ctx, userID, intent, start, end,
			models.QueryExpenseByCategory, "Expenses by Category", "category",
			func(r models.ExpenseRow) string { return r.AccountItem })
	case models.QueryExpenseByDepartment:
		result, err = e.expenseGrouped(ctx, userID, intent, start, end,
			models.QueryExpenseByDepartment, "Expenses by Department", "department",
			func(r models.ExpenseRow) string { return models.DepartmentLabel(r.Department) })
	case models.QueryExpenseDetail:
		result, err = e.expenseDetail(ctx, userID, intent, start, end)
	case models.QuerySalesSummary:
		result, err = e.salesSummary(ctx, userID, intent, start, end)
	case models.QuerySalesByChannel:
		result, err = e.salesGrouped(ctx, userID, intent, start, end,
			models.QuerySalesByChannel, "Sales by Channel", "channel",
			func(r models.SaleRow) string { return models.ChannelLabel(r.Channel) })
	case models.QuerySalesByDepartment:
		result, err = e.salesGrouped(ctx, userID, intent, start, end,
			models.QuerySalesByDepartment, "Sales by Department", "department",
			func(r models.SaleRow) string { return models.DepartmentLabel(r.Department) })
	case models.QuerySalesByClient:
		result, err = e.salesGrouped(ctx, userID, intent, start, end,
			models.QuerySalesByClient, "Sales by Client", "client",
			func(r models.SaleRow) string { return r.ClientName })
	case models.QuerySalesDetail:
		result, err = e.salesDetail(ctx, userID, intent, start, end)
	case models.QueryUnpaidList:
		result, err = e.unpaidList(ctx, userID, intent, start, end)
	case models.QueryBankBalance:
		result, err = e.bankBalance(ctx, userID, intent)
	case models.QueryProfitLoss:
		result, err = e.profitLoss(ctx, userID, intent, start, end, models.QueryProfitLoss)
	case models.QueryMonthlyComparison:
		// A month-over-month question is profit/loss with the previous
		// period as the reference.
		compare := *intent
		compare.Comparison.Enabled = true
		if compare.Comparison.CompareTo == "" {
			compare.Comparison.CompareTo = "previous_period"
		}
		result, err = e.profitLoss(ctx, userID, &compare, start, end, models.QueryMonthlyComparison)
	case models.QueryFeeSummary:
		result, err = e.feeSummary(ctx, userID, intent, start, end)
	default:
		// general, unknown, and anything unrecognized fall through to
		// the overall profit/loss picture.
		result, err = e.profitLoss(ctx, userID, intent, start, end, models.QueryGeneral)
	}
	if err != nil {
		return nil, err
	}

	result.Metadata.DateRange = &models.DateRange{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	}
	if intent.Filters != (models.QueryFilters{}) {
		filters := intent.Filters
		result.Metadata.Filters = &filters
	}

	e.logger.Info("query executed", map[string]interface{}{
		"queryType": string(result.Metadata.QueryType),
		"rows":      len(result.Data),
	})
	return result, nil
}

func ledgerFilter(intent *models.QueryIntent, start, end time.Time) models.LedgerFilter {
	return models.LedgerFilter{
		From:        start,
		To:          end,
		Department:  intent.Filters.Department,
		AccountItem: intent.Filters.AccountItem,
		Channel:     intent.Filters.Channel,
		Status:      intent.Filters.Status,
	}
}

func (e *Engine) expenseSummary(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	rows, err := e.ledger.ListExpenses(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}

	result := monthlyBreakdown(models.QueryExpenseSummary, "Expense Summary", expenseBuckets(rows))
	return result, nil
}

func (e *Engine) salesSummary(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	rows, err := e.ledger.ListSales(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	result := monthlyBreakdown(models.QuerySalesSummary, "Sales Summary", saleBuckets(rows))
	return result, nil
}

func (e *Engine) feeSummary(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	filter := ledgerFilter(intent, start, end)
	feeItem := models.AccountItemPaymentFee
	filter.AccountItem = &feeItem

	rows, err := e.ledger.ListExpenses(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("fee summary: %w", err)
	}

	result := monthlyBreakdown(models.QueryFeeSummary, "Platform Fee Summary", expenseBuckets(rows))
	return result, nil
}

func (e *Engine) expenseGrouped(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time,
	queryType models.QueryType, title, key string, keyFn func(models.ExpenseRow) string) (*models.QueryResult, error) {

	rows, err := e.ledger.ListExpenses(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", queryType, err)
	}

	buckets := make([]bucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, bucket{key: keyFn(r), amount: r.Amount})
	}
	return groupedResult(queryType, title, key, buckets, intent.Aggregation), nil
}

func (e *Engine) salesGrouped(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time,
	queryType models.QueryType, title, key string, keyFn func(models.SaleRow) string) (*models.QueryResult, error) {

	rows, err := e.ledger.ListSales(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", queryType, err)
	}

	buckets := make([]bucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, bucket{key: keyFn(r), amount: r.Amount})
	}
	return groupedResult(queryType, title, key, buckets, intent.Aggregation), nil
}

func (e *Engine) expenseDetail(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	rows, err := e.ledger.ListExpenses(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("expense detail: %w", err)
	}

	result := models.NewQueryResult(models.ResultTable, models.QueryExpenseDetail)
	result.Title = "Expense Details"
	result.Columns = []models.Column{
		{Key: "date", Label: "Date"},
		{Key: "account_item", Label: "Account Item"},
		{Key: "department", Label: "Department"},
		{Key: "amount", Label: "Amount"},
		{Key: "description", Label: "Description"},
	}

	for _, r := range detailRows(rows, intent.Aggregation, func(r models.ExpenseRow) time.Time { return r.TransactionDate }) {
		result.Data = append(result.Data, map[string]any{
			"date":         models.FormatDateSlash(r.TransactionDate),
			"account_item": r.AccountItem,
			"department":   models.DepartmentLabel(r.Department),
			"amount":       r.Amount,
			"description":  r.Description,
		})
	}
	return result, nil
}

func (e *Engine) salesDetail(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	rows, err := e.ledger.ListSales(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return nil, fmt.Errorf("sales detail: %w", err)
	}

	result := models.NewQueryResult(models.ResultTable, models.QuerySalesDetail)
	result.Title = "Sales Details"
	result.Columns = []models.Column{
		{Key: "date", Label: "Date"},
		{Key: "client", Label: "Client"},
		{Key: "channel", Label: "Channel"},
		{Key: "status", Label: "Status"},
		{Key: "amount", Label: "Amount"},
		{Key: "net_amount", Label: "Net Amount"},
	}

	for _, r := range detailRows(rows, intent.Aggregation, func(r models.SaleRow) time.Time { return r.TransactionDate }) {
		result.Data = append(result.Data, map[string]any{
			"date":       models.FormatDateSlash(r.TransactionDate),
			"client":     r.ClientName,
			"channel":    models.ChannelLabel(r.Channel),
			"status":     models.StatusLabel(r.Status),
			"amount":     r.Amount,
			"net_amount": r.NetAmount,
		})
	}
	return result, nil
}

func (e *Engine) unpaidList(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (*models.QueryResult, error) {
	filter := ledgerFilter(intent, start, end)
	unpaid := models.SaleStatusUnpaid
	filter.Status = &unpaid

	rows, err := e.ledger.ListSales(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("unpaid list: %w", err)
	}

	result := models.NewQueryResult(models.ResultTable, models.QueryUnpaidList)
	result.Title = "Unpaid Sales"
	result.Columns = []models.Column{
		{Key: "date", Label: "Date"},
		{Key: "client", Label: "Client"},
		{Key: "amount", Label: "Amount"},
	}

	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	for _, r := range detailRows(rows, intent.Aggregation, func(r models.SaleRow) time.Time { return r.TransactionDate }) {
		result.Data = append(result.Data, map[string]any{
			"date":   models.FormatDateSlash(r.TransactionDate),
			"client": r.ClientName,
			"amount": r.Amount,
		})
	}
	if len(result.Data) > 0 {
		result.Total = &total
	}
	return result, nil
}

func (e *Engine) bankBalance(ctx context.Context, userID string, intent *models.QueryIntent) (*models.QueryResult, error) {
	accounts, err := e.ledger.ListBankAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("bank balance: %w", err)
	}

	result := models.NewQueryResult(models.ResultSummary, models.QueryBankBalance)
	result.Title = "Bank Balances"

	var total int64
	for _, acc := range accounts {
		if intent.Filters.BankAccountID != nil && acc.ID != *intent.Filters.BankAccountID {
			continue
		}
		balance, ok, err := e.ledger.LatestBalance(ctx, acc.ID)
		if err != nil {
			return nil, fmt.Errorf("bank balance: %w", err)
		}
		if !ok {
			balance = acc.InitialBalance
		}
		total += balance
		result.Data = append(result.Data, map[string]any{
			"account": acc.Name,
			"balance": balance,
		})
	}
	if len(result.Data) > 0 {
		result.Total = &total
	}
	return result, nil
}

// profitLoss is the overall picture: sales, expenses, profit, and
// outstanding receivables. Also serves general/unknown intents and,
// with comparison enabled, monthly comparison.
func (e *Engine) profitLoss(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time, queryType models.QueryType) (*models.QueryResult, error) {
	sales, expenses, err := e.totals(ctx, userID, intent, start, end)
	if err != nil {
		return nil, err
	}

	result := models.NewQueryResult(models.ResultSummary, queryType)
	result.Title = "Profit and Loss"

	if sales.count > 0 || expenses.count > 0 {
		profit := sales.amount - expenses.amount
		result.Data = append(result.Data,
			map[string]any{"item": "Sales", "amount": sales.amount},
			map[string]any{"item": "Expenses", "amount": expenses.amount},
			map[string]any{"item": "Profit", "amount": profit},
		)
		if sales.unpaid > 0 {
			result.Data = append(result.Data,
				map[string]any{"item": "Unpaid Receivables", "amount": sales.unpaid})
		}
		result.Total = &profit
	}

	if intent.Comparison.Enabled {
		refStart, refEnd := referenceRange(start, end, intent.Comparison.CompareTo)
		refSales, refExpenses, err := e.totals(ctx, userID, intent, refStart, refEnd)
		if err != nil {
			return nil, err
		}
		result.Metadata.Compare = map[string]int64{
			"sales":    refSales.amount,
			"expenses": refExpenses.amount,
			"profit":   refSales.amount - refExpenses.amount,
		}
	}
	return result, nil
}

type ledgerTotals struct {
	amount int64
	unpaid int64
	count  int
}

func (e *Engine) totals(ctx context.Context, userID string, intent *models.QueryIntent, start, end time.Time) (sales, expenses ledgerTotals, err error) {
	saleRows, err := e.ledger.ListSales(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return sales, expenses, fmt.Errorf("profit loss sales: %w", err)
	}
	for _, r := range saleRows {
		sales.amount += r.Amount
		if r.Status == models.SaleStatusUnpaid {
			sales.unpaid += r.Amount
		}
	}
	sales.count = len(saleRows)

	expenseRows, err := e.ledger.ListExpenses(ctx, userID, ledgerFilter(intent, start, end))
	if err != nil {
		return sales, expenses, fmt.Errorf("profit loss expenses: %w", err)
	}
	for _, r := range expenseRows {
		expenses.amount += r.Amount
	}
	expenses.count = len(expenseRows)
	return sales, expenses, nil
}

// referenceRange computes the comparison period: the same-length window
// immediately before, or the same window one year earlier.
func referenceRange(start, end time.Time, compareTo string) (time.Time, time.Time) {
	if compareTo == "previous_year" {
		return start.AddDate(-1, 0, 0), end.AddDate(-1, 0, 0)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return start.AddDate(0, 0, -days), start.AddDate(0, 0, -1)
}
