package chat

import "ledger-assistant/internal/models"

// maxSuggestions caps the follow-up prompts attached to a reply.
const maxSuggestions = 4

var baseSuggestions = []string{
	"What's this month's total expense?",
	"Show me this fiscal year's profit and loss",
}

var actionSuggestionLists = map[models.ActionType][]string{
	models.ActionRegisterExpense: {
		"Show me this month's expenses",
		"Break down expenses by category",
	},
	models.ActionRegisterSale: {
		"Show me this month's sales",
		"Which sales are still unpaid?",
	},
}

var querySuggestionLists = map[models.QueryType][]string{
	models.QueryExpenseSummary:      {"Break down expenses by category", "Show the expense details"},
	models.QueryExpenseByCategory:   {"Break down expenses by department", "Show the expense details"},
	models.QueryExpenseByDepartment: {"Break down expenses by category"},
	models.QueryExpenseDetail:       {"What's this month's total expense?"},
	models.QuerySalesSummary:        {"Break down sales by channel", "Which sales are still unpaid?"},
	models.QuerySalesByChannel:      {"Break down sales by client"},
	models.QuerySalesByDepartment:   {"Break down sales by channel"},
	models.QuerySalesByClient:       {"Which sales are still unpaid?"},
	models.QuerySalesDetail:         {"What's this month's total sales?"},
	models.QueryUnpaidList:          {"Show me this month's sales"},
	models.QueryBankBalance:         {"Show me this fiscal year's profit and loss"},
	models.QueryProfitLoss:          {"Compare with last month", "Break down expenses by category"},
	models.QueryMonthlyComparison:   {"Break down expenses by category"},
	models.QueryFeeSummary:          {"Break down sales by channel"},
}

// actionSuggestions follows a completed (or failed) ledger mutation.
func actionSuggestions(actionType models.ActionType, success bool) []string {
	if !success {
		return capSuggestions(baseSuggestions)
	}
	return capSuggestions(append(append([]string{}, actionSuggestionLists[actionType]...), baseSuggestions...))
}

// querySuggestions follows a query reply: contextual list first, then
// the base list, capped.
func querySuggestions(queryType models.QueryType) []string {
	return capSuggestions(append(append([]string{}, querySuggestionLists[queryType]...), baseSuggestions...))
}

func capSuggestions(suggestions []string) []string {
	seen := make(map[string]bool, len(suggestions))
	out := make([]string, 0, maxSuggestions)
	for _, s := range suggestions {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
