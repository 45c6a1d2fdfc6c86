// Package responder renders a QueryResult as natural language. Empty
// results get a canned message, small simple results a deterministic
// rendering, everything else goes through the LLM with a rule-based
// fallback.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/llm"
	"ledger-assistant/internal/models"
)

// maxPromptRows caps how many result rows are embedded into the LLM
// prompt.
const maxPromptRows = 10

// simpleTypes may be rendered rule-based without the LLM when the
// result is small enough.
var simpleTypes = map[models.QueryType]bool{
	models.QueryExpenseSummary: true,
	models.QuerySalesSummary:   true,
	models.QueryProfitLoss:     true,
	models.QueryBankBalance:    true,
}

// simpleRowLimit is the row count up to which a simple type skips the
// LLM entirely.
const simpleRowLimit = 5

var noDataMessages = map[models.QueryType]string{
	models.QueryExpenseSummary:      "No expenses were found for this period.",
	models.QueryExpenseByCategory:   "No expenses were found for this period.",
	models.QueryExpenseByDepartment: "No expenses were found for this period.",
	models.QueryExpenseDetail:       "No expenses were found for this period.",
	models.QuerySalesSummary:        "No sales were found for this period.",
	models.QuerySalesByChannel:      "No sales were found for this period.",
	models.QuerySalesByDepartment:   "No sales were found for this period.",
	models.QuerySalesByClient:       "No sales were found for this period.",
	models.QuerySalesDetail:         "No sales were found for this period.",
	models.QueryUnpaidList:          "There are no unpaid sales. Everything has been collected.",
	models.QueryBankBalance:         "No bank accounts are registered.",
	models.QueryFeeSummary:          "No platform fees were charged in this period.",
}

const noDataFallback = "No matching records were found."

const responseSystemPrompt = `You are an accounting assistant summarizing ledger query results.
Answer in 1-3 short sentences, optionally followed by a few bullet points.
Formatting rules:
- Amounts in yen with a currency symbol and thousands separators, e.g. ¥1,500.
- Dates as "2025年8月29日".
- No emoji.
- Mention the total when one is present.
Do not invent numbers that are not in the data.`

// Responder turns query results into reply text.
type Responder struct {
	llm    llm.Client
	logger logger.Logger
}

func New(client llm.Client, log logger.Logger) *Responder {
	return &Responder{
		llm: client,
		logger: log.With(map[string]interface{}{
			"component": "responder",
		}),
	}
}

// Respond renders the result. The returned token count is zero for
// every non-LLM path.
func (r *Responder) Respond(ctx context.Context, userMessage string, result *models.QueryResult) (string, int) {
	if len(result.Data) == 0 {
		return noDataMessage(result.Metadata.QueryType), 0
	}

	if simpleTypes[result.Metadata.QueryType] && len(result.Data) <= simpleRowLimit {
		return renderRuleBased(result), 0
	}

	resp, err := r.llm.Complete(ctx, llm.Request{
		SystemPrompt:    responseSystemPrompt,
		UserMessage:     buildResponsePrompt(userMessage, result),
		MaxOutputTokens: 512,
	})
	if err != nil || resp == nil || strings.TrimSpace(resp.Content) == "" {
		reason := "empty content"
		if err != nil {
			reason = err.Error()
		}
		r.logger.Warn("response generation failed, falling back to rule-based rendering", map[string]interface{}{
			"error": reason,
		})
		return renderRuleBased(result), 0
	}
	return strings.TrimSpace(resp.Content), resp.TokensUsed
}

func noDataMessage(queryType models.QueryType) string {
	if msg, ok := noDataMessages[queryType]; ok {
		return msg
	}
	return noDataFallback
}

// renderRuleBased is the deterministic path: title, one line per row,
// total. Shared by simple results and the LLM-failure fallback.
func renderRuleBased(result *models.QueryResult) string {
	var b strings.Builder
	if result.Title != "" {
		b.WriteString(result.Title)
		b.WriteString("\n")
	}
	for _, row := range capPromptRows(result.Data, maxPromptRows) {
		b.WriteString("- ")
		b.WriteString(rowLine(row))
		b.WriteString("\n")
	}
	if result.Total != nil {
		b.WriteString(fmt.Sprintf("Total: %s", models.FormatYen(*result.Total)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// rowLabelKeys is the order in which a row's display label is looked up.
var rowLabelKeys = []string{"item", "month", "category", "department", "channel", "client", "account", "date"}

func rowLine(row map[string]any) string {
	label := ""
	for _, key := range rowLabelKeys {
		if v, ok := row[key].(string); ok && v != "" {
			label = v
			break
		}
	}

	amount, ok := rowAmount(row)
	if !ok {
		return label
	}
	if label == "" {
		return models.FormatYen(amount)
	}
	return fmt.Sprintf("%s: %s", label, models.FormatYen(amount))
}

func rowAmount(row map[string]any) (int64, bool) {
	for _, key := range []string{"amount", "balance"} {
		switch v := row[key].(type) {
		case int64:
			return v, true
		case float64:
			return int64(v), true
		case int:
			return int64(v), true
		}
	}
	return 0, false
}

func buildResponsePrompt(userMessage string, result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n", userMessage)
	fmt.Fprintf(&b, "Query type: %s\n", result.Metadata.QueryType)
	if result.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", result.Title)
	}
	if result.Metadata.DateRange != nil {
		fmt.Fprintf(&b, "Period: %s to %s\n", result.Metadata.DateRange.Start, result.Metadata.DateRange.End)
	}
	fmt.Fprintf(&b, "Row count: %d\n", len(result.Data))
	if result.Total != nil {
		fmt.Fprintf(&b, "Total: %d\n", *result.Total)
	}
	if len(result.Metadata.Compare) > 0 {
		compare, _ := json.Marshal(result.Metadata.Compare)
		fmt.Fprintf(&b, "Reference period: %s\n", compare)
	}

	rows, _ := json.Marshal(capPromptRows(result.Data, maxPromptRows))
	fmt.Fprintf(&b, "Rows (first %d): %s\n", maxPromptRows, rows)
	return b.String()
}

func capPromptRows(rows []map[string]any, limit int) []map[string]any {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
