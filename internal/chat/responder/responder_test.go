package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/llm"
	"ledger-assistant/internal/models"
)

type fakeLLM struct {
	content string
	tokens  int
	err     error
	calls   int
	lastReq llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, TokensUsed: f.tokens, FinishReason: "stop"}, nil
}

func summaryResult(queryType models.QueryType, rows int) *models.QueryResult {
	result := models.NewQueryResult(models.ResultSummary, queryType)
	result.Title = "Expense Summary"
	var total int64
	for i := 0; i < rows; i++ {
		amount := int64(1000 * (i + 1))
		total += amount
		result.Data = append(result.Data, map[string]any{
			"month":  "2024-06",
			"amount": amount,
		})
	}
	if rows > 0 {
		result.Total = &total
	}
	return result
}

func TestResponder_NoData(t *testing.T) {
	fake := &fakeLLM{}
	r := New(fake, logger.NewTestLogger(t))

	text, tokens := r.Respond(context.Background(), "expenses?", summaryResult(models.QueryExpenseSummary, 0))

	assert.Equal(t, "No expenses were found for this period.", text)
	assert.Zero(t, tokens)
	assert.Zero(t, fake.calls, "no LLM call for an empty result")
}

func TestResponder_NoData_UnmappedTypeFallsBack(t *testing.T) {
	r := New(&fakeLLM{}, logger.NewTestLogger(t))

	text, tokens := r.Respond(context.Background(), "?", summaryResult(models.QueryGeneral, 0))

	assert.Equal(t, noDataFallback, text)
	assert.Zero(t, tokens)
}

func TestResponder_SimpleTypeSkipsLLM(t *testing.T) {
	fake := &fakeLLM{}
	r := New(fake, logger.NewTestLogger(t))

	text, tokens := r.Respond(context.Background(), "expenses?", summaryResult(models.QueryExpenseSummary, 2))

	assert.Zero(t, fake.calls)
	assert.Zero(t, tokens)
	assert.True(t, strings.HasPrefix(text, "Expense Summary"))
	assert.Contains(t, text, "2024-06: ¥1,000")
	assert.Contains(t, text, "Total: ¥3,000")
}

func TestResponder_LargeResultUsesLLM(t *testing.T) {
	fake := &fakeLLM{content: "You spent ¥21,000 over six months.", tokens: 95}
	r := New(fake, logger.NewTestLogger(t))

	text, tokens := r.Respond(context.Background(), "expenses?", summaryResult(models.QueryExpenseSummary, 6))

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "You spent ¥21,000 over six months.", text)
	assert.Equal(t, 95, tokens)
	assert.Contains(t, fake.lastReq.UserMessage, "Query type: expense_summary")
	assert.Contains(t, fake.lastReq.UserMessage, "Total: 21000")
}

func TestResponder_NonSimpleTypeUsesLLM(t *testing.T) {
	fake := &fakeLLM{content: "Your biggest category was equipment.", tokens: 60}
	r := New(fake, logger.NewTestLogger(t))

	result := models.NewQueryResult(models.ResultChart, models.QueryExpenseByCategory)
	result.Title = "Expenses by Category"
	result.Data = append(result.Data, map[string]any{"category": "equipment expense", "amount": int64(5000)})

	text, tokens := r.Respond(context.Background(), "breakdown?", result)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "Your biggest category was equipment.", text)
	assert.Equal(t, 60, tokens)
}

func TestResponder_LLMFailureFallsBackToRuleBased(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeLLM
	}{
		{"transport error", &fakeLLM{err: errors.New("timeout")}},
		{"empty content", &fakeLLM{content: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.fake, logger.NewTestLogger(t))

			text, tokens := r.Respond(context.Background(), "expenses?", summaryResult(models.QueryExpenseSummary, 6))

			assert.Zero(t, tokens)
			assert.True(t, strings.HasPrefix(text, "Expense Summary"))
			assert.Contains(t, text, "Total: ¥21,000")
		})
	}
}

func TestResponder_PromptEmbedsAtMostTenRows(t *testing.T) {
	fake := &fakeLLM{content: "Summary."}
	r := New(fake, logger.NewTestLogger(t))

	result := summaryResult(models.QueryExpenseByCategory, 0)
	result.Metadata.QueryType = models.QueryExpenseByCategory
	for i := 0; i < 15; i++ {
		result.Data = append(result.Data, map[string]any{"category": "travel expense", "amount": int64(100)})
	}

	r.Respond(context.Background(), "breakdown?", result)

	require.Equal(t, 1, fake.calls)
	assert.Equal(t, strings.Count(fake.lastReq.UserMessage, "travel expense"), 10)
}
