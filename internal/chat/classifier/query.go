package classifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/llm"
	"ledger-assistant/internal/models"
)

// Context is caller-supplied hints for query classification. A context
// department is applied only when the classifier leaves the filter unset;
// classifier output always takes precedence.
type Context struct {
	FiscalYear *int
	Department *models.Department
}

// QueryClassifier turns an analytical question into a QueryIntent.
type QueryClassifier struct {
	llm    llm.Client
	logger logger.Logger
	now    func() time.Time
}

func NewQueryClassifier(client llm.Client, log logger.Logger) *QueryClassifier {
	return &QueryClassifier{
		llm: client,
		logger: log.With(map[string]interface{}{
			"component": "query-classifier",
		}),
		now: time.Now,
	}
}

// Classify extracts a QueryIntent. Like the action classifier it is a
// total function; failures yield {general, current_fiscal_year}.
func (c *QueryClassifier) Classify(ctx context.Context, message string, callerCtx *Context) (*models.QueryIntent, int) {
	resp, err := c.llm.Complete(ctx, llm.Request{
		SystemPrompt:    buildQueryPrompt(c.now(), callerCtx),
		UserMessage:     message,
		JSONMode:        true,
		MaxOutputTokens: 512,
	})

	tokens := 0
	if resp != nil {
		tokens = resp.TokensUsed
	}
	if err != nil {
		c.logger.Warn("query classification failed, using safe default", map[string]interface{}{
			"error": err.Error(),
		})
		return applyContext(models.DefaultQueryIntent(), callerCtx), tokens
	}

	intent, parseErr := parseQueryIntent(resp.Content)
	if parseErr != "" {
		c.logger.Warn("query classifier output rejected, using safe default", map[string]interface{}{
			"reason": parseErr,
		})
		return applyContext(models.DefaultQueryIntent(), callerCtx), tokens
	}

	intent = applyContext(intent, callerCtx)

	c.logger.Info("query classified", map[string]interface{}{
		"queryType": string(intent.QueryType),
		"timeRange": string(intent.TimeRange.Type),
	})
	return intent, tokens
}

// queryPayload mirrors the JSON contract, with pointers so explicit
// nulls and absent fields both decode cleanly.
type queryPayload struct {
	QueryType string `json:"query_type"`
	TimeRange struct {
		Type      string  `json:"type"`
		StartDate *string `json:"start_date"`
		EndDate   *string `json:"end_date"`
	} `json:"time_range"`
	Filters struct {
		Department    *string `json:"department"`
		AccountItem   *string `json:"account_item"`
		Channel       *string `json:"channel"`
		Status        *string `json:"status"`
		BankAccountID *string `json:"bank_account_id"`
	} `json:"filters"`
	Aggregation struct {
		GroupBy   *string `json:"group_by"`
		SortBy    *string `json:"sort_by"`
		SortOrder *string `json:"sort_order"`
		Limit     *int    `json:"limit"`
	} `json:"aggregation"`
	Comparison struct {
		Enabled   bool    `json:"enabled"`
		CompareTo *string `json:"compare_to"`
	} `json:"comparison"`
}

func parseQueryIntent(content string) (*models.QueryIntent, string) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, "empty content"
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(queryIntentSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, "schema validation error: " + err.Error()
	}
	if !result.Valid() {
		return nil, "schema mismatch: " + schemaErrors(result)
	}

	var payload queryPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, "decode error: " + err.Error()
	}

	intent := &models.QueryIntent{
		QueryType: models.QueryType(payload.QueryType),
		TimeRange: models.TimeRange{Type: models.TimeRangeType(payload.TimeRange.Type)},
	}
	if intent.TimeRange.Type == "" {
		intent.TimeRange.Type = models.RangeCurrentFiscalYear
	}
	if payload.TimeRange.StartDate != nil {
		intent.TimeRange.StartDate = *payload.TimeRange.StartDate
	}
	if payload.TimeRange.EndDate != nil {
		intent.TimeRange.EndDate = *payload.TimeRange.EndDate
	}

	if payload.Filters.Department != nil {
		d := models.Department(*payload.Filters.Department)
		intent.Filters.Department = &d
	}
	intent.Filters.AccountItem = payload.Filters.AccountItem
	if payload.Filters.Channel != nil {
		ch := models.Channel(*payload.Filters.Channel)
		intent.Filters.Channel = &ch
	}
	if payload.Filters.Status != nil {
		st := models.SaleStatus(*payload.Filters.Status)
		intent.Filters.Status = &st
	}
	intent.Filters.BankAccountID = payload.Filters.BankAccountID

	if payload.Aggregation.GroupBy != nil {
		intent.Aggregation.GroupBy = *payload.Aggregation.GroupBy
	}
	if payload.Aggregation.SortBy != nil {
		intent.Aggregation.SortBy = *payload.Aggregation.SortBy
	}
	if payload.Aggregation.SortOrder != nil {
		intent.Aggregation.SortOrder = *payload.Aggregation.SortOrder
	}
	if payload.Aggregation.Limit != nil {
		intent.Aggregation.Limit = *payload.Aggregation.Limit
	}

	intent.Comparison.Enabled = payload.Comparison.Enabled
	if payload.Comparison.CompareTo != nil {
		intent.Comparison.CompareTo = *payload.Comparison.CompareTo
	}

	return intent, ""
}

func applyContext(intent *models.QueryIntent, callerCtx *Context) *models.QueryIntent {
	if callerCtx == nil {
		return intent
	}
	if intent.Filters.Department == nil && callerCtx.Department != nil {
		d := *callerCtx.Department
		intent.Filters.Department = &d
	}
	return intent
}
