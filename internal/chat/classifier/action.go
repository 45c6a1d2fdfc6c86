// Package classifier extracts structured intents from free-text messages
// via the LLM collaborator. Both classifiers are total functions: they
// never return an error, degrading to a safe default that routes to the
// non-mutating query branch instead.
package classifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/llm"
	"ledger-assistant/internal/models"
)

// ActionClassifier decides whether a message mutates the ledger.
type ActionClassifier struct {
	llm    llm.Client
	logger logger.Logger
	now    func() time.Time
}

func NewActionClassifier(client llm.Client, log logger.Logger) *ActionClassifier {
	return &ActionClassifier{
		llm: client,
		logger: log.With(map[string]interface{}{
			"component": "action-classifier",
		}),
		now: time.Now,
	}
}

// Classify extracts an ActionIntent from the message. Any failure
// (transport error, non-JSON content, schema mismatch, invalid payload)
// yields the safe default {query, 1.0} rather than an error.
func (c *ActionClassifier) Classify(ctx context.Context, message string) (*models.ActionIntent, int) {
	resp, err := c.llm.Complete(ctx, llm.Request{
		SystemPrompt:    buildActionPrompt(c.now()),
		UserMessage:     message,
		JSONMode:        true,
		MaxOutputTokens: 512,
	})

	tokens := 0
	if resp != nil {
		tokens = resp.TokensUsed
	}
	if err != nil {
		c.logger.Warn("action classification failed, using safe default", map[string]interface{}{
			"error": err.Error(),
		})
		return models.DefaultActionIntent(), tokens
	}

	intent, parseErr := parseActionIntent(resp.Content)
	if parseErr != "" {
		c.logger.Warn("action classifier output rejected, using safe default", map[string]interface{}{
			"reason": parseErr,
		})
		return models.DefaultActionIntent(), tokens
	}

	c.logger.Info("action classified", map[string]interface{}{
		"actionType": string(intent.ActionType),
		"confidence": intent.Confidence,
	})
	return intent, tokens
}

// parseActionIntent validates raw model output into a typed intent.
// Returns a non-empty reason string on rejection.
func parseActionIntent(content string) (*models.ActionIntent, string) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, "empty content"
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, "content is not valid JSON: " + err.Error()
	}

	// Strip payloads irrelevant to the resolved action type before
	// validation so a half-filled sibling object cannot fail the schema.
	actionType, _ := payload["action_type"].(string)
	switch actionType {
	case string(models.ActionRegisterExpense):
		delete(payload, "sale_data")
	case string(models.ActionRegisterSale):
		delete(payload, "expense_data")
	default:
		delete(payload, "expense_data")
		delete(payload, "sale_data")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(actionIntentSchema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return nil, "schema validation error: " + err.Error()
	}
	if !result.Valid() {
		return nil, "schema mismatch: " + schemaErrors(result)
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return nil, "normalize error: " + err.Error()
	}

	var intent models.ActionIntent
	if err := json.Unmarshal(normalized, &intent); err != nil {
		return nil, "decode error: " + err.Error()
	}

	switch intent.ActionType {
	case models.ActionRegisterExpense:
		if intent.Expense == nil {
			return nil, "register_expense without expense_data"
		}
		if err := intent.Expense.Validate(); err != nil {
			return nil, "invalid expense_data: " + err.Error()
		}
	case models.ActionRegisterSale:
		if intent.Sale == nil {
			return nil, "register_sale without sale_data"
		}
		if err := intent.Sale.Validate(); err != nil {
			return nil, "invalid sale_data: " + err.Error()
		}
	}

	return &intent, ""
}

// stripCodeFence removes a surrounding markdown fence that models
// sometimes add despite JSON mode.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func schemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
