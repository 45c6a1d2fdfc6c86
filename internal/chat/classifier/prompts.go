package classifier

import (
	"fmt"
	"time"
)

// actionSystemPrompt instructs the model to decide between the two ledger
// mutations and the read-query fallback, with a strict JSON contract.
// Keyword heuristics mirror how bookkeeping entries are usually phrased so
// the model lands on consistent account items and departments.
const actionSystemPrompt = `You are an intent extraction engine for a small-business financial ledger.
Today's date is %s.

Decide what the user's message asks for. Exactly one of:
- "register_expense": the user states an expense and wants it recorded
- "register_sale": the user states a sale/revenue and wants it recorded
- "query": anything else, including all questions about the ledger

Respond with ONLY a JSON object, no prose:
{
  "action_type": "register_expense" | "register_sale" | "query",
  "confidence": 0.0-1.0,
  "expense_data": {           // only when action_type is register_expense
    "transaction_date": "YYYY-MM-DD",  // default: today
    "amount": positive integer (yen),
    "account_item": "...",
    "department": "PHOTO" | "VIDEO" | "WEB" | "COMMON",
    "description": "..."      // optional
  },
  "sale_data": {              // only when action_type is register_sale
    "transaction_date": "YYYY-MM-DD",  // default: today
    "amount": positive integer (yen),
    "client_name": "...",
    "department": "PHOTO" | "VIDEO" | "WEB" | "COMMON",
    "channel": "DIRECT" | "REFERRAL" | "SNS" | "WEBSITE" | "PLATFORM_A" | "PLATFORM_B" | "REPEAT" | "OTHER",
    "status": "PAID" | "UNPAID",
    "description": "..."      // optional
  }
}

Account item heuristics:
- train/taxi/bus/fare/parking -> "travel expense"
- lunch/dinner/cafe with a client -> "entertainment expense"
- software/subscription/tool -> "supplies expense"
- rent/office -> "rent expense"
- otherwise pick the closest common bookkeeping account item

Department heuristics: photo/shooting -> PHOTO, video/film -> VIDEO,
site/homepage -> WEB, otherwise COMMON. Default channel DIRECT, default
status UNPAID. Use "query" with high confidence whenever registration
intent is not explicit.`

// querySystemPrompt turns a free-text question into a structured
// analytical intent over the ledger.
const querySystemPrompt = `You are a query planner for a small-business financial ledger.
Today's date is %s.%s

Classify the user's question. Respond with ONLY a JSON object, no prose:
{
  "query_type": one of "expense_summary", "expense_by_category", "expense_by_department",
    "expense_detail", "sales_summary", "sales_by_channel", "sales_by_department",
    "sales_by_client", "sales_detail", "unpaid_list", "bank_balance", "profit_loss",
    "monthly_comparison", "fee_summary", "general", "unknown",
  "time_range": {
    "type": "current_month" | "last_month" | "current_fiscal_year" | "custom" | "all",
    "start_date": "YYYY-MM-DD",  // only for custom
    "end_date": "YYYY-MM-DD"     // only for custom
  },
  "filters": {
    "department": "PHOTO" | "VIDEO" | "WEB" | "COMMON" | null,
    "account_item": string | null,
    "channel": "DIRECT" | "REFERRAL" | "SNS" | "WEBSITE" | "PLATFORM_A" | "PLATFORM_B" | "REPEAT" | "OTHER" | null,
    "status": "PAID" | "UNPAID" | null,
    "bank_account_id": string | null
  },
  "aggregation": {
    "group_by": string | null,
    "sort_by": string | null,
    "sort_order": "asc" | "desc" | null,
    "limit": integer | null
  },
  "comparison": {
    "enabled": boolean,
    "compare_to": "previous_period" | "previous_year" | null
  }
}

Guidance: "this month" -> current_month, "last month" -> last_month,
"this year"/"this fiscal year" -> current_fiscal_year, explicit dates ->
custom, no period mentioned -> current_fiscal_year. Vague or
conversational questions -> "general". Questions unrelated to the
ledger -> "unknown".`

func buildActionPrompt(now time.Time) string {
	return fmt.Sprintf(actionSystemPrompt, now.Format("2006-01-02"))
}

func buildQueryPrompt(now time.Time, ctx *Context) string {
	var contextLine string
	if ctx != nil {
		if ctx.Department != nil {
			contextLine += fmt.Sprintf("\nThe user is currently working in the %s department.", *ctx.Department)
		}
		if ctx.FiscalYear != nil {
			contextLine += fmt.Sprintf("\nThe user is currently viewing fiscal year %d.", *ctx.FiscalYear)
		}
	}
	return fmt.Sprintf(querySystemPrompt, now.Format("2006-01-02"), contextLine)
}
