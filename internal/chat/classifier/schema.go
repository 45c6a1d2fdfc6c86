package classifier

// JSON Schemas the model output must satisfy before it is trusted.
// Validation runs after irrelevant payloads are stripped, so each schema
// only has to describe the fields that survive for its action type.

const actionIntentSchema = `{
  "type": "object",
  "required": ["action_type", "confidence"],
  "properties": {
    "action_type": {
      "type": "string",
      "enum": ["register_expense", "register_sale", "query"]
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "expense_data": {
      "type": "object",
      "required": ["transaction_date", "amount", "account_item", "department"],
      "properties": {
        "transaction_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "amount": {"type": "number", "exclusiveMinimum": 0},
        "account_item": {"type": "string", "minLength": 1},
        "department": {"type": "string", "enum": ["PHOTO", "VIDEO", "WEB", "COMMON"]},
        "description": {"type": "string"}
      }
    },
    "sale_data": {
      "type": "object",
      "required": ["transaction_date", "amount", "client_name", "department", "channel", "status"],
      "properties": {
        "transaction_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "amount": {"type": "number", "exclusiveMinimum": 0},
        "client_name": {"type": "string", "minLength": 1},
        "department": {"type": "string", "enum": ["PHOTO", "VIDEO", "WEB", "COMMON"]},
        "channel": {
          "type": "string",
          "enum": ["DIRECT", "REFERRAL", "SNS", "WEBSITE", "PLATFORM_A", "PLATFORM_B", "REPEAT", "OTHER"]
        },
        "status": {"type": "string", "enum": ["PAID", "UNPAID"]},
        "description": {"type": "string"}
      }
    }
  }
}`

const queryIntentSchema = `{
  "type": "object",
  "required": ["query_type"],
  "properties": {
    "query_type": {
      "type": "string",
      "enum": [
        "expense_summary", "expense_by_category", "expense_by_department", "expense_detail",
        "sales_summary", "sales_by_channel", "sales_by_department", "sales_by_client",
        "sales_detail", "unpaid_list", "bank_balance", "profit_loss",
        "monthly_comparison", "fee_summary", "general", "unknown"
      ]
    },
    "time_range": {
      "type": "object",
      "properties": {
        "type": {
          "type": "string",
          "enum": ["current_month", "last_month", "current_fiscal_year", "custom", "all"]
        },
        "start_date": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "end_date": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
      }
    },
    "filters": {
      "type": "object",
      "properties": {
        "department": {"type": ["string", "null"], "enum": ["PHOTO", "VIDEO", "WEB", "COMMON", null]},
        "account_item": {"type": ["string", "null"]},
        "channel": {
          "type": ["string", "null"],
          "enum": ["DIRECT", "REFERRAL", "SNS", "WEBSITE", "PLATFORM_A", "PLATFORM_B", "REPEAT", "OTHER", null]
        },
        "status": {"type": ["string", "null"], "enum": ["PAID", "UNPAID", null]},
        "bank_account_id": {"type": ["string", "null"]}
      }
    },
    "aggregation": {
      "type": "object",
      "properties": {
        "group_by": {"type": ["string", "null"]},
        "sort_by": {"type": ["string", "null"]},
        "sort_order": {"type": ["string", "null"], "enum": ["asc", "desc", null]},
        "limit": {"type": ["integer", "null"], "minimum": 1}
      }
    },
    "comparison": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "compare_to": {"type": ["string", "null"], "enum": ["previous_period", "previous_year", null]}
      }
    }
  }
}`
