package models

// QueryType is the analytical intent of a read query.
type QueryType string

const (
	QueryExpenseSummary      QueryType = "expense_summary"
	QueryExpenseByCategory   QueryType = "expense_by_category"
	QueryExpenseByDepartment QueryType = "expense_by_department"
	QueryExpenseDetail       QueryType = "expense_detail"
	QuerySalesSummary        QueryType = "sales_summary"
	QuerySalesByChannel      QueryType = "sales_by_channel"
	QuerySalesByDepartment   QueryType = "sales_by_department"
	QuerySalesByClient       QueryType = "sales_by_client"
	QuerySalesDetail         QueryType = "sales_detail"
	QueryUnpaidList          QueryType = "unpaid_list"
	QueryBankBalance         QueryType = "bank_balance"
	QueryProfitLoss          QueryType = "profit_loss"
	QueryMonthlyComparison   QueryType = "monthly_comparison"
	QueryFeeSummary          QueryType = "fee_summary"
	QueryGeneral             QueryType = "general"
	QueryUnknown             QueryType = "unknown"
)

// ValidQueryType reports whether q is a known query type.
func ValidQueryType(q QueryType) bool {
	switch q {
	case QueryExpenseSummary, QueryExpenseByCategory, QueryExpenseByDepartment,
		QueryExpenseDetail, QuerySalesSummary, QuerySalesByChannel,
		QuerySalesByDepartment, QuerySalesByClient, QuerySalesDetail,
		QueryUnpaidList, QueryBankBalance, QueryProfitLoss,
		QueryMonthlyComparison, QueryFeeSummary, QueryGeneral, QueryUnknown:
		return true
	}
	return false
}

// TimeRangeType selects how a query's date bounds are computed.
type TimeRangeType string

const (
	RangeCurrentMonth      TimeRangeType = "current_month"
	RangeLastMonth         TimeRangeType = "last_month"
	RangeCurrentFiscalYear TimeRangeType = "current_fiscal_year"
	RangeCustom            TimeRangeType = "custom"
	RangeAll               TimeRangeType = "all"
)

// TimeRange is the classifier's (or caller's) requested period.
// StartDate/EndDate are ISO dates, only meaningful for RangeCustom.
type TimeRange struct {
	Type      TimeRangeType `json:"type"`
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
}

// QueryFilters narrows which ledger rows a query reads.
type QueryFilters struct {
	Department    *Department `json:"department,omitempty"`
	AccountItem   *string     `json:"account_item,omitempty"`
	Channel       *Channel    `json:"channel,omitempty"`
	Status        *SaleStatus `json:"status,omitempty"`
	BankAccountID *string     `json:"bank_account_id,omitempty"`
}

// Aggregation controls grouping and presentation of query rows.
type Aggregation struct {
	GroupBy   string `json:"group_by,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"` // "asc" or "desc"
	Limit     int    `json:"limit,omitempty"`
}

// Comparison asks for the same aggregate over a reference period.
type Comparison struct {
	Enabled   bool   `json:"enabled"`
	CompareTo string `json:"compare_to,omitempty"` // "previous_period" or "previous_year"
}

// QueryIntent is the structured form of an analytical question.
type QueryIntent struct {
	QueryType   QueryType    `json:"query_type"`
	TimeRange   TimeRange    `json:"time_range"`
	Filters     QueryFilters `json:"filters"`
	Aggregation Aggregation  `json:"aggregation"`
	Comparison  Comparison   `json:"comparison"`
}

// DefaultQueryIntent is the safe fallback when query classification fails.
func DefaultQueryIntent() *QueryIntent {
	return &QueryIntent{
		QueryType: QueryGeneral,
		TimeRange: TimeRange{Type: RangeCurrentFiscalYear},
	}
}

// ResultType shapes how a QueryResult should be rendered.
type ResultType string

const (
	ResultSummary ResultType = "summary"
	ResultTable   ResultType = "table"
	ResultChart   ResultType = "chart"
)

// Column describes one column of a tabular result.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ResultMetadata carries the query context a result was produced under.
type ResultMetadata struct {
	QueryType QueryType        `json:"query_type"`
	DateRange *DateRange       `json:"date_range,omitempty"`
	Filters   *QueryFilters    `json:"filters,omitempty"`
	Compare   map[string]int64 `json:"comparison,omitempty"`
}

// DateRange is a resolved, inclusive ISO date interval.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// QueryResult is the engine's answer to a QueryIntent. Data is never nil.
type QueryResult struct {
	Type     ResultType       `json:"type"`
	Title    string           `json:"title,omitempty"`
	Columns  []Column         `json:"columns,omitempty"`
	Data     []map[string]any `json:"data"`
	Total    *int64           `json:"total,omitempty"`
	Metadata ResultMetadata   `json:"metadata"`
}

// NewQueryResult builds a result with a non-nil Data slice.
func NewQueryResult(typ ResultType, queryType QueryType) *QueryResult {
	return &QueryResult{
		Type:     typ,
		Data:     []map[string]any{},
		Metadata: ResultMetadata{QueryType: queryType},
	}
}
