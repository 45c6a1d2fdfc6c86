package queryengine

import (
	"sort"
	"time"

	"ledger-assistant/internal/models"
)

// bucket is one (key, amount) contribution before group-by-sum.
type bucket struct {
	key    string
	amount int64
}

func expenseBuckets(rows []models.ExpenseRow) []bucket {
	buckets := make([]bucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, bucket{key: r.TransactionDate.Format("2006-01"), amount: r.Amount})
	}
	return buckets
}

func saleBuckets(rows []models.SaleRow) []bucket {
	buckets := make([]bucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, bucket{key: r.TransactionDate.Format("2006-01"), amount: r.Amount})
	}
	return buckets
}

// groupBySum folds buckets into per-key sums, preserving first-seen
// key order for the caller to re-sort.
func groupBySum(buckets []bucket) []bucket {
	sums := make(map[string]int64, len(buckets))
	order := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if _, seen := sums[b.key]; !seen {
			order = append(order, b.key)
		}
		sums[b.key] += b.amount
	}

	grouped := make([]bucket, 0, len(order))
	for _, key := range order {
		grouped = append(grouped, bucket{key: key, amount: sums[key]})
	}
	return grouped
}

// monthlyBreakdown shapes a summary result: one row per month in
// chronological order, total across the whole range.
func monthlyBreakdown(queryType models.QueryType, title string, buckets []bucket) *models.QueryResult {
	grouped := groupBySum(buckets)
	sort.Slice(grouped, func(i, j int) bool { return grouped[i].key < grouped[j].key })

	result := models.NewQueryResult(models.ResultSummary, queryType)
	result.Title = title
	result.Columns = []models.Column{
		{Key: "month", Label: "Month"},
		{Key: "amount", Label: "Amount"},
	}

	var total int64
	for _, g := range grouped {
		total += g.amount
		result.Data = append(result.Data, map[string]any{
			"month":  g.key,
			"amount": g.amount,
		})
	}
	if len(result.Data) > 0 {
		result.Total = &total
	}
	return result
}

// groupedResult shapes a group-by aggregate: descending by amount
// unless the intent asks for ascending, optional row limit.
func groupedResult(queryType models.QueryType, title, key string, buckets []bucket, agg models.Aggregation) *models.QueryResult {
	grouped := groupBySum(buckets)
	asc := agg.SortOrder == "asc"
	sort.SliceStable(grouped, func(i, j int) bool {
		if asc {
			return grouped[i].amount < grouped[j].amount
		}
		return grouped[i].amount > grouped[j].amount
	})
	if agg.Limit > 0 && len(grouped) > agg.Limit {
		grouped = grouped[:agg.Limit]
	}

	result := models.NewQueryResult(models.ResultChart, queryType)
	result.Title = title
	result.Columns = []models.Column{
		{Key: key, Label: title},
		{Key: "amount", Label: "Amount"},
	}

	var total int64
	for _, g := range grouped {
		total += g.amount
		result.Data = append(result.Data, map[string]any{
			key:      g.key,
			"amount": g.amount,
		})
	}
	if len(result.Data) > 0 {
		result.Total = &total
	}
	return result
}

// detailRows orders listing rows by transaction date, oldest first
// unless the intent asks for the newest first, then applies the row
// cap. The cap takes effect after sorting so "newest 20" means the 20
// most recent rows, not the oldest 20 reversed.
func detailRows[T any](rows []T, agg models.Aggregation, dateOf func(T) time.Time) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)

	desc := agg.SortOrder == "desc"
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return dateOf(sorted[i]).After(dateOf(sorted[j]))
		}
		return dateOf(sorted[i]).Before(dateOf(sorted[j]))
	})
	return capRows(sorted, detailLimit(agg))
}

func detailLimit(agg models.Aggregation) int {
	if agg.Limit > 0 {
		return agg.Limit
	}
	return defaultDetailLimit
}

func capRows[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
