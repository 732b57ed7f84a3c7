package insights

import (
	"fmt"
	"strings"
)

// complaintColumns is the select list shared by every working-set query.
// Order matters: storage scans rows positionally against this list.
const complaintColumns = `complaint_id, date, country, channel, category, status,
		sla_hours, amount, customer_id, is_escalated`

// BuildComplaintQuery constructs the parameterized working-set query for a
// filter selection. Returns (query, args) for use with QueryContext.
//
// The WHERE clause is a conjunction of:
//   - date BETWEEN $1 AND $2 (always present, inclusive on both ends)
//   - one "dimension IN (...)" clause per non-empty dimension set
//
// Every user-supplied value is bound via a positional $n placeholder; no value
// is ever interpolated into the query text. An empty dimension set contributes
// no clause at all, so it places no restriction on that dimension.
//
// Rows are ordered by complaint_id so that repeated executions against an
// unchanged store return identical working sets.
func BuildComplaintQuery(sel FilterSelection) (string, []interface{}) {
	query := `
		SELECT ` + complaintColumns + `
		FROM complaints
		WHERE date BETWEEN $1 AND $2`
	args := []interface{}{sel.StartDate.Format(DateLayout), sel.EndDate.Format(DateLayout)}

	conditions, args, _ := buildDimensionConditions(sel, args, 3)

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY complaint_id"

	return query, args
}

// buildDimensionConditions appends one IN clause per non-empty dimension set.
// Returns (conditions, args, nextParamIndex).
func buildDimensionConditions(
	sel FilterSelection,
	args []interface{},
	paramIndex int,
) ([]string, []interface{}, int) {
	var conditions []string

	dimensions := []struct {
		column string
		values []string
	}{
		{"country", sel.Countries},
		{"channel", sel.Channels},
		{"category", sel.Categories},
		{"status", sel.Statuses},
	}

	for _, dim := range dimensions {
		if len(dim.values) == 0 {
			continue
		}

		placeholders := make([]string, 0, len(dim.values))

		for _, value := range dim.values {
			placeholders = append(placeholders, fmt.Sprintf("$%d", paramIndex))
			args = append(args, value)
			paramIndex++
		}

		conditions = append(conditions, dim.column+" IN ("+strings.Join(placeholders, ", ")+")")
	}

	return conditions, args, paramIndex
}

// CategoryRankingQuery is the filter-independent analytical query over the
// full complaints table.
//
// Stage 1 (daily_stats) groups by (date, category, country) producing a row
// count and amount sum per group. Stage 2 ranks each category's daily_count
// within its country (RANK, so ties share a rank and the next distinct count
// skips ahead) and accumulates daily_amount in ascending date order across the
// entire grouped result. The running-sum frame is pinned to date order only,
// which keeps cumulative_amount monotonically non-decreasing for non-negative
// amounts. The result is truncated to the first 100 rows in date order.
const CategoryRankingQuery = `
	WITH daily_stats AS (
		SELECT
			date,
			category,
			country,
			COUNT(*) AS daily_count,
			SUM(amount) AS daily_amount
		FROM complaints
		GROUP BY date, category, country
	),
	ranked_categories AS (
		SELECT
			date,
			category,
			country,
			daily_count,
			daily_amount,
			RANK() OVER (PARTITION BY country ORDER BY daily_count DESC) AS category_rank,
			SUM(daily_amount) OVER (
				ORDER BY date, category, country
				ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW
			) AS cumulative_amount
		FROM daily_stats
	)
	SELECT date, category, country, daily_count, daily_amount, category_rank, cumulative_amount
	FROM ranked_categories
	ORDER BY date, category, country
	LIMIT 100
`

// DistinctDimensionQuery returns the discovery query for one filterable
// dimension column. The column name comes from a fixed internal list, never
// from user input.
func DistinctDimensionQuery(column string) string {
	return "SELECT DISTINCT " + column + " FROM complaints ORDER BY " + column
}

// DateSpanQuery discovers the overall date span of the record store.
const DateSpanQuery = `SELECT MIN(date), MAX(date) FROM complaints`
