package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/cx-insights/complaints/internal/config"
	"github.com/cx-insights/complaints/internal/insights"
)

// integrationRow mirrors one complaints table row for fixture setup.
type integrationRow struct {
	id        int64
	date      string
	country   string
	channel   string
	category  string
	status    string
	slaHours  int
	amount    float64
	escalated int
}

func insertRows(ctx context.Context, t *testing.T, store *ComplaintStore, rows []integrationRow) {
	t.Helper()

	conn, err := store.conn.Acquire(ctx)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	for _, row := range rows {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO complaints
				(complaint_id, date, country, channel, category, status, sla_hours, amount, customer_id, is_escalated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			row.id, row.date, row.country, row.channel, row.category, row.status,
			row.slaHours, row.amount, "CUST-1000", row.escalated,
		)
		require.NoError(t, err)
	}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()

	date, err := time.Parse(insights.DateLayout, value)
	require.NoError(t, err)

	return date
}

// TestComplaintStoreIntegration exercises the store against a real PostgreSQL
// instance: dimension discovery, filtered working-set queries, and the
// ranking/cumulative query.
func TestComplaintStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := config.SetupTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = testDB.Connection.Close()
		_ = testcontainers.TerminateContainer(testDB.Container)
	})

	conn, err := NewConnectionFromDB(testDB.Connection)
	require.NoError(t, err)

	store, err := NewComplaintStore(conn)
	require.NoError(t, err)

	t.Run("empty table degrades gracefully", func(t *testing.T) {
		dims, err := store.DiscoverDimensions(ctx)
		require.NoError(t, err)

		assert.Empty(t, dims.Countries)
		assert.Empty(t, dims.Statuses)

		today := time.Now().UTC().Format(insights.DateLayout)
		assert.Equal(t, today, dims.MinDate.Format(insights.DateLayout))
		assert.Equal(t, today, dims.MaxDate.Format(insights.DateLayout))
	})

	// Fixture: two countries, staged so USA has a rank tie on daily counts.
	//
	// USA daily groups: (01-10, Billing) count 2, (01-11, Shipping) count 2,
	// (01-10, Shipping) count 1 -> RANK 1, 1, 3.
	insertRows(ctx, t, store, []integrationRow{
		{1, "2025-01-10", "USA", "Email", "Billing", "Open", 24, 100.00, 1},
		{2, "2025-01-10", "USA", "Chat", "Billing", "Open", 48, 50.00, 0},
		{3, "2025-01-10", "USA", "Phone", "Shipping", "Closed", 36, 25.00, 0},
		{4, "2025-01-11", "USA", "Email", "Shipping", "Open", 12, 75.00, 0},
		{5, "2025-01-11", "USA", "Chat", "Shipping", "Resolved", 60, 125.00, 1},
		{6, "2025-01-12", "UK", "Email", "Billing", "Open", 72, 200.00, 0},
	})

	t.Run("discovers distinct values and date span", func(t *testing.T) {
		dims, err := store.DiscoverDimensions(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"UK", "USA"}, dims.Countries)
		assert.Equal(t, []string{"Chat", "Email", "Phone"}, dims.Channels)
		assert.Equal(t, []string{"Billing", "Shipping"}, dims.Categories)
		assert.Equal(t, []string{"Closed", "Open", "Resolved"}, dims.Statuses)
		assert.Equal(t, "2025-01-10", dims.MinDate.Format(insights.DateLayout))
		assert.Equal(t, "2025-01-12", dims.MaxDate.Format(insights.DateLayout))
	})

	t.Run("working set honors every filter conjunctively", func(t *testing.T) {
		workingSet, err := store.QueryComplaints(ctx, insights.FilterSelection{
			StartDate:  day(t, "2025-01-10"),
			EndDate:    day(t, "2025-01-11"),
			Countries:  []string{"USA"},
			Categories: []string{"Shipping"},
		})
		require.NoError(t, err)

		require.Len(t, workingSet, 3)

		for _, c := range workingSet {
			assert.Equal(t, "USA", c.Country)
			assert.Equal(t, "Shipping", c.Category)
			assert.False(t, c.Date.Before(day(t, "2025-01-10")))
			assert.False(t, c.Date.After(day(t, "2025-01-11")))
		}
	})

	t.Run("date range is inclusive on both ends", func(t *testing.T) {
		workingSet, err := store.QueryComplaints(ctx, insights.FilterSelection{
			StartDate: day(t, "2025-01-10"),
			EndDate:   day(t, "2025-01-12"),
		})
		require.NoError(t, err)
		assert.Len(t, workingSet, 6)
	})

	t.Run("empty dimension set means no restriction", func(t *testing.T) {
		unrestricted, err := store.QueryComplaints(ctx, insights.FilterSelection{
			StartDate: day(t, "2025-01-10"),
			EndDate:   day(t, "2025-01-12"),
			Countries: []string{},
		})
		require.NoError(t, err)
		assert.Len(t, unrestricted, 6, "empty set must not mean match-nothing")
	})

	t.Run("identical query is idempotent", func(t *testing.T) {
		sel := insights.FilterSelection{
			StartDate: day(t, "2025-01-10"),
			EndDate:   day(t, "2025-01-12"),
			Countries: []string{"USA"},
		}

		first, err := store.QueryComplaints(ctx, sel)
		require.NoError(t, err)

		second, err := store.QueryComplaints(ctx, sel)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("inverted date range yields empty set", func(t *testing.T) {
		workingSet, err := store.QueryComplaints(ctx, insights.FilterSelection{
			StartDate: day(t, "2025-01-12"),
			EndDate:   day(t, "2025-01-10"),
		})
		require.NoError(t, err)
		assert.Empty(t, workingSet)
	})

	t.Run("ranking uses RANK with gaps per country", func(t *testing.T) {
		rankings, err := store.QueryCategoryRankings(ctx)
		require.NoError(t, err)

		usaRanks := make(map[string]int)

		for _, row := range rankings {
			if row.Country == "USA" {
				usaRanks[row.Date.Format(insights.DateLayout)+"/"+row.Category] = row.CategoryRank
			}
		}

		assert.Equal(t, 1, usaRanks["2025-01-10/Billing"], "count 2 shares rank 1")
		assert.Equal(t, 1, usaRanks["2025-01-11/Shipping"], "count 2 shares rank 1")
		assert.Equal(t, 3, usaRanks["2025-01-10/Shipping"], "count 1 skips to rank 3 after the tie")
	})

	t.Run("cumulative amount is a single monotone running sum", func(t *testing.T) {
		rankings, err := store.QueryCategoryRankings(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, rankings)

		previous := 0.0
		total := 0.0

		for i, row := range rankings {
			assert.GreaterOrEqual(t, row.CumulativeAmount, previous,
				"row %d: cumulative amount must never decrease", i)
			previous = row.CumulativeAmount
			total += row.DailyAmount
		}

		// One global accumulation across countries, so the last row carries
		// the grand total of every daily amount.
		assert.InDelta(t, total, rankings[len(rankings)-1].CumulativeAmount, 0.01)
	})

	t.Run("readiness ping succeeds", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
