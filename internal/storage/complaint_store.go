package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cx-insights/complaints/internal/config"
	"github.com/cx-insights/complaints/internal/insights"
)

// Sentinel errors for complaint store operations.
var (
	// ErrStoreUnavailable is returned when the record store cannot be reached
	// or a round-trip times out. Fatal to the current recomputation, retryable
	// by the caller.
	ErrStoreUnavailable = errors.New("complaint store unavailable")

	// ErrQueryFailed is returned when a query executes but fails mid-flight
	// (scan error, interrupted iteration).
	ErrQueryFailed = errors.New("complaint query failed")

	// ComplaintStore implements the read interface consumed by the insights core.
	_ insights.Store = (*ComplaintStore)(nil)
)

type (
	// ComplaintStore is the PostgreSQL-backed record store of complaint rows.
	//
	// Every method acquires a call-scoped connection handle and releases it on
	// all exit paths, including failures. No method writes; concurrent readers
	// across sessions are safe.
	ComplaintStore struct {
		conn         *Connection
		logger       *slog.Logger
		queryTimeout time.Duration
	}

	// ComplaintStoreOption configures optional ComplaintStore behavior.
	ComplaintStoreOption func(*ComplaintStore)
)

// WithQueryTimeout overrides the per-round-trip timeout (default 30s).
// A timed-out round-trip surfaces as ErrStoreUnavailable.
func WithQueryTimeout(timeout time.Duration) ComplaintStoreOption {
	return func(s *ComplaintStore) {
		s.queryTimeout = timeout
	}
}

// NewComplaintStore creates a PostgreSQL-backed complaint record store.
// Returns ErrNoDatabaseConnection if conn is nil.
func NewComplaintStore(conn *Connection, opts ...ComplaintStoreOption) (*ComplaintStore, error) {
	if conn == nil {
		return nil, ErrNoDatabaseConnection
	}

	store := &ComplaintStore{
		conn: conn,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		})),
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// QueryComplaints implements insights.Store.
// Executes the built filter predicate and returns the full matching row set.
//
// The predicate and its strictly ordered parameter list come from
// insights.BuildComplaintQuery; nothing user-supplied reaches the query text.
// Either the complete matching set is returned or an error - never a partial
// result. A start date after the end date is not rejected; BETWEEN answers it
// with zero rows.
func (s *ComplaintStore) QueryComplaints(
	ctx context.Context,
	sel insights.FilterSelection,
) ([]insights.Complaint, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	query, args := insights.BuildComplaintQuery(sel)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	workingSet, err := scanComplaints(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Working set query executed",
		slog.Int("rows", len(workingSet)),
		slog.Int("bound_params", len(args)),
		slog.Duration("duration", time.Since(start)),
	)

	return workingSet, nil
}

// DiscoverDimensions implements insights.Store.
// Returns the distinct values present per filterable dimension (sorted
// ascending) and the overall date span, all within one scoped handle.
//
// On an empty table the span degrades to today's date on both ends and every
// dimension list is empty.
func (s *ComplaintStore) DiscoverDimensions(ctx context.Context) (*insights.Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	dims := &insights.Dimensions{}

	targets := []struct {
		column string
		dest   *[]string
	}{
		{"country", &dims.Countries},
		{"channel", &dims.Channels},
		{"category", &dims.Categories},
		{"status", &dims.Statuses},
	}

	for _, target := range targets {
		values, err := queryDistinct(ctx, conn, target.column)
		if err != nil {
			return nil, err
		}

		*target.dest = values
	}

	var minDate, maxDate sql.NullTime

	if err := conn.QueryRowContext(ctx, insights.DateSpanQuery).Scan(&minDate, &maxDate); err != nil {
		return nil, fmt.Errorf("%w: date span discovery: %w", ErrStoreUnavailable, err)
	}

	// Empty table: NULL span. Fall back to today so a seeded selection is
	// still a valid (empty-result) date range.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	dims.MinDate = today
	dims.MaxDate = today

	if minDate.Valid {
		dims.MinDate = minDate.Time
	}

	if maxDate.Valid {
		dims.MaxDate = maxDate.Time
	}

	return dims, nil
}

// QueryCategoryRankings implements insights.Store.
// Runs the two-stage ranking and cumulative-amount aggregation over the full,
// unfiltered complaints table. The heavy lifting stays in SQL as a
// pre-aggregation so result size is bounded (100 rows) regardless of how
// large the record store grows.
func (s *ComplaintStore) QueryCategoryRankings(ctx context.Context) ([]insights.RankingRow, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, insights.CategoryRankingQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	rankings := make([]insights.RankingRow, 0)

	for rows.Next() {
		var row insights.RankingRow

		if err := rows.Scan(
			&row.Date, &row.Category, &row.Country,
			&row.DailyCount, &row.DailyAmount,
			&row.CategoryRank, &row.CumulativeAmount,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan ranking row: %w", ErrQueryFailed, err)
		}

		rankings = append(rankings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", ErrQueryFailed, err)
	}

	s.logger.Debug("Category ranking query executed",
		slog.Int("rows", len(rankings)),
		slog.Duration("duration", time.Since(start)),
	)

	return rankings, nil
}

// Ping verifies the record store is reachable. Used by the readiness probe.
func (s *ComplaintStore) Ping(ctx context.Context) error {
	conn, err := s.conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return nil
}

// queryDistinct fetches the sorted distinct values of one dimension column.
// The column name comes from the fixed list in DiscoverDimensions.
func queryDistinct(ctx context.Context, conn *sql.Conn, column string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, insights.DistinctDimensionQuery(column))
	if err != nil {
		return nil, fmt.Errorf("%w: distinct %s discovery: %w", ErrStoreUnavailable, column, err)
	}
	defer func() { _ = rows.Close() }()

	values := make([]string, 0)

	for rows.Next() {
		var value string

		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan %s value: %w", ErrQueryFailed, column, err)
		}

		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", ErrQueryFailed, err)
	}

	return values, nil
}

// scanComplaints materializes the working set from query rows.
// is_escalated is stored as 0/1 and converted to bool here.
func scanComplaints(rows *sql.Rows) ([]insights.Complaint, error) {
	workingSet := make([]insights.Complaint, 0)

	for rows.Next() {
		var (
			c         insights.Complaint
			escalated int
		)

		if err := rows.Scan(
			&c.ID, &c.Date, &c.Country, &c.Channel, &c.Category, &c.Status,
			&c.SLAHours, &c.Amount, &c.CustomerID, &escalated,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan complaint row: %w", ErrQueryFailed, err)
		}

		c.IsEscalated = escalated == 1

		workingSet = append(workingSet, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", ErrQueryFailed, err)
	}

	return workingSet, nil
}
