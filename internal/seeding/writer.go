package seeding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cx-insights/complaints/internal/insights"
	"github.com/cx-insights/complaints/internal/storage"
)

// ErrNoRows is returned when Seed is called with an empty dataset.
var ErrNoRows = errors.New("no rows to seed")

// Seed replaces the contents of the complaints table with the given rows.
//
// The load runs in a single transaction using the PostgreSQL COPY protocol:
// either the full dataset lands or the previous contents stay intact.
func Seed(ctx context.Context, conn *storage.Connection, rows []insights.Complaint) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	handle, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = handle.Close() }()

	tx, err := handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := copyRows(ctx, tx, rows); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	return nil
}

// copyRows truncates the table and streams the dataset through COPY FROM.
func copyRows(ctx context.Context, tx *sql.Tx, rows []insights.Complaint) error {
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE complaints"); err != nil {
		return fmt.Errorf("failed to truncate complaints table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("complaints",
		"complaint_id", "date", "country", "channel", "category", "status",
		"sla_hours", "amount", "customer_id", "is_escalated",
	))
	if err != nil {
		return fmt.Errorf("failed to prepare copy statement: %w", err)
	}

	for _, row := range rows {
		escalated := 0
		if row.IsEscalated {
			escalated = 1
		}

		if _, err := stmt.ExecContext(ctx,
			row.ID, row.Date, row.Country, row.Channel, row.Category, row.Status,
			row.SLAHours, row.Amount, row.CustomerID, escalated,
		); err != nil {
			_ = stmt.Close()

			return fmt.Errorf("failed to buffer complaint %d: %w", row.ID, err)
		}
	}

	// Final Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()

		return fmt.Errorf("failed to flush copy buffer: %w", err)
	}

	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy statement: %w", err)
	}

	return nil
}
