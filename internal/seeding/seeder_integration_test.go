package seeding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/cx-insights/complaints/internal/config"
	"github.com/cx-insights/complaints/internal/insights"
	"github.com/cx-insights/complaints/internal/storage"
)

// TestSeedIntegration verifies the COPY-based load against a real PostgreSQL
// instance, including the replace-on-reseed semantics.
func TestSeedIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := config.SetupTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = testDB.Connection.Close()
		_ = testcontainers.TerminateContainer(testDB.Container)
	})

	conn, err := storage.NewConnectionFromDB(testDB.Connection)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RowCount = 250

	rows := NewGenerator(cfg).Generate()
	require.NoError(t, Seed(ctx, conn, rows))

	var count int
	require.NoError(t, testDB.Connection.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM complaints").Scan(&count))
	assert.Equal(t, cfg.RowCount, count)

	// The loaded rows are readable through the store with the stored 0/1
	// escalation flag converted back to a bool.
	store, err := storage.NewComplaintStore(conn)
	require.NoError(t, err)

	dims, err := store.DiscoverDimensions(ctx)
	require.NoError(t, err)
	assert.Subset(t, cfg.Countries, dims.Countries)

	workingSet, err := store.QueryComplaints(ctx, insights.FilterSelection{
		StartDate: dims.MinDate,
		EndDate:   dims.MaxDate,
	})
	require.NoError(t, err)
	assert.Len(t, workingSet, cfg.RowCount)

	// Reseeding with a smaller dataset replaces, not appends.
	cfg.RowCount = 50
	smaller := NewGenerator(cfg).Generate()
	require.NoError(t, Seed(ctx, conn, smaller))

	require.NoError(t, testDB.Connection.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM complaints").Scan(&count))
	assert.Equal(t, 50, count)
}

// TestSeedRejectsEmptyDataset verifies the guard sentinel.
func TestSeedRejectsEmptyDataset(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	err := Seed(context.Background(), nil, nil)

	require.ErrorIs(t, err, ErrNoRows)
}
