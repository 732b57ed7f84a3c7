package seeding

import (
	"strings"
	"testing"
	"time"
)

// TestGeneratorDeterminism verifies the same configuration always yields the
// same dataset.
func TestGeneratorDeterminism(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := DefaultConfig()
	cfg.RowCount = 200

	first := NewGenerator(cfg).Generate()
	second := NewGenerator(cfg).Generate()

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestGeneratorSeedChangesDataset verifies a different seed yields different rows.
func TestGeneratorSeedChangesDataset(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	base := DefaultConfig()
	base.RowCount = 100

	other := DefaultConfig()
	other.RowCount = 100
	other.Seed = 7

	first := NewGenerator(base).Generate()
	second := NewGenerator(other).Generate()

	identical := true

	for i := range first {
		if first[i] != second[i] {
			identical = false

			break
		}
	}

	if identical {
		t.Error("different seeds should not produce identical datasets")
	}
}

// TestGeneratorBounds verifies every generated row respects the documented
// value ranges and domains.
func TestGeneratorBounds(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := DefaultConfig()
	cfg.RowCount = 500

	rows := NewGenerator(cfg).Generate()

	if len(rows) != cfg.RowCount {
		t.Fatalf("expected %d rows, got %d", cfg.RowCount, len(rows))
	}

	yearStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	inDomain := func(values []string, v string) bool {
		for _, candidate := range values {
			if candidate == v {
				return true
			}
		}

		return false
	}

	for i, row := range rows {
		if row.ID != int64(i+1) {
			t.Fatalf("row %d: expected sequential ID %d, got %d", i, i+1, row.ID)
		}

		if row.Date.Before(yearStart) || row.Date.After(yearEnd) {
			t.Errorf("row %d: date %v outside 2025", i, row.Date)
		}

		if !inDomain(cfg.Countries, row.Country) {
			t.Errorf("row %d: country %q outside domain", i, row.Country)
		}

		if !inDomain(cfg.Channels, row.Channel) {
			t.Errorf("row %d: channel %q outside domain", i, row.Channel)
		}

		if !inDomain(cfg.Categories, row.Category) {
			t.Errorf("row %d: category %q outside domain", i, row.Category)
		}

		if !inDomain(cfg.Statuses, row.Status) {
			t.Errorf("row %d: status %q outside domain", i, row.Status)
		}

		if row.SLAHours < minSLAHours || row.SLAHours >= maxSLAHours {
			t.Errorf("row %d: SLA hours %d outside [%d, %d)", i, row.SLAHours, minSLAHours, maxSLAHours)
		}

		if row.Amount < minAmount || row.Amount > maxAmount {
			t.Errorf("row %d: amount %v outside [%v, %v]", i, row.Amount, minAmount, maxAmount)
		}

		if !strings.HasPrefix(row.CustomerID, "CUST-") {
			t.Errorf("row %d: malformed customer ID %q", i, row.CustomerID)
		}
	}
}

// TestGeneratorEscalationShare verifies the escalation share lands near the
// configured probability over a large sample.
func TestGeneratorEscalationShare(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := DefaultConfig()
	cfg.RowCount = 10000

	rows := NewGenerator(cfg).Generate()

	escalated := 0

	for _, row := range rows {
		if row.IsEscalated {
			escalated++
		}
	}

	share := float64(escalated) / float64(len(rows))

	if share < 0.10 || share > 0.20 {
		t.Errorf("escalation share %v too far from %v", share, escalationRate)
	}
}
