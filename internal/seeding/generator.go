package seeding

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/cx-insights/complaints/internal/insights"
)

// Generation parameter bounds.
const (
	minSLAHours = 12
	maxSLAHours = 120

	minAmount = 10.0
	maxAmount = 500.0

	minCustomerNumber = 1000
	maxCustomerNumber = 9999

	dateSpanDays = 365

	escalationRate = 0.15
)

// Generator produces synthetic complaint rows from a seeded random source.
// The same configuration always yields the same dataset, so demo environments
// and test fixtures are reproducible across runs.
type Generator struct {
	cfg *Config
	rng *rand.Rand
}

// NewGenerator creates a generator for the given configuration.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // deterministic synthetic data, not crypto
	}
}

// Generate produces cfg.RowCount complaint rows with dates spread across the
// 2025 calendar year. Complaint IDs are sequential starting at 1.
func (g *Generator) Generate() []insights.Complaint {
	startDate := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]insights.Complaint, 0, g.cfg.RowCount)

	for i := 1; i <= g.cfg.RowCount; i++ {
		rows = append(rows, insights.Complaint{
			ID:          int64(i),
			Date:        startDate.AddDate(0, 0, g.rng.Intn(dateSpanDays)),
			Country:     g.pick(g.cfg.Countries),
			Channel:     g.pick(g.cfg.Channels),
			Category:    g.pick(g.cfg.Categories),
			Status:      g.pick(g.cfg.Statuses),
			SLAHours:    minSLAHours + g.rng.Intn(maxSLAHours-minSLAHours),
			Amount:      roundCents(minAmount + g.rng.Float64()*(maxAmount-minAmount)),
			CustomerID:  "CUST-" + strconv.Itoa(minCustomerNumber+g.rng.Intn(maxCustomerNumber-minCustomerNumber)),
			IsEscalated: g.rng.Float64() < escalationRate,
		})
	}

	return rows
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
