// Package insights provides the filter-driven query core of the CX Complaints
// Insights service: dynamic predicate construction, KPI and grouped
// aggregation over the filtered working set, and the per-session reactive
// recomputation graph that ties them together.
package insights

import (
	"context"
	"sort"
	"time"
)

// DateLayout is the wire format for calendar dates (no time component).
const DateLayout = "2006-01-02"

type (
	// Complaint is one row of the complaints record store.
	//
	// Enumerated fields (Country, Channel, Category, Status) are case-sensitive
	// and carried verbatim; no normalization is performed anywhere in the core.
	Complaint struct {
		ID          int64     `json:"id"`
		Date        time.Time `json:"date"`
		Country     string    `json:"country"`
		Channel     string    `json:"channel"`
		Category    string    `json:"category"`
		Status      string    `json:"status"`
		SLAHours    int       `json:"slaHours"`
		Amount      float64   `json:"amount"`
		CustomerID  string    `json:"customerId"`
		IsEscalated bool      `json:"isEscalated"`
	}

	// FilterSelection is the tuple of user-selected filter values. The date
	// range is mandatory and inclusive on both ends. An empty set for any
	// dimension means "no restriction on that dimension", never "match
	// nothing".
	//
	// A start date after the end date is deliberately not validated here; the
	// record store answers such a range with an empty working set.
	FilterSelection struct {
		StartDate  time.Time
		EndDate    time.Time
		Countries  []string
		Channels   []string
		Categories []string
		Statuses   []string
	}

	// Dimensions holds the distinct values actually present in the record
	// store per filterable dimension, plus the overall date span. Filter
	// choices are always discovered, never hardcoded.
	Dimensions struct {
		Countries  []string
		Channels   []string
		Categories []string
		Statuses   []string
		MinDate    time.Time
		MaxDate    time.Time
	}

	// RankingRow is one row of the analytical ranking query output.
	//
	// CategoryRank uses RANK semantics (ties share a rank, the next distinct
	// value skips accordingly), partitioned by country and ordered by
	// DailyCount descending. CumulativeAmount is a single global running sum
	// of DailyAmount in ascending date order across the entire grouped result,
	// not partitioned by country.
	RankingRow struct {
		Date             time.Time `json:"date"`
		Category         string    `json:"category"`
		Country          string    `json:"country"`
		DailyCount       int       `json:"dailyCount"`
		DailyAmount      float64   `json:"dailyAmount"`
		CategoryRank     int       `json:"categoryRank"`
		CumulativeAmount float64   `json:"cumulativeAmount"`
	}

	// Store is the read-only record store interface consumed by the insights
	// core. Implementations must support concurrent readers; no method writes.
	Store interface {
		// QueryComplaints executes the filter predicate and returns the full
		// matching row set (the working set). Either the complete matching set
		// is returned or an error; never a partial result.
		QueryComplaints(ctx context.Context, sel FilterSelection) ([]Complaint, error)

		// DiscoverDimensions returns the distinct values per filterable
		// dimension and the dataset date span. Used once per session at setup.
		DiscoverDimensions(ctx context.Context) (*Dimensions, error)

		// QueryCategoryRankings runs the filter-independent ranking and
		// cumulative-amount aggregation over the full record store, truncated
		// to 100 rows.
		QueryCategoryRankings(ctx context.Context) ([]RankingRow, error)
	}
)

// Equal reports whether two filter selections denote the same predicate.
// Dimension sets compare as sets (order-insensitive); dates compare by
// calendar day. Used by the recomputation graph to memoize the working set.
func (f FilterSelection) Equal(other FilterSelection) bool {
	if !sameDay(f.StartDate, other.StartDate) || !sameDay(f.EndDate, other.EndDate) {
		return false
	}

	return sameSet(f.Countries, other.Countries) &&
		sameSet(f.Channels, other.Channels) &&
		sameSet(f.Categories, other.Categories) &&
		sameSet(f.Statuses, other.Statuses)
}

// Clone returns a deep copy of the selection so callers cannot mutate the
// graph's source-of-truth node through a retained slice.
func (f FilterSelection) Clone() FilterSelection {
	clone := f
	clone.Countries = append([]string(nil), f.Countries...)
	clone.Channels = append([]string(nil), f.Channels...)
	clone.Categories = append([]string(nil), f.Categories...)
	clone.Statuses = append([]string(nil), f.Statuses...)

	return clone
}

func sameDay(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)

	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}

	return true
}
