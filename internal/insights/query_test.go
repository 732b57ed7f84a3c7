package insights

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()

	date, err := time.Parse(DateLayout, value)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", value, err)
	}

	return date
}

// TestBuildComplaintQuery verifies predicate construction for every filter shape.
func TestBuildComplaintQuery(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name          string
		selection     FilterSelection
		wantClauses   []string
		absentClauses []string
		wantArgs      []interface{}
	}{
		{
			name: "date range only when every dimension set is empty",
			selection: FilterSelection{
				StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			},
			wantClauses:   []string{"WHERE date BETWEEN $1 AND $2"},
			absentClauses: []string{"country IN", "channel IN", "category IN", "status IN"},
			wantArgs:      []interface{}{"2025-01-01", "2025-12-31"},
		},
		{
			name: "single dimension adds one IN clause",
			selection: FilterSelection{
				StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				Countries: []string{"USA", "UK"},
			},
			wantClauses:   []string{"WHERE date BETWEEN $1 AND $2", "country IN ($3, $4)"},
			absentClauses: []string{"channel IN", "category IN", "status IN"},
			wantArgs:      []interface{}{"2025-01-01", "2025-06-30", "USA", "UK"},
		},
		{
			name: "all dimensions keep strict parameter ordering",
			selection: FilterSelection{
				StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
				Countries:  []string{"Germany"},
				Channels:   []string{"Email", "Chat"},
				Categories: []string{"Billing"},
				Statuses:   []string{"Open", "Escalated"},
			},
			wantClauses: []string{
				"WHERE date BETWEEN $1 AND $2",
				"country IN ($3)",
				"channel IN ($4, $5)",
				"category IN ($6)",
				"status IN ($7, $8)",
			},
			wantArgs: []interface{}{
				"2025-03-01", "2025-03-31",
				"Germany", "Email", "Chat", "Billing", "Open", "Escalated",
			},
		},
		{
			name: "hostile value is bound, never interpolated",
			selection: FilterSelection{
				StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
				Statuses:  []string{"Open'; DROP TABLE complaints; --"},
			},
			wantClauses:   []string{"status IN ($3)"},
			absentClauses: []string{"DROP TABLE"},
			wantArgs:      []interface{}{"2025-01-01", "2025-12-31", "Open'; DROP TABLE complaints; --"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := BuildComplaintQuery(tt.selection)

			for _, clause := range tt.wantClauses {
				if !strings.Contains(query, clause) {
					t.Errorf("query missing clause %q:\n%s", clause, query)
				}
			}

			for _, clause := range tt.absentClauses {
				if strings.Contains(query, clause) {
					t.Errorf("query contains unexpected clause %q:\n%s", clause, query)
				}
			}

			if !strings.Contains(query, "ORDER BY complaint_id") {
				t.Errorf("query missing deterministic ordering:\n%s", query)
			}

			if len(args) != len(tt.wantArgs) {
				t.Fatalf("expected %d args, got %d: %v", len(tt.wantArgs), len(args), args)
			}

			for i, want := range tt.wantArgs {
				if args[i] != want {
					t.Errorf("arg %d: expected %v, got %v", i, want, args[i])
				}
			}
		})
	}
}

// TestBuildComplaintQueryPlaceholderCount verifies every bound value has
// exactly one matching placeholder in the query text.
func TestBuildComplaintQueryPlaceholderCount(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	sel := FilterSelection{
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Countries:  []string{"USA", "UK", "Japan"},
		Channels:   []string{"Phone"},
		Categories: []string{"Shipping", "Billing"},
		Statuses:   []string{"Closed"},
	}

	query, args := BuildComplaintQuery(sel)

	for i := 1; i <= len(args); i++ {
		placeholder := fmt.Sprintf("$%d", i)
		if !strings.Contains(query, placeholder) {
			t.Errorf("placeholder %s not found in query:\n%s", placeholder, query)
		}
	}

	if strings.Contains(query, fmt.Sprintf("$%d", len(args)+1)) {
		t.Errorf("query references placeholder beyond bound args:\n%s", query)
	}
}

// TestDistinctDimensionQuery verifies discovery queries are sorted.
func TestDistinctDimensionQuery(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	query := DistinctDimensionQuery("country")

	if query != "SELECT DISTINCT country FROM complaints ORDER BY country" {
		t.Errorf("unexpected discovery query: %s", query)
	}
}
