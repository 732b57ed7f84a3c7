package insights

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const percentFactor = 100

type (
	// KPISet holds the four scalar summaries derived from one working-set
	// snapshot. All four are computed together from the same snapshot so they
	// always describe the same row set.
	KPISet struct {
		Count          int     `json:"count"`
		EscalationRate float64 `json:"escalationRate"`
		AvgSLAHours    float64 `json:"avgSlaHours"`
		TotalAmount    float64 `json:"totalAmount"`
	}

	// KPIDisplay is the presentation rendering of a KPISet. Every field is
	// defined for the empty working set: "0", "0.0%", "0.0", "$0".
	KPIDisplay struct {
		Count          string `json:"count"`
		EscalationRate string `json:"escalationRate"`
		AvgSLAHours    string `json:"avgSlaHours"`
		TotalAmount    string `json:"totalAmount"`
	}
)

// ComputeKPIs derives all four KPIs from a single working-set snapshot.
// Total over any input: the empty working set yields the zero KPISet, and
// the escalation-rate and mean-SLA divisions are guarded explicitly.
func ComputeKPIs(workingSet []Complaint) KPISet {
	kpis := KPISet{Count: len(workingSet)}

	if kpis.Count == 0 {
		return kpis
	}

	escalated := 0

	var slaSum, amountSum float64

	for _, c := range workingSet {
		if c.IsEscalated {
			escalated++
		}

		slaSum += float64(c.SLAHours)
		amountSum += c.Amount
	}

	kpis.EscalationRate = float64(escalated) / float64(kpis.Count) * percentFactor
	kpis.AvgSLAHours = slaSum / float64(kpis.Count)
	kpis.TotalAmount = amountSum

	return kpis
}

// Display renders the KPI set for presentation: comma-grouped count,
// one-decimal escalation percentage and SLA mean, dollar-prefixed
// comma-grouped zero-decimal total.
func (k KPISet) Display() KPIDisplay {
	return KPIDisplay{
		Count:          groupThousands(int64(k.Count)),
		EscalationRate: fmt.Sprintf("%.1f%%", k.EscalationRate),
		AvgSLAHours:    fmt.Sprintf("%.1f", k.AvgSLAHours),
		TotalAmount:    "$" + groupThousands(int64(math.Round(k.TotalAmount))),
	}
}

// groupThousands formats n with comma thousands separators.
func groupThousands(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)

	var b strings.Builder

	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}

	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}

		b.WriteString(digits[i : i+3])
	}

	if negative {
		return "-" + b.String()
	}

	return b.String()
}
