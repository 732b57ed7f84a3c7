package insights

import (
	"sort"
	"time"
)

type (
	// DateCount is one point of the complaints-over-time series.
	DateCount struct {
		Date  time.Time `json:"date"`
		Count int       `json:"count"`
	}

	// CategoryCount is one bar of the complaints-by-category view.
	CategoryCount struct {
		Category string `json:"category"`
		Count    int    `json:"count"`
	}

	// CountryCount is one slice of the complaints-by-country share view.
	CountryCount struct {
		Country string `json:"country"`
		Count   int    `json:"count"`
	}

	// ChannelStatusCount is one observed (channel, status) combination.
	// Combinations absent from the working set are omitted, not zero-filled.
	ChannelStatusCount struct {
		Channel string `json:"channel"`
		Status  string `json:"status"`
		Count   int    `json:"count"`
	}
)

// GroupByDate counts complaints per calendar date, ascending by date.
// An empty working set yields an empty (non-nil) slice.
func GroupByDate(workingSet []Complaint) []DateCount {
	counts := make(map[string]int, len(workingSet))

	for _, c := range workingSet {
		counts[c.Date.Format(DateLayout)]++
	}

	result := make([]DateCount, 0, len(counts))

	for day, n := range counts {
		date, _ := time.Parse(DateLayout, day)
		result = append(result, DateCount{Date: date, Count: n})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}

// GroupByCategory counts complaints per category, ascending by count so the
// horizontal bar chart reads smallest-to-largest top-to-bottom. Ties break on
// category name for stable output.
func GroupByCategory(workingSet []Complaint) []CategoryCount {
	counts := make(map[string]int, len(workingSet))

	for _, c := range workingSet {
		counts[c.Category]++
	}

	result := make([]CategoryCount, 0, len(counts))

	for category, n := range counts {
		result = append(result, CategoryCount{Category: category, Count: n})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count < result[j].Count
		}

		return result[i].Category < result[j].Category
	})

	return result
}

// GroupByCountry counts complaints per country, descending by count for the
// share/ranking view. Ties break on country name for stable output.
func GroupByCountry(workingSet []Complaint) []CountryCount {
	counts := make(map[string]int, len(workingSet))

	for _, c := range workingSet {
		counts[c.Country]++
	}

	result := make([]CountryCount, 0, len(counts))

	for country, n := range counts {
		result = append(result, CountryCount{Country: country, Count: n})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}

		return result[i].Country < result[j].Country
	})

	return result
}

// GroupByChannelStatus counts complaints per observed (channel, status) pair,
// ordered by channel then status.
func GroupByChannelStatus(workingSet []Complaint) []ChannelStatusCount {
	type pair struct {
		channel string
		status  string
	}

	counts := make(map[pair]int, len(workingSet))

	for _, c := range workingSet {
		counts[pair{c.Channel, c.Status}]++
	}

	result := make([]ChannelStatusCount, 0, len(counts))

	for p, n := range counts {
		result = append(result, ChannelStatusCount{Channel: p.channel, Status: p.status, Count: n})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Channel != result[j].Channel {
			return result[i].Channel < result[j].Channel
		}

		return result[i].Status < result[j].Status
	})

	return result
}
