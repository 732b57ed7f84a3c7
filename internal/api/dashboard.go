package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cx-insights/complaints/internal/api/middleware"
	"github.com/cx-insights/complaints/internal/insights"
	"github.com/cx-insights/complaints/internal/storage"
)

// API models are separate from the domain types (insights.*) to decouple the
// API contract from internal representations; calendar dates cross the wire as
// "YYYY-MM-DD" strings.
type (
	// FilterRequest is the payload of PUT /api/v1/sessions/{id}/filters.
	// The date range is mandatory; each dimension list is optional and an
	// empty (or omitted) list means no restriction on that dimension.
	FilterRequest struct {
		StartDate  string   `json:"startDate"`
		EndDate    string   `json:"endDate"`
		Countries  []string `json:"countries,omitempty"`
		Channels   []string `json:"channels,omitempty"`
		Categories []string `json:"categories,omitempty"`
		Statuses   []string `json:"statuses,omitempty"`
	}

	// FilterView echoes the applied selection back to the caller.
	FilterView struct {
		StartDate  string   `json:"startDate"`
		EndDate    string   `json:"endDate"`
		Countries  []string `json:"countries"`
		Channels   []string `json:"channels"`
		Categories []string `json:"categories"`
		Statuses   []string `json:"statuses"`
	}

	// DimensionsResponse lists the discovered filter choices and date span.
	DimensionsResponse struct {
		Countries  []string `json:"countries"`
		Channels   []string `json:"channels"`
		Categories []string `json:"categories"`
		Statuses   []string `json:"statuses"`
		MinDate    string   `json:"minDate"`
		MaxDate    string   `json:"maxDate"`
	}

	// KPIResponse carries the four KPIs in raw and display form.
	KPIResponse struct {
		Values  insights.KPISet     `json:"values"`
		Display insights.KPIDisplay `json:"display"`
	}

	// DatePoint is one point of the time-series table.
	DatePoint struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	// ComplaintRecord is one row of the detail table.
	ComplaintRecord struct {
		ID          int64   `json:"id"`
		Date        string  `json:"date"`
		Country     string  `json:"country"`
		Channel     string  `json:"channel"`
		Category    string  `json:"category"`
		Status      string  `json:"status"`
		SLAHours    int     `json:"slaHours"`
		Amount      float64 `json:"amount"`
		CustomerID  string  `json:"customerId"`
		IsEscalated bool    `json:"isEscalated"`
	}

	// DashboardResponse is the full derived dashboard state for one session.
	DashboardResponse struct {
		SessionID       string                        `json:"sessionId"`
		Filters         FilterView                    `json:"filters"`
		KPIs            KPIResponse                   `json:"kpis"`
		ByDate          []DatePoint                   `json:"byDate"`
		ByCategory      []insights.CategoryCount      `json:"byCategory"`
		ByCountry       []insights.CountryCount       `json:"byCountry"`
		ByChannelStatus []insights.ChannelStatusCount `json:"byChannelStatus"`
		WorkingSet      []ComplaintRecord             `json:"workingSet"`
		ComputedAt      time.Time                     `json:"computedAt"`
	}

	// RankingRecord is one row of the ranking/cumulative table.
	RankingRecord struct {
		Date             string  `json:"date"`
		Category         string  `json:"category"`
		Country          string  `json:"country"`
		DailyCount       int     `json:"dailyCount"`
		DailyAmount      float64 `json:"dailyAmount"`
		CategoryRank     int     `json:"categoryRank"`
		CumulativeAmount float64 `json:"cumulativeAmount"`
	}

	// RankingsResponse is the payload of GET /api/v1/rankings.
	RankingsResponse struct {
		Rankings   []RankingRecord `json:"rankings"`
		ComputedAt time.Time       `json:"computedAt"`
	}

	// SessionResponse is the payload of POST /api/v1/sessions.
	SessionResponse struct {
		SessionID  string             `json:"sessionId"`
		Dimensions DimensionsResponse `json:"dimensions"`
		Dashboard  DashboardResponse  `json:"dashboard"`
	}
)

// handleDimensions handles GET /api/v1/dimensions.
// Returns the distinct values present per filterable dimension and the
// dataset date span, discovered live against the record store.
func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	dims, err := s.store.DiscoverDimensions(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "Failed to discover dimensions", err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, mapDimensions(dims))
}

// handleRankings handles GET /api/v1/rankings.
// Runs the filter-independent analytical ranking query over the full record
// store. This is the explicit "full refresh" trigger: the result is derived
// statelessly on each call, never from a session snapshot.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.store.QueryCategoryRankings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "Failed to compute category rankings", err)

		return
	}

	records := make([]RankingRecord, 0, len(rankings))
	for _, row := range rankings {
		records = append(records, RankingRecord{
			Date:             row.Date.Format(insights.DateLayout),
			Category:         row.Category,
			Country:          row.Country,
			DailyCount:       row.DailyCount,
			DailyAmount:      row.DailyAmount,
			CategoryRank:     row.CategoryRank,
			CumulativeAmount: row.CumulativeAmount,
		})
	}

	s.writeJSON(w, r, http.StatusOK, RankingsResponse{
		Rankings:   records,
		ComputedAt: time.Now(),
	})
}

// handleCreateSession handles POST /api/v1/sessions.
// Seeds a new session from distinct-value discovery (full date span, no
// dimension restrictions) and returns its initial dashboard snapshot.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "Failed to create dashboard session", err)

		return
	}

	snapshot, err := session.ApplyFilters(r.Context(), session.Selection())
	if err != nil {
		s.sessions.Delete(session.ID)
		s.writeStoreError(w, r, "Failed to compute initial dashboard", err)

		return
	}

	s.writeJSON(w, r, http.StatusCreated, SessionResponse{
		SessionID:  session.ID,
		Dimensions: mapDimensions(session.Dimensions),
		Dashboard:  mapSnapshot(session.ID, snapshot),
	})
}

// handleApplyFilters handles PUT /api/v1/sessions/{id}/filters.
// Applies a filter selection and returns the recomputed (or memoized)
// dashboard snapshot. On store failure the session keeps its previous
// snapshot and a retryable 503 is returned.
func (s *Server) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req FilterRequest

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("Invalid filter payload: "+err.Error()))

		return
	}

	sel, err := req.toSelection()
	if err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest(err.Error()))

		return
	}

	snapshot, err := session.ApplyFilters(r.Context(), sel)
	if err != nil {
		s.writeStoreError(w, r, "Failed to recompute dashboard", err)

		return
	}

	s.writeJSON(w, r, http.StatusOK, mapSnapshot(session.ID, snapshot))
}

// handleDashboard handles GET /api/v1/sessions/{id}/dashboard.
// Returns the current snapshot without recomputation.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		WriteErrorResponse(w, r, s.logger, NotFound("No dashboard computed for this session yet"))

		return
	}

	s.writeJSON(w, r, http.StatusOK, mapSnapshot(session.ID, snapshot))
}

// handleDeleteSession handles DELETE /api/v1/sessions/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// lookupSession resolves the {id} path value to a session or writes a 404.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*insights.Session, bool) {
	session, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, r, s.logger, NotFound("Unknown session ID"))

		return nil, false
	}

	return session, true
}

// writeStoreError maps store-level failures to a retryable 503 and everything
// else to a 500, logging with the request correlation ID.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, detail string, err error) {
	correlationID := middleware.GetCorrelationID(r.Context())

	s.logger.ErrorContext(r.Context(), detail,
		slog.String("correlation_id", correlationID),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, storage.ErrStoreUnavailable) {
		WriteErrorResponse(w, r, s.logger, ServiceUnavailable(detail+": record store unavailable, retry later"))

		return
	}

	WriteErrorResponse(w, r, s.logger, InternalServerError(detail))
}

// toSelection parses and validates the wire filter payload into a domain
// selection. Date strings must parse; a start date after the end date is NOT
// rejected - the record store answers such a range with an empty working set.
func (f FilterRequest) toSelection() (insights.FilterSelection, error) {
	start, err := time.Parse(insights.DateLayout, f.StartDate)
	if err != nil {
		return insights.FilterSelection{}, fmt.Errorf("invalid startDate %q: expected YYYY-MM-DD", f.StartDate)
	}

	end, err := time.Parse(insights.DateLayout, f.EndDate)
	if err != nil {
		return insights.FilterSelection{}, fmt.Errorf("invalid endDate %q: expected YYYY-MM-DD", f.EndDate)
	}

	return insights.FilterSelection{
		StartDate:  start,
		EndDate:    end,
		Countries:  f.Countries,
		Channels:   f.Channels,
		Categories: f.Categories,
		Statuses:   f.Statuses,
	}, nil
}

func mapDimensions(dims *insights.Dimensions) DimensionsResponse {
	return DimensionsResponse{
		Countries:  dims.Countries,
		Channels:   dims.Channels,
		Categories: dims.Categories,
		Statuses:   dims.Statuses,
		MinDate:    dims.MinDate.Format(insights.DateLayout),
		MaxDate:    dims.MaxDate.Format(insights.DateLayout),
	}
}

func mapSnapshot(sessionID string, snapshot *insights.DashboardSnapshot) DashboardResponse {
	byDate := make([]DatePoint, 0, len(snapshot.ByDate))
	for _, point := range snapshot.ByDate {
		byDate = append(byDate, DatePoint{
			Date:  point.Date.Format(insights.DateLayout),
			Count: point.Count,
		})
	}

	workingSet := make([]ComplaintRecord, 0, len(snapshot.WorkingSet))
	for _, c := range snapshot.WorkingSet {
		workingSet = append(workingSet, ComplaintRecord{
			ID:          c.ID,
			Date:        c.Date.Format(insights.DateLayout),
			Country:     c.Country,
			Channel:     c.Channel,
			Category:    c.Category,
			Status:      c.Status,
			SLAHours:    c.SLAHours,
			Amount:      c.Amount,
			CustomerID:  c.CustomerID,
			IsEscalated: c.IsEscalated,
		})
	}

	sel := snapshot.Filters

	return DashboardResponse{
		SessionID: sessionID,
		Filters: FilterView{
			StartDate:  sel.StartDate.Format(insights.DateLayout),
			EndDate:    sel.EndDate.Format(insights.DateLayout),
			Countries:  emptyIfNil(sel.Countries),
			Channels:   emptyIfNil(sel.Channels),
			Categories: emptyIfNil(sel.Categories),
			Statuses:   emptyIfNil(sel.Statuses),
		},
		KPIs: KPIResponse{
			Values:  snapshot.KPIs,
			Display: snapshot.KPIs.Display(),
		},
		ByDate:          byDate,
		ByCategory:      snapshot.ByCategory,
		ByCountry:       snapshot.ByCountry,
		ByChannelStatus: snapshot.ByChannelStatus,
		WorkingSet:      workingSet,
		ComputedAt:      snapshot.ComputedAt,
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
