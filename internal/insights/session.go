package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNilStore is returned when a session or manager is created without a record store.
	ErrNilStore = errors.New("record store is required")

	// ErrSessionNotFound is returned when operating on an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoSnapshot is returned when a dashboard is requested before the
	// session has any successfully computed snapshot.
	ErrNoSnapshot = errors.New("no dashboard snapshot computed yet")
)

type (
	// DashboardSnapshot is the full derived state of one session: the four
	// KPIs, the four grouped aggregates, and the raw working set, all computed
	// from the same working-set snapshot in a single recomputation pass.
	DashboardSnapshot struct {
		Filters         FilterSelection
		KPIs            KPISet
		ByDate          []DateCount
		ByCategory      []CategoryCount
		ByCountry       []CountryCount
		ByChannelStatus []ChannelStatusCount
		WorkingSet      []Complaint
		ComputedAt      time.Time
	}

	// Session is the reactive recomputation graph for one dashboard session.
	//
	// FilterSelection is the source node, mutated only by ApplyFilters.
	// The working set and its derived aggregates form a single derived
	// snapshot, recomputed exactly once per distinct selection and memoized
	// otherwise. Recomputations are serialized by the session mutex: a filter
	// change arriving while another is in flight waits, then recomputes with
	// its own (newer) selection, so the last write wins. When a recomputation
	// fails the previous snapshot stays in place, keeping displayed values
	// stale but mutually consistent.
	//
	// The analytical ranking query has no inbound edge from the filter
	// selection and therefore does not live on the session; see Store.
	Session struct {
		ID         string
		Dimensions *Dimensions

		store  Store
		logger *slog.Logger

		mu        sync.Mutex
		selection FilterSelection
		snapshot  *DashboardSnapshot
	}

	// SessionManager tracks independent dashboard sessions. Sessions may
	// recompute in parallel with each other; the record store supports
	// concurrent read-only access.
	SessionManager struct {
		store  Store
		logger *slog.Logger

		mu       sync.RWMutex
		sessions map[string]*Session
	}
)

// NewSessionManager creates a manager for dashboard sessions backed by store.
func NewSessionManager(store Store, logger *slog.Logger) (*SessionManager, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	return &SessionManager{
		store:    store,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// Create opens a new session. Setup is the one non-reactive step of the
// graph: the filter choices are seeded by distinct-value discovery against
// the record store, and the initial selection spans the full dataset date
// range with every dimension unrestricted.
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	dims, err := m.store.DiscoverDimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("dimension discovery failed: %w", err)
	}

	session := &Session{
		ID:         uuid.NewString(),
		Dimensions: dims,
		store:      m.store,
		logger:     m.logger,
		selection: FilterSelection{
			StartDate: dims.MinDate,
			EndDate:   dims.MaxDate,
		},
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("Dashboard session created",
		slog.String("session_id", session.ID),
		slog.String("date_span_start", dims.MinDate.Format(DateLayout)),
		slog.String("date_span_end", dims.MaxDate.Format(DateLayout)),
	)

	return session, nil
}

// Get returns the session with the given ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Delete drops the session with the given ID. Deleting an unknown ID is a no-op.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// ApplyFilters sets the session's filter selection and returns the dashboard
// snapshot for it.
//
// If the selection is unchanged and a snapshot exists, the memoized snapshot
// is returned without touching the record store. Otherwise the working set is
// queried exactly once and every downstream aggregate is derived from that
// single snapshot. On failure the previous snapshot (and the previous
// selection it belongs to) are left untouched and the error is surfaced.
func (s *Session) ApplyFilters(ctx context.Context, sel FilterSelection) (*DashboardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && sel.Equal(s.selection) {
		s.logger.Debug("Filter selection unchanged, returning memoized snapshot",
			slog.String("session_id", s.ID),
		)

		return s.snapshot, nil
	}

	snapshot, err := s.recompute(ctx, sel.Clone())
	if err != nil {
		return nil, err
	}

	s.selection = snapshot.Filters
	s.snapshot = snapshot

	return snapshot, nil
}

// Refresh forces a recomputation with the current selection, bypassing the
// memoized snapshot. Used when the caller knows the underlying store changed
// (e.g. after reseeding).
func (s *Session) Refresh(ctx context.Context) (*DashboardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.recompute(ctx, s.selection.Clone())
	if err != nil {
		return nil, err
	}

	s.snapshot = snapshot

	return snapshot, nil
}

// Snapshot returns the current dashboard snapshot without recomputing.
func (s *Session) Snapshot() (*DashboardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}

	return s.snapshot, nil
}

// Selection returns a copy of the session's current filter selection.
func (s *Session) Selection() FilterSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selection.Clone()
}

// recompute runs the single recomputation unit: one store round-trip for the
// working set, then every downstream aggregator over that one snapshot.
// Callers must hold s.mu.
func (s *Session) recompute(ctx context.Context, sel FilterSelection) (*DashboardSnapshot, error) {
	start := time.Now()

	workingSet, err := s.store.QueryComplaints(ctx, sel)
	if err != nil {
		s.logger.Error("Working set recomputation failed, keeping previous snapshot",
			slog.String("session_id", s.ID),
			slog.Any("error", err),
		)

		return nil, err
	}

	snapshot := &DashboardSnapshot{
		Filters:         sel,
		KPIs:            ComputeKPIs(workingSet),
		ByDate:          GroupByDate(workingSet),
		ByCategory:      GroupByCategory(workingSet),
		ByCountry:       GroupByCountry(workingSet),
		ByChannelStatus: GroupByChannelStatus(workingSet),
		WorkingSet:      workingSet,
		ComputedAt:      time.Now(),
	}

	s.logger.Debug("Dashboard snapshot recomputed",
		slog.String("session_id", s.ID),
		slog.Int("working_set_rows", len(workingSet)),
		slog.Duration("duration", time.Since(start)),
	)

	return snapshot, nil
}
