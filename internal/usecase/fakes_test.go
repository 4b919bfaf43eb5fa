package usecase

import (
	"context"
	"sync"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
)

type countingMetrics struct {
	mu        sync.Mutex
	sources   map[string]string
	decisions map[string]int
	events    map[string]int
	errors    map[string]int
}

var _ domrepo.Metrics = (*countingMetrics)(nil)

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		sources:   map[string]string{},
		decisions: map[string]int{},
		events:    map[string]int{},
		errors:    map[string]int{},
	}
}

func (m *countingMetrics) RecordUpstream(string, string, float64, error) {}
func (m *countingMetrics) RecordLastSpot(string, float64)                 {}
func (m *countingMetrics) RecordLatency(string, float64)                  {}

func (m *countingMetrics) RecordSourceStatus(source, status string) {
	m.mu.Lock()
	m.sources[source] = status
	m.mu.Unlock()
}

func (m *countingMetrics) RecordQuoteDecision(status string, count int) {
	m.mu.Lock()
	m.decisions[status] += count
	m.mu.Unlock()
}

func (m *countingMetrics) RecordEvent(eventType, outcome string) {
	m.mu.Lock()
	m.events[eventType+"/"+outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.DeskEvent
	err    error
}

func (s *recordingSink) Emit(_ context.Context, e models.DeskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) all() []models.DeskEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DeskEvent(nil), s.events...)
}

type fakeTrades struct {
	history    []models.Trade
	open       []models.Trade
	expiring   []models.Trade
	recent     []models.Trade
	err        error
	lastPair   string
	lastCP     string
	lastLimit  int
	lastToken  string
	openCalled int
}

func (f *fakeTrades) History(_ context.Context, token string, limit int) ([]models.Trade, error) {
	f.lastToken, f.lastLimit = token, limit
	return f.history, f.err
}

func (f *fakeTrades) OpenPositions(_ context.Context, token, pair, cp string) ([]models.Trade, error) {
	f.openCalled++
	f.lastToken, f.lastPair, f.lastCP = token, pair, cp
	return f.open, f.err
}

func (f *fakeTrades) Expiring(context.Context, string) ([]models.Trade, error) {
	return f.expiring, f.err
}

func (f *fakeTrades) WithoutTermSheet(context.Context, string) ([]models.Trade, error) {
	return f.recent, f.err
}

type fakePricer struct {
	greeks     *models.PositionsGreeksResponse
	deribit    *models.DeribitResponse
	itm        *models.ITMOTMResponse
	collateral *models.CollateralResponse

	greeksErr, deribitErr, itmErr, collateralErr error

	mu       sync.Mutex
	greeksIn models.PositionsGreeksRequest
	itmIn    models.PositionsRequest
	deribits int
}

func (f *fakePricer) Greeks(_ context.Context, _ string, req models.PositionsGreeksRequest) (*models.PositionsGreeksResponse, error) {
	f.mu.Lock()
	f.greeksIn = req
	f.mu.Unlock()
	if f.greeksErr != nil {
		return nil, f.greeksErr
	}
	return f.greeks, nil
}

func (f *fakePricer) Deribit(context.Context, string, string) (*models.DeribitResponse, error) {
	f.mu.Lock()
	f.deribits++
	f.mu.Unlock()
	if f.deribitErr != nil {
		return nil, f.deribitErr
	}
	return f.deribit, nil
}

func (f *fakePricer) ITMOTM(_ context.Context, _ string, req models.PositionsRequest) (*models.ITMOTMResponse, error) {
	f.mu.Lock()
	f.itmIn = req
	f.mu.Unlock()
	if f.itmErr != nil {
		return nil, f.itmErr
	}
	return f.itm, nil
}

func (f *fakePricer) Collateral(context.Context, string, models.PositionsRequest) (*models.CollateralResponse, error) {
	if f.collateralErr != nil {
		return nil, f.collateralErr
	}
	return f.collateral, nil
}

type fakeSpot struct {
	price float64
	err   error
	calls int
}

func (f *fakeSpot) Spot(_ context.Context, pair string) (*models.SpotPrice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.SpotPrice{Pair: pair, Amount: f.price}, nil
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved []models.RiskSnapshot
	err   error
}

func (f *fakeSnapshots) Save(_ context.Context, s models.RiskSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSnapshots) Recent(_ context.Context, pair, cp string, limit int) ([]models.RiskSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RiskSnapshot
	for i := len(f.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if f.saved[i].Pair == pair && f.saved[i].Counterparty == cp {
			out = append(out, f.saved[i])
		}
	}
	return out, f.err
}

// fakeQuotes keeps quotes in memory and applies batched status changes.
type fakeQuotes struct {
	quotes       []models.QuoteOption
	err          error
	updateErr    error
	updateCalls  int
	lastChanges  []models.StatusChange
	lastMods     []models.Modification
	lastIVGroups []string
	lastIV       float64
	from, to     time.Time
}

func (f *fakeQuotes) ByStatus(_ context.Context, _ string, status models.QuoteStatus) ([]models.QuoteOption, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.QuoteOption
	for _, q := range f.quotes {
		if q.QuoteStatus == status {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuotes) ByStatusBetween(ctx context.Context, token string, status models.QuoteStatus, from, to time.Time) ([]models.QuoteOption, error) {
	f.from, f.to = from, to
	return f.ByStatus(ctx, token, status)
}

func (f *fakeQuotes) ByGroups(_ context.Context, _ string, groupIDs []string) ([]models.QuoteOption, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := map[string]bool{}
	for _, g := range groupIDs {
		want[g] = true
	}
	var out []models.QuoteOption
	for _, q := range f.quotes {
		if want[q.GroupID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuotes) UpdateStatuses(_ context.Context, _ string, changes []models.StatusChange) error {
	f.updateCalls++
	f.lastChanges = changes
	if f.updateErr != nil {
		return f.updateErr
	}
	byID := map[int]models.StatusChange{}
	for _, c := range changes {
		byID[c.ID] = c
	}
	for i := range f.quotes {
		if c, ok := byID[f.quotes[i].ID]; ok {
			f.quotes[i].QuoteStatus = c.QuoteStatus
			f.quotes[i].ModifiedDate = c.ModifiedDate
		}
	}
	return nil
}

func (f *fakeQuotes) Modify(_ context.Context, _ string, mods []models.Modification) error {
	f.lastMods = mods
	return f.updateErr
}

func (f *fakeQuotes) UpdateIV(_ context.Context, _ string, groupIDs []string, iv float64) error {
	f.lastIVGroups, f.lastIV = groupIDs, iv
	return f.updateErr
}

type fakeAuthGateway struct {
	loginTokens   *models.AuthTokens
	loginErr      error
	refreshTokens *models.AuthTokens
	refreshErr    error
	logoutErr     error
	refreshCalls  int
	logoutToken   string
}

func (f *fakeAuthGateway) Login(context.Context, string, string) (*models.AuthTokens, error) {
	return f.loginTokens, f.loginErr
}

func (f *fakeAuthGateway) Refresh(context.Context, string) (*models.AuthTokens, error) {
	f.refreshCalls++
	return f.refreshTokens, f.refreshErr
}

func (f *fakeAuthGateway) Logout(_ context.Context, refreshToken string) error {
	f.logoutToken = refreshToken
	return f.logoutErr
}

type fakeAuditStore struct {
	stored []models.DeskEvent
	err    error
}

func (f *fakeAuditStore) Store(_ context.Context, e models.DeskEvent) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, e)
	return nil
}

func (f *fakeAuditStore) StoreBatch(ctx context.Context, events []models.DeskEvent) error {
	for _, e := range events {
		if err := f.Store(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAuditStore) Query(context.Context, models.AuditQuery) ([]models.DeskEvent, error) {
	return f.stored, f.err
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
