package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	acme = models.CounterParty{ID: 2, Ticker: "ACME", Name: "Acme"}
	bolt = models.CounterParty{ID: 1, Ticker: "BOLT", Name: "Bolt"}
	desk = models.CounterParty{ID: 9, Ticker: "JABRA", Name: "Jabra"}
)

func quote(id int, gid string, cp models.CounterParty, status models.QuoteStatus) models.QuoteOption {
	return models.QuoteOption{ID: id, GroupID: gid, CounterParty: cp, QuoteStatus: status, InstrumentName: "BTC-27DEC26-70000-C"}
}

func newQuoteUC(repo *fakeQuotes, sink *recordingSink, m *countingMetrics) *QuoteUseCase {
	uc := NewQuoteUseCase(repo, sink, m, nil, time.UTC, "JABRA")
	uc.now = func() time.Time { return riskNow }
	return uc
}

func TestGroupedSortsKeysAndAttachesDeskQuotes(t *testing.T) {
	repo := &fakeQuotes{quotes: []models.QuoteOption{
		quote(1, "G1", acme, models.QuoteActive),
		quote(2, "G1", desk, models.QuoteActive),
		quote(3, "G2", bolt, models.QuoteActive),
		quote(4, "G3", desk, models.QuoteActive),
		quote(5, "G1", acme, models.QuoteActive),
		quote(6, "G9", bolt, models.QuoteApproved),
	}}
	uc := newQuoteUC(repo, &recordingSink{}, newCountingMetrics())

	groups, err := uc.Grouped(context.Background(), "tok", models.QuoteActive)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Acme~2", groups[0].Key)
	assert.Equal(t, "Bolt~1", groups[1].Key)

	var ids []int
	for _, q := range groups[0].Quotes {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []int{1, 5, 2}, ids, "desk quote joins its group once")
	assert.Len(t, groups[1].Quotes, 1, "unmatched desk quote is dropped")
	assert.Equal(t, []string{"G1"}, groups[0].GroupIDs())
}

func TestRecentUsesDayWindow(t *testing.T) {
	repo := &fakeQuotes{}
	uc := newQuoteUC(repo, &recordingSink{}, newCountingMetrics())

	_, err := uc.Recent(context.Background(), "tok", models.QuoteApproved)
	require.NoError(t, err)
	assert.Equal(t, riskNow, repo.to)
	assert.Equal(t, riskNow.Add(-24*time.Hour), repo.from)
}

func TestApprovingGroupUpdatesEveryMemberOnce(t *testing.T) {
	repo := &fakeQuotes{quotes: []models.QuoteOption{
		quote(1, "G1", acme, models.QuoteActive),
		quote(2, "G1", desk, models.QuoteActive),
		quote(3, "G1", acme, models.QuoteActive),
		quote(4, "G2", bolt, models.QuoteActive),
	}}
	sink := &recordingSink{}
	m := newCountingMetrics()
	uc := newQuoteUC(repo, sink, m)

	res, err := uc.ChangeStatus(context.Background(), "tok", "desk@example.com", []string{"G1", "G1"}, models.QuoteApproved)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated)
	assert.Equal(t, []string{"G1"}, res.GroupIDs)

	assert.Equal(t, 1, repo.updateCalls)
	for _, c := range repo.lastChanges {
		assert.Equal(t, "2026-10-01T08:00:00.000Z", c.ModifiedDate)
	}

	active, err := repo.ByStatus(context.Background(), "tok", models.QuoteActive)
	require.NoError(t, err)
	for _, q := range active {
		assert.NotEqual(t, "G1", q.GroupID)
	}
	assert.Len(t, active, 1)

	assert.Equal(t, 3, m.decisions["approved"])
	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventQuoteStatusChanged, events[0].Type)
	assert.Equal(t, "G1", events[0].Subject)
	assert.Equal(t, "approved", events[0].Status)
	assert.Equal(t, 3, events[0].Count)
	assert.Equal(t, "desk@example.com", events[0].Actor)
}

func TestChangeStatusRefusesDecidedGroup(t *testing.T) {
	repo := &fakeQuotes{quotes: []models.QuoteOption{
		quote(1, "G1", acme, models.QuoteActive),
		quote(2, "G1", desk, models.QuoteRejected),
	}}
	sink := &recordingSink{}
	uc := newQuoteUC(repo, sink, newCountingMetrics())

	_, err := uc.ChangeStatus(context.Background(), "tok", "a", []string{"G1"}, models.QuoteApproved)
	var appErr *xhttp.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)
	assert.Zero(t, repo.updateCalls)
	assert.Empty(t, sink.all())
}

func TestChangeStatusValidation(t *testing.T) {
	repo := &fakeQuotes{quotes: []models.QuoteOption{quote(1, "G1", acme, models.QuoteActive)}}
	uc := newQuoteUC(repo, &recordingSink{}, newCountingMetrics())
	ctx := context.Background()

	tests := []struct {
		name   string
		ids    []string
		status models.QuoteStatus
		code   int
	}{
		{"back to active", []string{"G1"}, models.QuoteActive, 400},
		{"no groups", []string{" ", ""}, models.QuoteApproved, 400},
		{"unknown group", []string{"G1", "G404"}, models.QuoteRejected, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ChangeStatus(ctx, "tok", "a", tt.ids, tt.status)
			var appErr *xhttp.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Status)
		})
	}
	assert.Zero(t, repo.updateCalls)
}

func TestChangeStatusUpstreamFailureEmitsNothing(t *testing.T) {
	repo := &fakeQuotes{
		quotes:    []models.QuoteOption{quote(1, "G1", acme, models.QuoteActive)},
		updateErr: errors.New("directus down"),
	}
	sink := &recordingSink{}
	m := newCountingMetrics()
	uc := newQuoteUC(repo, sink, m)

	_, err := uc.ChangeStatus(context.Background(), "tok", "a", []string{"G1"}, models.QuoteRejected)
	require.Error(t, err)
	assert.Empty(t, sink.all())
	assert.Zero(t, m.decisions["rejected"])
}

func TestModifyAndUpdateIVEmitEvents(t *testing.T) {
	repo := &fakeQuotes{}
	sink := &recordingSink{}
	uc := newQuoteUC(repo, sink, newCountingMetrics())
	ctx := context.Background()

	mods := []models.Modification{{ID: 4, CounterpartyID: 2, Amount: 1.5}, {ID: 5, CounterpartyID: 2}}
	require.NoError(t, uc.Modify(ctx, "tok", "a", mods))
	assert.Equal(t, mods, repo.lastMods)

	require.NoError(t, uc.UpdateIV(ctx, "tok", "a", []string{"G1", "G2", "G1"}, 0.65))
	assert.Equal(t, []string{"G1", "G2"}, repo.lastIVGroups)
	assert.Equal(t, 0.65, repo.lastIV)

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, "4,5", events[0].Subject)
	assert.Equal(t, 2, events[0].Count)
	assert.Equal(t, models.EventQuoteIVUpdated, events[1].Type)
	assert.JSONEq(t, `{"iv":0.65}`, string(events[1].Payload))

	assert.Error(t, uc.UpdateIV(ctx, "tok", "a", []string{"G1"}, 0))
	assert.Error(t, uc.Modify(ctx, "tok", "a", nil))
}

func TestSinkFailureDoesNotFailDecision(t *testing.T) {
	repo := &fakeQuotes{quotes: []models.QuoteOption{quote(1, "G1", acme, models.QuoteActive)}}
	uc := newQuoteUC(repo, &recordingSink{err: errors.New("buffer full")}, newCountingMetrics())

	_, err := uc.ChangeStatus(context.Background(), "tok", "a", []string{"G1"}, models.QuoteApproved)
	assert.NoError(t, err)
}

func TestQuoteTableAndCSV(t *testing.T) {
	var quotes []models.QuoteOption
	for i := 1; i <= 12; i++ {
		quotes = append(quotes, quote(i, "G", acme, models.QuoteActive))
	}
	quotes[3].InstrumentName = "ETH-27DEC26-3000-P"
	uc := newQuoteUC(&fakeQuotes{quotes: quotes}, &recordingSink{}, newCountingMetrics())
	ctx := context.Background()

	page, err := uc.Table(ctx, "tok", models.QuoteActive, table.Query{Page: 2, Size: 10, SortKey: "id", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, 11, page.Records[0].ID)

	page, err = uc.Table(ctx, "tok", models.QuoteActive, table.Query{Search: "eth", Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 4, page.Records[0].ID)

	rows, err := uc.CSV(ctx, "tok", models.QuoteActive)
	require.NoError(t, err)
	assert.Len(t, rows, 12)
	assert.Len(t, rows[0], len(models.QuoteCSVHeader))
}

func TestModifyConvertsLocalExpiry(t *testing.T) {
	repo := &fakeQuotes{}
	uc := NewQuoteUseCase(repo, &recordingSink{}, newCountingMetrics(), nil, time.FixedZone("SGT", 8*3600), "JABRA")
	uc.now = func() time.Time { return riskNow }
	ctx := context.Background()

	mods := []models.Modification{
		{ID: 1, CounterpartyID: 2, QuoteExpiry: "2026-10-02 16:00:00"},
		{ID: 2, CounterpartyID: 2, QuoteExpiry: "2026-10-02T08:00:00Z"},
	}
	require.NoError(t, uc.Modify(ctx, "tok", "a", mods))
	require.Len(t, repo.lastMods, 2)
	assert.Equal(t, "2026-10-02T08:00:00Z", repo.lastMods[0].QuoteExpiry)
	assert.Equal(t, "2026-10-02T08:00:00Z", repo.lastMods[1].QuoteExpiry)
	assert.Equal(t, "2026-10-02 16:00:00", mods[0].QuoteExpiry)

	err := uc.Modify(ctx, "tok", "a", []models.Modification{{ID: 3, CounterpartyID: 2, QuoteExpiry: "tomorrow"}})
	assert.True(t, xhttp.HasCode(err, xhttp.CodeBadRequest))
}
