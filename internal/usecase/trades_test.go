package usecase

import (
	"context"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyTrade(id int, kind, status, ccy, expiry string, partyB models.CounterParty) models.Trade {
	return models.Trade{
		ID:              id,
		InstrumentKind:  kind,
		TradeStatus:     strPtr(status),
		ExpiryTimestamp: expiry,
		Activity:        "closed",
		Side:            "sell",
		BaseCurrency:    models.Currency{Ticker: ccy, DisplayScale: 2},
		QuoteCurrency:   models.Currency{Ticker: "USD", DisplayScale: 2},
		Pair:            models.CurrencyPair{Name: ccy + "/USD"},
		PartyB:          partyB,
	}
}

func newTradeUC(repo *fakeTrades, pricer *fakePricer, spot *fakeSpot) *TradeUseCase {
	uc := NewTradeUseCase(repo, pricer, spot, time.UTC)
	uc.now = func() time.Time { return riskNow }
	return uc
}

func TestTradeHistoryLoadsLatestAndFiltersKind(t *testing.T) {
	repo := &fakeTrades{history: []models.Trade{
		historyTrade(1, "option", "OPEN", "BTC", "2026-12-25T08:00:00Z", acme),
		historyTrade(2, "SPOT", "SETTLED", "ETH", "2026-12-25T08:00:00Z", acme),
		historyTrade(3, "option", "OPEN", "BTC", "2026-11-25T08:00:00Z", bolt),
	}}
	uc := newTradeUC(repo, pricedFixtures(), &fakeSpot{price: 65000})

	page, err := uc.History(context.Background(), "tok", "", table.Query{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, HistoryLimit, repo.lastLimit)
	assert.Equal(t, 3, page.Total)

	page, err = uc.History(context.Background(), "tok", "spot", table.Query{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 2, page.Records[0].ID)

	rows, err := uc.HistoryCSV(context.Background(), "tok", "option")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(models.TradeHistoryCSVHeader))
}

func TestTradeExpiringViews(t *testing.T) {
	repo := &fakeTrades{expiring: []models.Trade{
		historyTrade(1, "option", "OPEN", "BTC", "2026-10-03T08:00:00Z", acme),
		historyTrade(2, "option", "EXPIRED", "BTC", "2026-09-28T08:00:00Z", acme),
		historyTrade(3, "option", "OPEN", "ETH", "2026-10-03T08:00:00Z", acme),
		historyTrade(4, "option", "OPEN", "BTC", "2026-10-03T16:00:00Z", acme),
	}}
	uc := newTradeUC(repo, pricedFixtures(), &fakeSpot{price: 65000})
	ctx := context.Background()

	all, err := uc.Expiring(ctx, "tok", ExpiringAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BTC", all[0].Currency)
	require.Len(t, all[0].Dates, 2)
	assert.Equal(t, "Oct 03 2026", all[0].Dates[0].Key)
	assert.Len(t, all[0].Dates[0].Records, 2)

	upcoming, err := uc.Expiring(ctx, "tok", ExpiringUpcoming)
	require.NoError(t, err)
	for _, g := range upcoming {
		for _, d := range g.Dates {
			for _, r := range d.Records {
				assert.Equal(t, "OPEN", r.TradeStatus)
			}
		}
	}

	expired, err := uc.Expiring(ctx, "tok", ExpiringExpired)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, 2, expired[0].Dates[0].Records[0].ID)
}

func TestTradeRecentGroupsByPartyB(t *testing.T) {
	repo := &fakeTrades{recent: []models.Trade{
		historyTrade(1, "option", "OPEN", "BTC", "2026-12-25T08:00:00Z", bolt),
		historyTrade(2, "option", "OPEN", "BTC", "2026-12-25T08:00:00Z", acme),
		historyTrade(3, "option", "OPEN", "BTC", "2026-12-25T08:00:00Z", bolt),
	}}
	uc := newTradeUC(repo, pricedFixtures(), &fakeSpot{price: 65000})

	groups, err := uc.Recent(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Bolt~1", groups[0].Key)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, "Acme~2", groups[1].Key)
}

func TestTradePositionsDefaultsToWholeBook(t *testing.T) {
	repo := &fakeTrades{open: []models.Trade{openTrade(1)}}
	uc := newTradeUC(repo, pricedFixtures(), &fakeSpot{price: 65000})

	rows, err := uc.Positions(context.Background(), "tok", "BTC/USD", "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, models.AllCounterparties, repo.lastCP)
}

func TestTradePositionsMergesLivePnl(t *testing.T) {
	second := openTrade(2)
	second.R2 = floatPtr(0.07)
	second.Pnl = floatPtr(-1)
	repo := &fakeTrades{open: []models.Trade{openTrade(1), second}}

	pricer := pricedFixtures()
	pricer.greeks.Data.Positions = []models.PositionGreekResponse{
		{ReqID: strPtr("2"), Pnl: 42.5, PnlPercentage: 12.5},
		{ReqID: strPtr("1"), Pnl: 30, PnlPercentage: -3},
		{ReqID: strPtr("99"), Pnl: 1000},
		{Pnl: 7},
	}
	spot := &fakeSpot{price: 65000}
	uc := newTradeUC(repo, pricer, spot)

	rows, err := uc.Positions(context.Background(), "tok", "BTC/USD", "ACME")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "30", rows[0].LivePnl)
	assert.Equal(t, "-3", rows[0].PnlPercentage)
	assert.Equal(t, "42.5", rows[1].LivePnl)
	assert.Equal(t, "12.5", rows[1].PnlPercentage)
	assert.Equal(t, "ACME", repo.lastCP)

	req := pricer.greeksIn
	assert.Equal(t, 0.05, req.SpotBump)
	assert.Equal(t, 3, req.BumpTimes)
	assert.Equal(t, 65000.0, req.CurrentSpot)
	require.Len(t, req.Positions, 2)
	assert.Equal(t, "1", req.Positions[0].ReqID)
	assert.Nil(t, req.Positions[0].R2)
	require.NotNil(t, req.Positions[1].R2)
	assert.Equal(t, 0.07, *req.Positions[1].R2)
	assert.Equal(t, 2.0, req.Positions[1].Amount)
	assert.Equal(t, 150.0, req.Positions[1].InceptionPrice)
	assert.Equal(t, 1, spot.calls)
}

func TestTradePositionsEmptyBookSkipsPricer(t *testing.T) {
	pricer := pricedFixtures()
	spot := &fakeSpot{price: 65000}
	uc := newTradeUC(&fakeTrades{}, pricer, spot)

	rows, err := uc.Positions(context.Background(), "tok", "BTC/USD", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, spot.calls)
	assert.Empty(t, pricer.greeksIn.Positions)
}

func TestTradePositionsPricerFailure(t *testing.T) {
	pricer := pricedFixtures()
	pricer.greeksErr = xhttp.RequestError("Upstream request failed")
	uc := newTradeUC(&fakeTrades{open: []models.Trade{openTrade(1)}}, pricer, &fakeSpot{price: 65000})

	_, err := uc.Positions(context.Background(), "tok", "BTC/USD", "")
	assert.True(t, xhttp.HasCode(err, xhttp.CodeRequest))
}
