package usecase

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/pkg/table"
)

// HistoryLimit is the number of trades the history view loads.
const HistoryLimit = 100

// openTradeStatus is the trade_status of a trade that has not expired yet.
const openTradeStatus = "OPEN"

// Expiring views.
const (
	ExpiringAll      = "all"
	ExpiringUpcoming = "upcoming"
	ExpiringExpired  = "expired"
)

type TradeUseCase struct {
	trades domrepo.TradeRepository
	pricer domrepo.PricerService
	spot   domrepo.SpotProvider
	loc    *time.Location
	now    func() time.Time
}

func NewTradeUseCase(trades domrepo.TradeRepository, pricer domrepo.PricerService, spot domrepo.SpotProvider, loc *time.Location) *TradeUseCase {
	return &TradeUseCase{trades: trades, pricer: pricer, spot: spot, loc: loc, now: time.Now}
}

func (uc *TradeUseCase) history(ctx context.Context, token, kind string) ([]models.ExtractedTrade, error) {
	trades, err := uc.trades.History(ctx, token, HistoryLimit)
	if err != nil {
		return nil, err
	}
	rows := models.ExtractTrades(trades, uc.loc)
	if kind != "" {
		rows = models.FilterByKind(rows, kind)
	}
	return rows, nil
}

// History returns one page of the trade history, optionally for one kind.
func (uc *TradeUseCase) History(ctx context.Context, token, kind string, q table.Query) (table.Page[models.ExtractedTrade], error) {
	rows, err := uc.history(ctx, token, kind)
	if err != nil {
		return table.Page[models.ExtractedTrade]{}, err
	}
	return table.View(rows, models.ExtractedTradeSchema, q), nil
}

// HistoryCSV renders the trade history under TradeHistoryCSVHeader.
func (uc *TradeUseCase) HistoryCSV(ctx context.Context, token, kind string) ([][]string, error) {
	rows, err := uc.history(ctx, token, kind)
	if err != nil {
		return nil, err
	}
	return tradeCSV(rows), nil
}

// Positions returns the open positions on pair, repriced at the current spot
// so live_pnl and pnl_percentage are fresh.
func (uc *TradeUseCase) Positions(ctx context.Context, token, pair, counterparty string) ([]models.ExtractedTrade, error) {
	if counterparty == "" {
		counterparty = models.AllCounterparties
	}
	trades, err := uc.trades.OpenPositions(ctx, token, pair, counterparty)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return []models.ExtractedTrade{}, nil
	}

	spot, err := uc.spot.Spot(ctx, pair)
	if err != nil {
		return nil, err
	}
	priced, err := uc.pricer.Greeks(ctx, token, models.NewLivePnlRequest(trades, spot.Amount, uc.now()))
	if err != nil {
		return nil, err
	}
	models.MergeLivePnl(trades, priced.Data.Positions)
	return models.ExtractTrades(trades, uc.loc), nil
}

// Expiring groups recently expired and soon expiring trades by currency and
// expiry date. view selects upcoming (still OPEN) or expired trades.
func (uc *TradeUseCase) Expiring(ctx context.Context, token, view string) ([]models.CurrencyGroup, error) {
	trades, err := uc.trades.Expiring(ctx, token)
	if err != nil {
		return nil, err
	}
	rows := models.ExtractTrades(trades, uc.loc)
	switch view {
	case ExpiringUpcoming:
		rows = models.FilterByStatus(rows, openTradeStatus, false)
	case ExpiringExpired:
		rows = models.FilterByStatus(rows, openTradeStatus, true)
	}
	return models.GroupByCurrencyAndDate(rows), nil
}

// Recent groups trades still waiting for a term sheet by party B.
func (uc *TradeUseCase) Recent(ctx context.Context, token string) ([]table.Group[models.ExtractedTrade], error) {
	trades, err := uc.trades.WithoutTermSheet(ctx, token)
	if err != nil {
		return nil, err
	}
	groups := table.NewGroups[models.ExtractedTrade]()
	for _, t := range trades {
		groups.Add(t.PartyB.GroupKey(), t.Extract(uc.loc))
	}
	return groups.List(), nil
}

func tradeCSV(rows []models.ExtractedTrade) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.CSVRow())
	}
	return out
}
