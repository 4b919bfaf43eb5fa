package usecase

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/pkg/table"
)

// OverviewCurrency values the account overview.
const OverviewCurrency = "USD"

// CounterpartyUseCase serves the per-counterparty views: trades, transfers,
// quotes, loans and the account overview.
type CounterpartyUseCase struct {
	repo      domrepo.CounterpartyRepository
	portfolio domrepo.PortfolioService
	loc       *time.Location
}

func NewCounterpartyUseCase(repo domrepo.CounterpartyRepository, portfolio domrepo.PortfolioService, loc *time.Location) *CounterpartyUseCase {
	return &CounterpartyUseCase{repo: repo, portfolio: portfolio, loc: loc}
}

func (uc *CounterpartyUseCase) trades(ctx context.Context, token, ticker, kind string) ([]models.ExtractedTrade, error) {
	trades, err := uc.repo.Trades(ctx, token, ticker)
	if err != nil {
		return nil, err
	}
	rows := models.ExtractTrades(trades, uc.loc)
	if kind != "" {
		rows = models.FilterByKind(rows, kind)
	}
	return rows, nil
}

// Trades returns one page of the counterparty's trade history.
func (uc *CounterpartyUseCase) Trades(ctx context.Context, token, ticker, kind string, q table.Query) (table.Page[models.ExtractedTrade], error) {
	rows, err := uc.trades(ctx, token, ticker, kind)
	if err != nil {
		return table.Page[models.ExtractedTrade]{}, err
	}
	return table.View(rows, models.ExtractedTradeSchema, q), nil
}

func (uc *CounterpartyUseCase) TradesCSV(ctx context.Context, token, ticker, kind string) ([][]string, error) {
	rows, err := uc.trades(ctx, token, ticker, kind)
	if err != nil {
		return nil, err
	}
	return tradeCSV(rows), nil
}

// Transfers returns one page of deposits and withdrawals. action is
// models.AllTransfers or a transaction type, matched ignoring case.
func (uc *CounterpartyUseCase) Transfers(ctx context.Context, token, ticker, action string, q table.Query) (table.Page[models.ExtractedTransfer], error) {
	txns, err := uc.repo.Transfers(ctx, token, ticker)
	if err != nil {
		return table.Page[models.ExtractedTransfer]{}, err
	}
	rows := models.ExtractTransfers(txns, action, uc.loc)
	return table.View(rows, models.ExtractedTransferSchema, q), nil
}

func (uc *CounterpartyUseCase) quotes(ctx context.Context, token, ticker string) ([]models.ExtractedQuoteOption, error) {
	quotes, err := uc.repo.Quotes(ctx, token, ticker)
	if err != nil {
		return nil, err
	}
	return models.ExtractQuotes(quotes, uc.loc), nil
}

// Quotes returns one page of the counterparty's past quotes.
func (uc *CounterpartyUseCase) Quotes(ctx context.Context, token, ticker string, q table.Query) (table.Page[models.ExtractedQuoteOption], error) {
	rows, err := uc.quotes(ctx, token, ticker)
	if err != nil {
		return table.Page[models.ExtractedQuoteOption]{}, err
	}
	return table.View(rows, models.ExtractedQuoteSchema, q), nil
}

func (uc *CounterpartyUseCase) QuotesCSV(ctx context.Context, token, ticker string) ([][]string, error) {
	rows, err := uc.quotes(ctx, token, ticker)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.CSVRow())
	}
	return out, nil
}

func (uc *CounterpartyUseCase) loans(ctx context.Context, token, ticker string, activeOnly bool) ([]models.ExtractedLoan, error) {
	loans, err := uc.repo.Loans(ctx, token, ticker)
	if err != nil {
		return nil, err
	}
	return models.ExtractLoans(loans, activeOnly, uc.loc), nil
}

// Loans returns one page of loans. With activeOnly only open loans are kept.
func (uc *CounterpartyUseCase) Loans(ctx context.Context, token, ticker string, activeOnly bool, q table.Query) (table.Page[models.ExtractedLoan], error) {
	rows, err := uc.loans(ctx, token, ticker, activeOnly)
	if err != nil {
		return table.Page[models.ExtractedLoan]{}, err
	}
	return table.View(rows, models.ExtractedLoanSchema, q), nil
}

// LoansCSV renders loans under models.LoanCSVHeader.
func (uc *CounterpartyUseCase) LoansCSV(ctx context.Context, token, ticker string, activeOnly bool) ([][]string, error) {
	rows, err := uc.loans(ctx, token, ticker, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.CSVRow())
	}
	return out, nil
}

// Overview returns the counterparty's account summary in OverviewCurrency.
func (uc *CounterpartyUseCase) Overview(ctx context.Context, token, ticker string) (*models.PortfolioOverview, error) {
	return uc.portfolio.Overview(ctx, token, ticker, OverviewCurrency)
}
