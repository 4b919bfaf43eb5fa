package directus

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
)

const (
	walletTransactionPath = "/items/wallet_transaction"
	loanPath              = "/items/loan"
)

// CounterpartyRepository reads the collections behind the counterparty views.
// Every read is scoped to the counterparty ticker it is given.
type CounterpartyRepository struct {
	c *Client
}

var _ drepo.CounterpartyRepository = (*CounterpartyRepository)(nil)

func NewCounterpartyRepository(c *Client) *CounterpartyRepository {
	return &CounterpartyRepository{c: c}
}

// Trades returns the counterparty's trades that have both parties set.
func (r *CounterpartyRepository) Trades(ctx context.Context, token, ticker string) ([]models.Trade, error) {
	q := NewQuery().
		Filter("counterparty_id.ticker", "_eq", ticker).
		Sort("-date_created").
		Filter("party_a", "_neq", "null").
		Filter("party_b", "_neq", "null").
		Fields(models.TradeFields())
	return get[[]models.Trade](ctx, r.c, "counterparty_trades", tradePath, token, q)
}

func (r *CounterpartyRepository) Transfers(ctx context.Context, token, ticker string) ([]models.WalletTransaction, error) {
	q := NewQuery().
		Filter("counterparty_id.ticker", "_eq", ticker).
		Sort("-date_created").
		Fields(models.WalletTransactionFields())
	return get[[]models.WalletTransaction](ctx, r.c, "counterparty_transfers", walletTransactionPath, token, q)
}

// Quotes returns the counterparty's expired or decided quotes.
func (r *CounterpartyRepository) Quotes(ctx context.Context, token, ticker string) ([]models.QuoteOption, error) {
	q := NewQuery().
		Sort("-date_created").
		Filter("quote_expiry", "_neq", "null").
		Filter("quote_status", "_neq", string(models.QuoteActive)).
		Filter("counterparty_id.ticker", "_eq", ticker).
		Filter("party_a", "_neq", "null").
		Filter("party_b", "_neq", "null").
		Fields(models.QuoteOptionFields())
	return get[[]models.QuoteOption](ctx, r.c, "counterparty_quotes", quotePath, token, q)
}

func (r *CounterpartyRepository) Loans(ctx context.Context, token, ticker string) ([]models.Loan, error) {
	q := NewQuery().
		Sort("-date_created").
		Filter("counterparty_id.ticker", "_eq", ticker).
		Fields(models.LoanFields())
	return get[[]models.Loan](ctx, r.c, "counterparty_loans", loanPath, token, q)
}
