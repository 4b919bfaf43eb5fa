package directus

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
)

const tradePath = "/items/trade"

// TradeRepository reads the trade collection.
type TradeRepository struct {
	c *Client
}

var _ drepo.TradeRepository = (*TradeRepository)(nil)

func NewTradeRepository(c *Client) *TradeRepository {
	return &TradeRepository{c: c}
}

// History returns the desk's latest trades that have both parties set.
func (r *TradeRepository) History(ctx context.Context, token string, limit int) ([]models.Trade, error) {
	q := NewQuery().
		Filter("counterparty_id.ticker", "_eq", r.c.ticker).
		Sort("-date_created").
		Filter("party_a", "_neq", "null").
		Filter("party_b", "_neq", "null").
		Limit(limit).
		Fields(models.TradeFields())
	return get[[]models.Trade](ctx, r.c, "trade_history", tradePath, token, q)
}

// OpenPositions returns open, unexpired trades on pair. A counterparty
// containing ALL selects every counterparty; anything else is matched
// against party B.
func (r *TradeRepository) OpenPositions(ctx context.Context, token, pair, counterparty string) ([]models.Trade, error) {
	q := NewQuery().Filter("counterparty_id.ticker", "_eq", r.c.ticker)
	if !models.IncludesAll(counterparty) {
		q.Filter("party_b.ticker", "_in", counterparty)
	}
	q.Filter("expiry_timestamp", "_gte", "$NOW").
		Filter("activity", "_eq", "open").
		Filter("pair_id.name", "_in", pair).
		Sort("-expiry_timestamp").
		Fields(models.TradeFields())
	return get[[]models.Trade](ctx, r.c, "open_positions", tradePath, token, q)
}

// Expiring returns trades expiring from 15 days ago up to 7 days ahead.
func (r *TradeRepository) Expiring(ctx context.Context, token string) ([]models.Trade, error) {
	q := NewQuery().
		Filter("counterparty_id.ticker", "_eq", r.c.ticker).
		Sort("-expiry_timestamp").
		Filter("party_a", "_nnull", "true").
		Filter("party_b", "_nnull", "true").
		Filter("expiry_timestamp", "_gte", "$NOW(-15)").
		Filter("expiry_timestamp", "_lte", "$NOW(7)").
		Filter("trade_type", "_eq", "trade").
		Fields(models.TradeFields())
	return get[[]models.Trade](ctx, r.c, "expiring_trades", tradePath, token, q)
}

// WithoutTermSheet returns live desk trades that still need a term sheet.
func (r *TradeRepository) WithoutTermSheet(ctx context.Context, token string) ([]models.Trade, error) {
	q := NewQuery().
		Filter("party_b", "_null", "false").
		Filter("party_a", "_null", "false").
		Filter("has_termsheet", "_eq", "false").
		Limit(-1).
		Filter("expiry_timestamp", "_gte", "$NOW()").
		Filter("party_a.ticker", "_eq", r.c.ticker).
		Filter("trade_type", "_eq", "trade").
		Fields(models.TradeFields())
	return get[[]models.Trade](ctx, r.c, "recent_trades", tradePath, token, q)
}
