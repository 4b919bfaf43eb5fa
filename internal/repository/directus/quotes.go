package directus

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/util"
)

const quotePath = "/items/quotes_option"

// QuoteRepository reads and writes the quotes_option collection.
type QuoteRepository struct {
	c *Client
}

var _ drepo.QuoteRepository = (*QuoteRepository)(nil)

func NewQuoteRepository(c *Client) *QuoteRepository {
	return &QuoteRepository{c: c}
}

func (r *QuoteRepository) ByStatus(ctx context.Context, token string, status models.QuoteStatus) ([]models.QuoteOption, error) {
	q := NewQuery().
		Filter("quote_status", "_eq", string(status)).
		Fields(models.QuoteOptionFields())
	return get[[]models.QuoteOption](ctx, r.c, "quotes_by_status", quotePath, token, q)
}

// ByStatusBetween returns quotes with an expiry whose last modification falls
// in [from, to].
func (r *QuoteRepository) ByStatusBetween(ctx context.Context, token string, status models.QuoteStatus, from, to time.Time) ([]models.QuoteOption, error) {
	q := NewQuery().
		Filter("quote_expiry", "_nnull", "true").
		Filter("quote_status", "_eq", string(status)).
		Filter("modified_date", "_between", "["+util.FormatUTCMillis(from)+", "+util.FormatUTCMillis(to)+"]").
		Fields(models.QuoteOptionFields())
	return get[[]models.QuoteOption](ctx, r.c, "quotes_between", quotePath, token, q)
}

// ByGroups returns every quote belonging to groupIDs.
func (r *QuoteRepository) ByGroups(ctx context.Context, token string, groupIDs []string) ([]models.QuoteOption, error) {
	q := NewQuery().
		Filter("group_id", "_in", List(groupIDs)).
		Limit(-1).
		Fields(models.QuoteOptionFields())
	return get[[]models.QuoteOption](ctx, r.c, "quotes_by_group", quotePath, token, q)
}

// UpdateStatuses sends every change in a single batched PATCH.
func (r *QuoteRepository) UpdateStatuses(ctx context.Context, token string, changes []models.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	return r.c.do(ctx, call{op: "update_quote_status", method: xhttp.MethodPatch, path: quotePath, token: token, body: changes}, nil)
}

func (r *QuoteRepository) Modify(ctx context.Context, token string, mods []models.Modification) error {
	if len(mods) == 0 {
		return nil
	}
	return r.c.do(ctx, call{op: "modify_quotes", method: xhttp.MethodPatch, path: quotePath, token: token, body: mods}, nil)
}

// UpdateIV sets iv on every quote of groupIDs through a query-scoped PATCH.
func (r *QuoteRepository) UpdateIV(ctx context.Context, token string, groupIDs []string, iv float64) error {
	body := models.NewIVUpdate(groupIDs, iv)
	return r.c.do(ctx, call{op: "update_quote_iv", method: xhttp.MethodPatch, path: quotePath, token: token, body: body}, nil)
}
