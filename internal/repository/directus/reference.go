package directus

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
)

const (
	currencyPath     = "/items/supported_ccy"
	counterpartyPath = "/items/counterparty"
	interestRatePath = "/items/interest_rates"
)

// ReferenceRepository reads currencies, counterparties and interest rates.
type ReferenceRepository struct {
	c *Client
}

var _ drepo.ReferenceRepository = (*ReferenceRepository)(nil)

func NewReferenceRepository(c *Client) *ReferenceRepository {
	return &ReferenceRepository{c: c}
}

func (r *ReferenceRepository) Currencies(ctx context.Context, token string) ([]models.Currency, error) {
	q := NewQuery().Fields(models.CurrencyDefaultFields())
	return get[[]models.Currency](ctx, r.c, "currencies", currencyPath, token, q)
}

func (r *ReferenceRepository) Counterparties(ctx context.Context, token string) ([]models.CounterParty, error) {
	q := NewQuery().Sort("name")
	return get[[]models.CounterParty](ctx, r.c, "counterparties", counterpartyPath, token, q)
}

// LatestInterestRate returns the most recently created rate.
func (r *ReferenceRepository) LatestInterestRate(ctx context.Context, token string) (*models.InterestRate, error) {
	q := NewQuery().
		Fields(models.InterestRateFields()).
		Sort("-id").
		Limit(1)
	rates, err := get[[]models.InterestRate](ctx, r.c, "latest_interest_rate", interestRatePath, token, q)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, xhttp.NoDataFoundError()
	}
	return &rates[0], nil
}

func (r *ReferenceRepository) CreateInterestRate(ctx context.Context, token string, req models.InterestRateRequest) error {
	return r.c.do(ctx, call{op: "create_interest_rate", method: xhttp.MethodPost, path: interestRatePath, token: token, body: req}, nil)
}
