// Package portfolio reads counterparty account summaries from the portfolio
// service.
package portfolio

import (
	"context"
	"net/url"
	"time"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/services"
	xhttp "DeskPortal/pkg/http"
)

type Client struct {
	*services.HTTPServiceBase
}

var _ drepo.PortfolioService = (*Client)(nil)

func New(baseURL string, timeout time.Duration, m drepo.Metrics) *Client {
	return &Client{HTTPServiceBase: services.NewHTTPServiceBase("portfolio", baseURL, timeout, m)}
}

// Overview returns the account summary of counterparty valued in currency.
func (c *Client) Overview(ctx context.Context, token, counterparty, currency string) (*models.PortfolioOverview, error) {
	q := url.Values{}
	q.Set("counterparty", counterparty)
	q.Set("currency", currency)

	var out models.PortfolioOverview
	if err := c.Do(ctx, xhttp.MethodGet, "overview", "/portfolios/summaries?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
