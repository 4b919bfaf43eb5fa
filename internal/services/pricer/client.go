// Package pricer calls the option pricing engine for Greeks and risk slides.
package pricer

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/services"
)

// Client implements PricerService over the pricer's HTTP API.
type Client struct {
	*services.HTTPServiceBase
	retries int
}

var _ drepo.PricerService = (*Client)(nil)

// New creates a pricer client. retries bounds attempts on transport failures.
func New(baseURL string, timeout time.Duration, retries int, m drepo.Metrics) *Client {
	return &Client{
		HTTPServiceBase: services.NewHTTPServiceBase("pricer", baseURL, timeout, m),
		retries:         retries,
	}
}

// Greeks prices the given positions with the bump scenario.
func (c *Client) Greeks(ctx context.Context, token string, req models.PositionsGreeksRequest) (*models.PositionsGreeksResponse, error) {
	var out models.PositionsGreeksResponse
	if err := c.PostJSONWithRetry(ctx, "greeks", "/quote/greeks", token, req, &out, c.retries); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deribit returns the desk's Deribit positions for currency.
func (c *Client) Deribit(ctx context.Context, token, currency string) (*models.DeribitResponse, error) {
	var out models.DeribitResponse
	req := models.DeribitRequest{Currency: currency}
	if err := c.PostJSONWithRetry(ctx, "deribit", "/risk/deribit", token, req, &out, c.retries); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ITMOTM(ctx context.Context, token string, req models.PositionsRequest) (*models.ITMOTMResponse, error) {
	var out models.ITMOTMResponse
	if err := c.PostJSONWithRetry(ctx, "itm_otm", "/risk/positions_itm_otm", token, req, &out, c.retries); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Collateral(ctx context.Context, token string, req models.PositionsRequest) (*models.CollateralResponse, error) {
	var out models.CollateralResponse
	if err := c.PostJSONWithRetry(ctx, "collateral", "/risk/collateral", token, req, &out, c.retries); err != nil {
		return nil, err
	}
	return &out, nil
}
