// Package coinbase fetches spot prices from the Coinbase public API.
package coinbase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/services"
	"DeskPortal/pkg/cache"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/metrics"
)

type spotResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Client implements SpotProvider. Prices are cached for ttl so that the risk
// stream and concurrent views share one upstream call per pair.
type Client struct {
	*services.HTTPServiceBase
	cache   cache.Service
	ttl     time.Duration
	metrics drepo.Metrics
}

var _ drepo.SpotProvider = (*Client)(nil)

// New creates a Coinbase client. A nil cache disables caching.
func New(baseURL string, timeout time.Duration, c cache.Service, ttl time.Duration, m drepo.Metrics) *Client {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Client{
		HTTPServiceBase: services.NewHTTPServiceBase("coinbase", baseURL, timeout, m),
		cache:           c,
		ttl:             ttl,
		metrics:         m,
	}
}

// Spot returns the spot price of pair, e.g. "BTC/USD".
func (c *Client) Spot(ctx context.Context, pair string) (*models.SpotPrice, error) {
	product := models.CoinbaseProduct(pair)
	key := cache.GenerateKey("spot", product)

	spot, err := cache.Remember(ctx, c.cache, key, c.ttl, func(ctx context.Context) (models.SpotPrice, error) {
		var out spotResponse
		if err := c.Do(ctx, xhttp.MethodGet, "spot", "/prices/"+product+"/spot", "", nil, &out); err != nil {
			return models.SpotPrice{}, err
		}
		amount, err := strconv.ParseFloat(out.Data.Amount, 64)
		if err != nil {
			return models.SpotPrice{}, xhttp.SerializationError(fmt.Sprintf("invalid spot amount %q", out.Data.Amount)).WithError(err)
		}
		return models.SpotPrice{Pair: pair, Amount: amount, Base: out.Data.Base, Currency: out.Data.Currency}, nil
	})
	if err != nil {
		return nil, err
	}
	c.metrics.RecordLastSpot(pair, spot.Amount)
	return &spot, nil
}
