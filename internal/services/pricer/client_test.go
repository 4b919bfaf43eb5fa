package pricer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreeksRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/greeks", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.PositionsGreeksRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.BumpTimes)
		assert.InDelta(t, 0.02, req.SpotBump, 1e-12)

		_, _ = io.WriteString(w, `{"data":{
			"atm_risk_slide":{"spot":100,"delta":1.5,"gamma":0.1,"theta":-2,"pnl":30},
			"positions":[{"px_in_base_ccy":0.01,"px_in_quote_ccy":1,"greeks":{"delta":0.5,"gamma":0.01,"theta":-1},"pnl":10,"pnl_percentage":5,"req_id":"7"}],
			"agg_bumped_greeks":[{"name":"delta","values":[1,2,3]}]}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, 1, nil)
	out, err := c.Greeks(context.Background(), "tok", models.PositionsGreeksRequest{SpotBump: 0.02, BumpTimes: 3})
	require.NoError(t, err)
	assert.Equal(t, models.AggregateGreeks{Delta: 1.5, Gamma: 0.1, Theta: -2, Pnl: 30}, out.Data.AtmRiskSlide.Contribution())
	require.Len(t, out.Data.Positions, 1)
	assert.Equal(t, "7", *out.Data.Positions[0].ReqID)
	assert.Equal(t, []float64{1, 2, 3}, out.Data.AggBumpedGreeks[0].Values)
}

func TestCollateralDecodesUnwind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.PositionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BTC", req.Currency)
		assert.Equal(t, "ALL", req.Counterparty)
		_, _ = io.WriteString(w, `{"data":{"unwind_risk_slide":{"pnl":-12.5},"exchanges_unwind":[{"exchange_name":"deribit","pnl":-12.5}]}}`)
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second, 0, nil).Collateral(context.Background(), "tok",
		models.PositionsRequest{Currency: "BTC", Counterparty: "ALL", CurrentSpot: 100})
	require.NoError(t, err)
	assert.Equal(t, -12.5, out.Data.UnwindRiskSlide.Contribution().Pnl)
	assert.Len(t, out.Data.ExchangesUnwind, 1)
}
