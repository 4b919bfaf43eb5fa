package gateway

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

func TestSettlementOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/option_pricer/settlement_template", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.SettlementOptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BTC/USD", req.PairName)

		_, _ = io.WriteString(w, `{"data":[{"id":20,"settlement_description":"Cash at expiry","option_kind":"call"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	opts, err := c.SettlementOptions(context.Background(), "tok", models.SettlementOptionRequest{PairName: "BTC/USD"})
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, 20, opts[0].ID)
	assert.Equal(t, "Cash at expiry", opts[0].SettlementDescription)
}

func TestSubmitTermSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rfq/submit_new_termsheet", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":200,"message":"ok","refid":"TS-1"}`)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, "", time.Second, nil).SubmitTermSheet(context.Background(), "tok", models.SubmitTermSheetRequest{})
	require.NoError(t, err)
	assert.Equal(t, "TS-1", resp.RefID)
}

func TestDownloadURLUsesPublicRoot(t *testing.T) {
	c := New("http://gateway.internal:9000", "https://gw.example.com/", time.Second, nil)
	assert.Equal(t, "https://gw.example.com/option_pricer/dl_termsheet/abc", c.DownloadURL("abc"))

	c = New("http://gateway.internal:9000", "", time.Second, nil)
	assert.Equal(t, "http://gateway.internal:9000/option_pricer/dl_termsheet/abc", c.DownloadURL("abc"))
}
