// Package gateway calls the desk API gateway for deal settlement templates
// and term-sheet submission.
package gateway

import (
	"context"
	"strings"
	"time"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/services"
)

// Client implements DealGateway.
type Client struct {
	*services.HTTPServiceBase
	publicURL string
}

var _ drepo.DealGateway = (*Client)(nil)

// New creates a gateway client. publicURL is the browser-facing root used in
// download links; empty means baseURL.
func New(baseURL, publicURL string, timeout time.Duration, m drepo.Metrics) *Client {
	if publicURL == "" {
		publicURL = baseURL
	}
	return &Client{
		HTTPServiceBase: services.NewHTTPServiceBase("gateway", baseURL, timeout, m),
		publicURL:       strings.TrimRight(publicURL, "/"),
	}
}

// SettlementOptions returns the settlement templates matching req.
func (c *Client) SettlementOptions(ctx context.Context, token string, req models.SettlementOptionRequest) ([]models.SettlementOption, error) {
	var out struct {
		Data []models.SettlementOption `json:"data"`
	}
	if err := c.PostJSON(ctx, "settlement_template", "/option_pricer/settlement_template", token, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SubmitTermSheet creates a new term sheet from req.
func (c *Client) SubmitTermSheet(ctx context.Context, token string, req models.SubmitTermSheetRequest) (*models.SubmitTermSheetResponse, error) {
	var out models.SubmitTermSheetResponse
	if err := c.PostJSON(ctx, "submit_termsheet", "/rfq/submit_new_termsheet", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadURL is the public link of a generated term-sheet file.
func (c *Client) DownloadURL(fileID string) string {
	return c.publicURL + "/option_pricer/dl_termsheet/" + fileID
}
