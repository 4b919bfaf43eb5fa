package usecase

import (
	"context"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	list      []models.TermSheet
	updatedID int
	status    models.TermSheetStatus
	err       error
}

func (f *fakeSheets) ListNew(context.Context, string) ([]models.TermSheet, error) {
	return f.list, f.err
}

func (f *fakeSheets) UpdateStatus(_ context.Context, _ string, id int, status models.TermSheetStatus) error {
	f.updatedID, f.status = id, status
	return f.err
}

type fakeDeals struct {
	submitted models.SubmitTermSheetRequest
	options   []models.SettlementOption
	resp      *models.SubmitTermSheetResponse
	err       error
}

func (f *fakeDeals) SettlementOptions(context.Context, string, models.SettlementOptionRequest) ([]models.SettlementOption, error) {
	return f.options, f.err
}

func (f *fakeDeals) SubmitTermSheet(_ context.Context, _ string, req models.SubmitTermSheetRequest) (*models.SubmitTermSheetResponse, error) {
	f.submitted = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeDeals) DownloadURL(fileID string) string {
	return "https://gw.example.com/option_pricer/dl_termsheet/" + fileID
}

const legalName = "JABRA TRADING LLC"

func newTermSheetUC(sheets *fakeSheets, deals *fakeDeals, sink *recordingSink) *TermSheetUseCase {
	uc := NewTermSheetUseCase(sheets, deals, sink, nil, legalName)
	uc.now = func() time.Time { return riskNow }
	return uc
}

func submitRequest() models.SubmitTermSheetRequest {
	return models.SubmitTermSheetRequest{
		CounterpartyName:             "Acme <b>Capital</b>",
		PairName:                     "BTC/USD",
		BaseCcy:                      "BTC",
		TermCcy:                      "USD",
		InstrumentType:               "Call",
		Strike:                       70000,
		StopLossLevel:                1500,
		CollateralExchangeSettlement: "Delivery",
		SettlementCcy:                "BTC",
		TermSheet:                    `<script>alert(1)</script>Notes`,
		OptionKind:                   "Call",
		Ccy1Amount:                   2,
		Ccy2Premium:                  3000,
		GroupID:                      "G1",
	}
}

func TestSubmitFillsClauseAndDefaults(t *testing.T) {
	deals := &fakeDeals{resp: &models.SubmitTermSheetResponse{Status: 200, RefID: "DCL-1"}}
	sink := &recordingSink{}
	uc := newTermSheetUC(&fakeSheets{}, deals, sink)

	out, err := uc.Submit(context.Background(), "tok", "desk@example.com", submitRequest())
	require.NoError(t, err)
	assert.Equal(t, "DCL-1", out.RefID)

	got := deals.submitted
	assert.Equal(t, "Acme Capital", got.CounterpartyName)
	assert.Equal(t, "Notes", got.TermSheet)
	assert.Equal(t, legalName, got.CollateralSettingMethod)
	assert.Equal(t, legalName, got.ExchangeRateDeterminingAgent)
	assert.Equal(t,
		"If the value of the 70000.00 CE exceeds $1500.00 for 2.00 BTC notional, JABRA TRADING LLC will execute a market order and terminate the contract early. Acme Capital will owe the difference between the closeout price and $3000.00 to JABRA TRADING LLC.",
		got.ConditionalLossLimitEvent)
	assert.Equal(t, []models.DclPayment{{ID: 20}}, got.DclPayment)
	assert.Empty(t, got.SettlementCcy, "settlement currency only applies to cash settlement")
	assert.Empty(t, got.OptionKind)
	assert.Zero(t, got.Ccy1Amount)
	assert.Zero(t, got.Ccy2Premium)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, "DCL-1", events[0].Subject)
}

func TestSubmitKeepsGivenClauseAndCashCurrency(t *testing.T) {
	deals := &fakeDeals{resp: &models.SubmitTermSheetResponse{}}
	uc := newTermSheetUC(&fakeSheets{}, deals, &recordingSink{})

	req := submitRequest()
	req.ConditionalLossLimitEvent = "Custom clause"
	req.CollateralExchangeSettlement = "Cash"
	req.DclPayment = []models.DclPayment{{ID: 4, SettlementCondition: "ITM"}}
	_, err := uc.Submit(context.Background(), "tok", "a", req)
	require.NoError(t, err)

	assert.Equal(t, "Custom clause", deals.submitted.ConditionalLossLimitEvent)
	assert.Equal(t, "BTC", deals.submitted.SettlementCcy)
	assert.Equal(t, 4, deals.submitted.DclPayment[0].ID)

	req = submitRequest()
	req.StopLossLevel = 0
	_, err = uc.Submit(context.Background(), "tok", "a", req)
	require.NoError(t, err)
	assert.Equal(t, "N/A", deals.submitted.ConditionalLossLimitEvent)
}

func TestPutClauseUsesPE(t *testing.T) {
	deals := &fakeDeals{resp: &models.SubmitTermSheetResponse{}}
	uc := newTermSheetUC(&fakeSheets{}, deals, &recordingSink{})

	req := submitRequest()
	req.OptionKind = "Put"
	_, err := uc.Submit(context.Background(), "tok", "a", req)
	require.NoError(t, err)
	assert.Contains(t, deals.submitted.ConditionalLossLimitEvent, "70000.00 PE exceeds")
}

func TestDecideTermSheet(t *testing.T) {
	sheets := &fakeSheets{}
	sink := &recordingSink{}
	uc := newTermSheetUC(sheets, &fakeDeals{}, sink)

	require.NoError(t, uc.Decide(context.Background(), "tok", "a", 12, models.TermSheetApproved))
	assert.Equal(t, 12, sheets.updatedID)
	assert.Equal(t, models.TermSheetApproved, sheets.status)
	require.Len(t, sink.all(), 1)
	assert.Equal(t, "12", sink.all()[0].Subject)

	err := uc.Decide(context.Background(), "tok", "a", 12, models.TermSheetNew)
	var appErr *xhttp.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestDownloadLink(t *testing.T) {
	uc := newTermSheetUC(&fakeSheets{}, &fakeDeals{}, &recordingSink{})

	link, err := uc.DownloadLink("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.com/option_pricer/dl_termsheet/abc-123", link.URL)

	_, err = uc.DownloadLink("../etc")
	assert.Error(t, err)
}

func TestSettlementOptionsFormatsValues(t *testing.T) {
	deals := &fakeDeals{options: []models.SettlementOption{
		{ID: 1, SettlementCondition: "If exercised", SettlementValue: "1234567.899"},
		{ID: 2, SettlementCondition: "Otherwise", SettlementValue: "n/a"},
	}}
	uc := newTermSheetUC(&fakeSheets{}, deals, &recordingSink{})

	rows, err := uc.SettlementOptions(context.Background(), "tok", models.SettlementOptionRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1,234,567.89", rows[0].DisplayValue)
	assert.Equal(t, "n/a", rows[1].DisplayValue)
}
