package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) CounterpartyTrades(c echo.Context) error {
	req := &models.CounterpartyTradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.counterparties.Trades(c.Request().Context(), token, req.Ticker, req.Kind, req.Query())
	if err != nil {
		return h.fail(c, "counterparty trades", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) CounterpartyTradesCSV(c echo.Context) error {
	req := &models.CounterpartyTradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := req.Ticker + "_trades.csv"
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, name, models.TradeHistoryCSVHeader, nil)
	}

	rows, err := h.counterparties.TradesCSV(c.Request().Context(), token, req.Ticker, req.Kind)
	if err != nil {
		return h.fail(c, "counterparty trades csv", err)
	}
	return xhttp.CSVResponse(c, name, models.TradeHistoryCSVHeader, rows)
}

func (h *Handler) CounterpartyTransfers(c echo.Context) error {
	req := &models.TransfersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.counterparties.Transfers(c.Request().Context(), token, req.Ticker, req.Action, req.Query())
	if err != nil {
		return h.fail(c, "counterparty transfers", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) CounterpartyQuotes(c echo.Context) error {
	req := &models.CounterpartyQuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.counterparties.Quotes(c.Request().Context(), token, req.Ticker, req.Query())
	if err != nil {
		return h.fail(c, "counterparty quotes", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) CounterpartyQuotesCSV(c echo.Context) error {
	req := &models.CounterpartyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := req.Ticker + "_quotes.csv"
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, name, models.QuoteCSVHeader, nil)
	}

	rows, err := h.counterparties.QuotesCSV(c.Request().Context(), token, req.Ticker)
	if err != nil {
		return h.fail(c, "counterparty quotes csv", err)
	}
	return xhttp.CSVResponse(c, name, models.QuoteCSVHeader, rows)
}

func (h *Handler) CounterpartyLoans(c echo.Context) error {
	req := &models.LoansRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.counterparties.Loans(c.Request().Context(), token, req.Ticker, req.Active, req.Query())
	if err != nil {
		return h.fail(c, "counterparty loans", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) CounterpartyLoansCSV(c echo.Context) error {
	req := &models.LoansRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := req.Ticker + "_loans.csv"
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, name, models.LoanCSVHeader, nil)
	}

	rows, err := h.counterparties.LoansCSV(c.Request().Context(), token, req.Ticker, req.Active)
	if err != nil {
		return h.fail(c, "counterparty loans csv", err)
	}
	return xhttp.CSVResponse(c, name, models.LoanCSVHeader, rows)
}

// CounterpartyOverview returns the account summary from the portfolio service.
func (h *Handler) CounterpartyOverview(c echo.Context) error {
	req := &models.CounterpartyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	out, err := h.counterparties.Overview(c.Request().Context(), token, req.Ticker)
	if err != nil {
		return h.fail(c, "counterparty overview", err)
	}
	return xhttp.SuccessResponse(c, out)
}
