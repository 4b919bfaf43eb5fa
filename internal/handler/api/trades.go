package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) TradeHistory(c echo.Context) error {
	req := &models.TradeHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.trades.History(c.Request().Context(), token, req.Kind, req.Query())
	if err != nil {
		return h.fail(c, "trade history", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) TradeHistoryCSV(c echo.Context) error {
	req := &models.TradeHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, "trade_history.csv", models.TradeHistoryCSVHeader, nil)
	}

	rows, err := h.trades.HistoryCSV(c.Request().Context(), token, req.Kind)
	if err != nil {
		return h.fail(c, "trade history csv", err)
	}
	return xhttp.CSVResponse(c, "trade_history.csv", models.TradeHistoryCSVHeader, rows)
}

func (h *Handler) Positions(c echo.Context) error {
	req := &models.PositionsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	rows, err := h.trades.Positions(c.Request().Context(), token, req.Pair, req.Counterparty)
	if err != nil {
		return h.fail(c, "positions", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) Expiring(c echo.Context) error {
	req := &models.ExpiringRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	groups, err := h.trades.Expiring(c.Request().Context(), token, req.View)
	if err != nil {
		return h.fail(c, "expiring trades", err)
	}
	return xhttp.SuccessResponse(c, groups)
}

func (h *Handler) RecentTrades(c echo.Context) error {
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}
	groups, err := h.trades.Recent(c.Request().Context(), token)
	if err != nil {
		return h.fail(c, "recent trades", err)
	}
	return xhttp.SuccessResponse(c, groups)
}
