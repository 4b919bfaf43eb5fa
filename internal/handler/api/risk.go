package api

import (
	"DeskPortal/internal/domain/models"
	"DeskPortal/internal/usecase"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func riskParams(token string, req *models.RiskRequest) usecase.RiskParams {
	return usecase.RiskParams{
		Token:        token,
		Pair:         req.Pair,
		Counterparty: req.Counterparty,
		Bump:         req.BumpValue(),
		R2:           req.R2,
	}
}

func (h *Handler) RiskSummary(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	res, err := h.risk.Summary(c.Request().Context(), riskParams(token, req))
	if err != nil {
		return h.fail(c, "risk summary", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) RiskPositionsCSV(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, "positions.csv", models.PositionsCSVHeader, nil)
	}

	rows, err := h.risk.PositionsCSV(c.Request().Context(), riskParams(token, req))
	if err != nil {
		return h.fail(c, "risk positions csv", err)
	}
	return xhttp.CSVResponse(c, "positions.csv", models.PositionsCSVHeader, rows)
}

func (h *Handler) RiskHistory(c echo.Context) error {
	req := &models.RiskHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.risk.History(c.Request().Context(), req.Pair, req.Counterparty, req.Limit)
	if err != nil {
		return h.fail(c, "risk history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
