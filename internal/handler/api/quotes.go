package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Quotes(c echo.Context) error {
	req := &models.QuoteStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	groups, err := h.quotes.Grouped(c.Request().Context(), token, req.Status)
	if err != nil {
		return h.fail(c, "quotes", err)
	}
	return xhttp.SuccessResponse(c, groups)
}

func (h *Handler) RecentQuotes(c echo.Context) error {
	req := &models.QuoteStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	groups, err := h.quotes.Recent(c.Request().Context(), token, req.Status)
	if err != nil {
		return h.fail(c, "recent quotes", err)
	}
	return xhttp.SuccessResponse(c, groups)
}

func (h *Handler) QuoteTable(c echo.Context) error {
	req := &models.QuoteTableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	page, err := h.quotes.Table(c.Request().Context(), token, req.Status, req.Query())
	if err != nil {
		return h.fail(c, "quote table", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *Handler) QuoteCSV(c echo.Context) error {
	req := &models.QuoteStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	filename := "quotes_" + string(req.Status) + ".csv"
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.CSVResponse(c, filename, models.QuoteCSVHeader, nil)
	}

	rows, err := h.quotes.CSV(c.Request().Context(), token, req.Status)
	if err != nil {
		return h.fail(c, "quote csv", err)
	}
	return xhttp.CSVResponse(c, filename, models.QuoteCSVHeader, rows)
}

func (h *Handler) ChangeQuoteStatus(c echo.Context) error {
	req := &models.ChangeStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "quote status", err)
	}

	res, err := h.quotes.ChangeStatus(c.Request().Context(), sess.AccessToken, sess.UserID, req.GroupIDs, req.Status)
	if err != nil {
		return h.fail(c, "quote status", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) ModifyQuotes(c echo.Context) error {
	req := &models.ModifyQuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "modify quotes", err)
	}

	if err := h.quotes.Modify(c.Request().Context(), sess.AccessToken, sess.UserID, req.Quotes); err != nil {
		return h.fail(c, "modify quotes", err)
	}
	return xhttp.SuccessResponse(c, map[string]int{"updated": len(req.Quotes)})
}

func (h *Handler) UpdateIV(c echo.Context) error {
	req := &models.UpdateIVRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "update iv", err)
	}

	if err := h.quotes.UpdateIV(c.Request().Context(), sess.AccessToken, sess.UserID, req.GroupIDs, req.IV); err != nil {
		return h.fail(c, "update iv", err)
	}
	return xhttp.EmptyResponse(c)
}
