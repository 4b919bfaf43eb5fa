package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) TermSheets(c echo.Context) error {
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}
	rows, err := h.termsheets.ListNew(c.Request().Context(), token)
	if err != nil {
		return h.fail(c, "term sheets", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) DecideTermSheet(c echo.Context) error {
	req := &models.TermSheetStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "term sheet status", err)
	}

	if err := h.termsheets.Decide(c.Request().Context(), sess.AccessToken, sess.UserID, req.ID, req.Status); err != nil {
		return h.fail(c, "term sheet status", err)
	}
	return xhttp.EmptyResponse(c)
}

func (h *Handler) DownloadTermSheet(c echo.Context) error {
	link, err := h.termsheets.DownloadLink(c.Param("id"))
	if err != nil {
		return h.fail(c, "term sheet download", err)
	}
	return xhttp.SuccessResponse(c, link)
}

func (h *Handler) SettlementOptions(c echo.Context) error {
	req := &models.SettlementOptionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}

	rows, err := h.termsheets.SettlementOptions(c.Request().Context(), token, *req)
	if err != nil {
		return h.fail(c, "settlement options", err)
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *Handler) SubmitTermSheet(c echo.Context) error {
	req := &models.SubmitTermSheetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "submit term sheet", err)
	}

	out, err := h.termsheets.Submit(c.Request().Context(), sess.AccessToken, sess.UserID, *req)
	if err != nil {
		return h.fail(c, "submit term sheet", err)
	}
	return xhttp.SuccessResponse(c, out)
}
