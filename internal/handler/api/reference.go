package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Currencies(c echo.Context) error {
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}
	rows, err := h.reference.Currencies(c.Request().Context(), token)
	if err != nil {
		return h.fail(c, "currencies", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) Counterparties(c echo.Context) error {
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}
	rows, err := h.reference.Counterparties(c.Request().Context(), token)
	if err != nil {
		return h.fail(c, "counterparties", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) InterestRate(c echo.Context) error {
	token, ok := h.readToken(c)
	if !ok {
		return xhttp.EmptyResponse(c)
	}
	rate, err := h.reference.InterestRate(c.Request().Context(), token)
	if err != nil {
		return h.fail(c, "interest rate", err)
	}
	return xhttp.SuccessResponse(c, rate)
}

func (h *Handler) CreateInterestRate(c echo.Context) error {
	req := &models.InterestRateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess, err := h.writeSession(c)
	if err != nil {
		return h.fail(c, "create interest rate", err)
	}

	if err := h.reference.CreateInterestRate(c.Request().Context(), sess.AccessToken, sess.UserID, *req); err != nil {
		return h.fail(c, "create interest rate", err)
	}
	return xhttp.CreatedResponse(c, req)
}

// Spot is served from Coinbase and does not need a live Directus token.
func (h *Handler) Spot(c echo.Context) error {
	req := &models.SpotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	spot, err := h.reference.Spot(c.Request().Context(), req.Pair)
	if err != nil {
		return h.fail(c, "spot", err)
	}
	return xhttp.SuccessResponse(c, spot)
}
