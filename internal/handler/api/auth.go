package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Login(c echo.Context) error {
	req := &models.LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sealed, sess, err := h.auth.Login(c.Request().Context(), c.RealIP(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, "login", err)
	}
	h.setCookie(c, sealed)
	return xhttp.SuccessResponse(c, h.auth.WhoAmI(*sess))
}

// Logout clears the cookie even when the session cannot be opened.
func (h *Handler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(h.cookieName); err == nil {
		if sess, err := h.auth.Open(ck.Value); err == nil {
			h.auth.Logout(c.Request().Context(), sess)
		}
	}
	h.clearCookie(c)
	return xhttp.EmptyResponse(c)
}

func (h *Handler) WhoAmI(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.auth.WhoAmI(sessionFrom(c)))
}
