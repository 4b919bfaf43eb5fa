package api

import (
	"net/http"

	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"

	"github.com/labstack/echo/v4"
)

const sessionKey = "session"

// requireSession opens the session cookie and stores the session on the
// request context.
func (h *Handler) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(h.cookieName)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.CookieFetchError())
		}
		sess, err := h.auth.Open(ck.Value)
		if err != nil {
			h.logger.Debug("session cookie rejected", applogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

func sessionFrom(c echo.Context) models.Session {
	sess, _ := c.Get(sessionKey).(models.Session)
	return sess
}

// readToken returns the access token for a read. ok is false when the
// session has expired; the caller then answers with empty data.
func (h *Handler) readToken(c echo.Context) (token string, ok bool) {
	return h.auth.ReadToken(sessionFrom(c))
}

// writeSession returns a session fit for a write, reissuing the cookie when
// it had to be refreshed.
func (h *Handler) writeSession(c echo.Context) (models.Session, error) {
	sess, refreshed, err := h.auth.ForWrite(c.Request().Context(), sessionFrom(c))
	if err != nil {
		return sess, err
	}
	if refreshed {
		sealed, err := h.auth.Seal(sess)
		if err != nil {
			return sess, err
		}
		h.setCookie(c, sealed)
		c.Set(sessionKey, sess)
	}
	return sess, nil
}

func (h *Handler) setCookie(c echo.Context, value string) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
