package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const streamWriteWait = 10 * time.Second

// RiskStream upgrades to a websocket and pushes a fresh risk summary every
// stream interval until the client leaves or the session expires.
func (h *Handler) RiskStream(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sess := sessionFrom(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("risk stream upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.drain(conn, cancel)

	log := h.logger.With(applogger.String("user", sess.UserID), applogger.String("pair", req.Pair))
	log.Info("risk stream opened")

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	ping := time.NewTicker(h.pongWait * 9 / 10)
	defer ping.Stop()

	for {
		token, ok := h.auth.ReadToken(sess)
		if !ok {
			h.closeStream(conn, websocket.ClosePolicyViolation, "session expired")
			log.Info("risk stream closed", applogger.String("reason", "session expired"))
			return nil
		}

		frame := xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK)}
		res, err := h.risk.Summary(ctx, riskParams(token, req))
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			log.Info("risk stream closed", applogger.String("reason", "client left"))
			return nil
		case err != nil:
			frame = errorFrame(err)
		default:
			frame.Data = res
		}

		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			log.Info("risk stream closed", applogger.Error(err))
			return nil
		}

		if !h.waitTick(ctx, conn, ticker.C, ping.C, log) {
			return nil
		}
	}
}

// waitTick blocks until the next push is due, pinging the client meanwhile.
// It returns false once the stream is done.
func (h *Handler) waitTick(ctx context.Context, conn *websocket.Conn, tick, ping <-chan time.Time, log *applogger.Logger) bool {
	for {
		select {
		case <-ctx.Done():
			log.Info("risk stream closed", applogger.String("reason", "client left"))
			return false
		case <-ping:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info("risk stream closed", applogger.Error(err))
				return false
			}
		case <-tick:
			return true
		}
	}
}

// drain reads until the client disconnects. Incoming messages are ignored.
func (h *Handler) drain(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}

func (h *Handler) closeStream(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}

func errorFrame(err error) xhttp.APIResponse {
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		appErr = xhttp.InternalError("Something went wrong").WithError(err)
	}
	return xhttp.APIResponse{
		Status:  appErr.Status,
		Message: http.StatusText(appErr.Status),
		Data:    []*xhttp.AppError{appErr},
	}
}
