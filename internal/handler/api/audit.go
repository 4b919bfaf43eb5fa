package api

import (
	"DeskPortal/internal/domain/models"
	xhttp "DeskPortal/pkg/http"

	"github.com/labstack/echo/v4"
)

func auditDisabledError() *xhttp.AppError {
	return xhttp.UnavailableError("Audit log is disabled")
}

// AuditLog lists stored desk events, newest first.
func (h *Handler) AuditLog(c echo.Context) error {
	if h.audit == nil {
		return xhttp.AppErrorResponse(c, auditDisabledError())
	}
	req := &models.AuditQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.audit.Query(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "audit log", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
