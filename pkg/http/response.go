package http

import (
	"errors"
	"net/http"

	"DeskPortal/pkg/http/middleware"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data inside the envelope with status as the outcome.
func DataResponse(c echo.Context, status int, data interface{}) error {
	c.Set(middleware.EnvelopeStatusKey, status)
	return c.JSON(http.StatusOK, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// ListResponse writes rows with their total.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return DataResponse(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// EmptyResponse writes a 200 envelope without data. Reads made with an
// expired session are answered this way.
func EmptyResponse(c echo.Context) error {
	return DataResponse(c, http.StatusOK, nil)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

// BadRequestResponse writes request validation failures.
func BadRequestResponse(c echo.Context, errs interface{}) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err as a one-item error list. Errors that are not
// an *AppError are reported as a generic internal error so upstream detail
// never reaches the browser.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("Something went wrong")
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
