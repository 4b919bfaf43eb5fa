package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the response envelope.
const (
	CodeBadRequest    = "ERR_BAD_REQUEST"
	CodeNotFound      = "ERR_NOT_FOUND"
	CodeConflict      = "ERR_CONFLICT"
	CodeInternal      = "ERR_INTERNAL"
	CodeUnavailable   = "ERR_UNAVAILABLE"
	CodeTooMany       = "ERR_TOO_MANY_REQUESTS"
	CodeCookieFetch   = "ERR_COOKIE_FETCH"
	CodeSessionExpiry = "ERR_SESSION_EXPIRED"
	CodeLogin         = "ERR_LOGIN"
	CodeNoData        = "ERR_NO_DATA"
	CodeSerialization = "ERR_SERIALIZATION"
	CodeRequest       = "ERR_REQUEST"
	CodeAPIResponse   = "ERR_API_RESPONSE"
)

// AppError is an error that knows how it should be reported to the caller.
// Status is the logical status; the envelope itself always goes out as 200.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = map[string]interface{}{}
	}
	e.Params[key] = value
	return e
}

// WithError attaches the cause. It is logged but never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, "", message, http.StatusBadRequest)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return BadRequestError(fmt.Sprintf(format, a...))
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(CodeNotFound, "", fmt.Sprintf(format, a...), http.StatusNotFound)
}

func ConflictError(message string) *AppError {
	return NewAppError(CodeConflict, "", message, http.StatusConflict)
}

func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}

// UnavailableError reports a feature whose backing store is switched off.
func UnavailableError(message string) *AppError {
	return NewAppError(CodeUnavailable, "", message, http.StatusServiceUnavailable)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(CodeTooMany, "", message, http.StatusTooManyRequests)
}

// Session and CMS failures use fixed wording.

func CookieFetchError() *AppError {
	return NewAppError(CodeCookieFetch, "", "Cookie not found", http.StatusUnauthorized)
}

func SessionExpiredError() *AppError {
	return NewAppError(CodeSessionExpiry, "", "Session expired, please relog", http.StatusUnauthorized)
}

func LoginError() *AppError {
	return NewAppError(CodeLogin, "", "Username or Password does not matched", http.StatusUnauthorized)
}

// NoDataFoundError means an upstream answered 2xx without the expected payload.
func NoDataFoundError() *AppError {
	return NewAppError(CodeNoData, "", "Data does not load correctly", http.StatusNotFound)
}

func SerializationError(message string) *AppError {
	return NewAppError(CodeSerialization, "", message, http.StatusBadGateway)
}

func RequestError(message string) *AppError {
	return NewAppError(CodeRequest, "", message, http.StatusBadGateway)
}

// APIResponseError is an upstream error body. An empty message becomes
// "System is busy" and sub-400 statuses are reported as 502.
func APIResponseError(status int, message string) *AppError {
	if message == "" {
		message = "System is busy"
	}
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	return NewAppError(CodeAPIResponse, "", message, status)
}

// UpstreamError classifies an error returned by Client. Bodies shaped like
// {errors:[{message, extensions:{code}}]} surface their first entry.
// AppErrors pass through untouched.
func UpstreamError(err error) error {
	var ae *AppError
	if err == nil || errors.As(err, &ae) {
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		msg, code := firstUpstreamError(se.Body)
		out := APIResponseError(se.StatusCode, msg).WithError(err)
		if code != "" {
			out.WithParam("upstream_code", code)
		}
		return out
	}
	if errors.Is(err, ErrDecode) {
		return SerializationError("Failed to decode upstream response").WithError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return RequestError("Upstream request timed out").WithError(err)
	}
	return RequestError("Upstream request failed").WithError(err)
}

func firstUpstreamError(body []byte) (message, code string) {
	var parsed struct {
		Errors []struct {
			Message    string `json:"message"`
			Extensions struct {
				Code string `json:"code"`
			} `json:"extensions"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Errors) == 0 {
		return "", ""
	}
	return parsed.Errors[0].Message, parsed.Errors[0].Extensions.Code
}
