package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type pageRequest struct {
	Page int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	Size int    `query:"size" json:"size" default:"10" validate:"gte=1,lte=100"`
	Side string `query:"side" json:"side" validate:"omitempty,oneof=buy sell"`
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	c, _ := newContext("/?side=buy")
	var req pageRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		t.Fatalf("unexpected validation errors %v", errs)
	}
	if req.Page != 1 || req.Size != 10 || req.Side != "buy" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestReadAndValidateRequestRejects(t *testing.T) {
	c, _ := newContext("/?size=500&side=hold")
	var req pageRequest
	errs, ok := ReadAndValidateRequest(c, &req).([]ValidationError)
	if !ok || len(errs) != 2 {
		t.Fatalf("expected two validation errors, got %v", errs)
	}
	if errs[0].Code != "ERR_LTE" || errs[1].Code != "ERR_ONEOF" {
		t.Fatalf("unexpected codes %+v", errs)
	}
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("/")
	if err := AppErrorResponse(c, LoginError()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "ERR_LOGIN") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAPIResponseErrorFallback(t *testing.T) {
	err := APIResponseError(0, "")
	if err.Message != "System is busy" || err.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error %+v", err)
	}
}

func TestCSVResponseQuotesCommas(t *testing.T) {
	c, rec := newContext("/")
	err := CSVResponse(c, "quotes.csv", []string{"Market", "Size"}, [][]string{{"BTC-27DEC24-60000-C", "1,000.00"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Market,Size\nBTC-27DEC24-60000-C,\"1,000.00\"\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected csv %q", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "quotes.csv") {
		t.Fatalf("missing disposition header")
	}
}
