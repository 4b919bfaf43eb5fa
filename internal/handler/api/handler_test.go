package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	"DeskPortal/internal/usecase"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/session"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "desk_session"

type stubGateway struct {
	tokens     *models.AuthTokens
	loginErr   error
	refreshErr error
	refreshed  int
	loggedOut  string
}

func (g *stubGateway) Login(context.Context, string, string) (*models.AuthTokens, error) {
	return g.tokens, g.loginErr
}

func (g *stubGateway) Refresh(context.Context, string) (*models.AuthTokens, error) {
	g.refreshed++
	if g.refreshErr != nil {
		return nil, g.refreshErr
	}
	return g.tokens, nil
}

func (g *stubGateway) Logout(_ context.Context, refreshToken string) error {
	g.loggedOut = refreshToken
	return nil
}

type stubQuotes struct {
	quotes  []models.QuoteOption
	reads   int
	changes []models.StatusChange
	token   string
}

func (s *stubQuotes) ByStatus(_ context.Context, token string, status models.QuoteStatus) ([]models.QuoteOption, error) {
	s.reads++
	s.token = token
	var out []models.QuoteOption
	for _, q := range s.quotes {
		if q.QuoteStatus == status {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubQuotes) ByStatusBetween(ctx context.Context, token string, status models.QuoteStatus, _, _ time.Time) ([]models.QuoteOption, error) {
	return s.ByStatus(ctx, token, status)
}

func (s *stubQuotes) ByGroups(_ context.Context, _ string, groupIDs []string) ([]models.QuoteOption, error) {
	var out []models.QuoteOption
	for _, q := range s.quotes {
		for _, id := range groupIDs {
			if q.GroupID == id {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (s *stubQuotes) UpdateStatuses(_ context.Context, token string, changes []models.StatusChange) error {
	s.token = token
	s.changes = append(s.changes, changes...)
	return nil
}

func (s *stubQuotes) Modify(context.Context, string, []models.Modification) error { return nil }
func (s *stubQuotes) UpdateIV(context.Context, string, []string, float64) error   { return nil }

type stubTrades struct{}

func (stubTrades) History(context.Context, string, int) ([]models.Trade, error) { return nil, nil }
func (stubTrades) OpenPositions(context.Context, string, string, string) ([]models.Trade, error) {
	return nil, nil
}
func (stubTrades) Expiring(context.Context, string) ([]models.Trade, error)         { return nil, nil }
func (stubTrades) WithoutTermSheet(context.Context, string) ([]models.Trade, error) { return nil, nil }

type stubPricer struct{}

func (stubPricer) Greeks(context.Context, string, models.PositionsGreeksRequest) (*models.PositionsGreeksResponse, error) {
	return &models.PositionsGreeksResponse{}, nil
}

func (stubPricer) Deribit(context.Context, string, string) (*models.DeribitResponse, error) {
	return &models.DeribitResponse{}, nil
}

func (stubPricer) ITMOTM(context.Context, string, models.PositionsRequest) (*models.ITMOTMResponse, error) {
	return &models.ITMOTMResponse{}, nil
}

func (stubPricer) Collateral(context.Context, string, models.PositionsRequest) (*models.CollateralResponse, error) {
	return &models.CollateralResponse{}, nil
}

type stubSpot struct{}

func (stubSpot) Spot(_ context.Context, pair string) (*models.SpotPrice, error) {
	return &models.SpotPrice{Pair: pair, Amount: 65000}, nil
}

type stubDeals struct{}

func (stubDeals) SettlementOptions(context.Context, string, models.SettlementOptionRequest) ([]models.SettlementOption, error) {
	return nil, nil
}

func (stubDeals) SubmitTermSheet(context.Context, string, models.SubmitTermSheetRequest) (*models.SubmitTermSheetResponse, error) {
	return &models.SubmitTermSheetResponse{}, nil
}

func (stubDeals) DownloadURL(fileID string) string { return "https://gw.example.com/dl/" + fileID }

type stubCounterparties struct {
	ticker string
}

func (s *stubCounterparties) Trades(_ context.Context, _, ticker string) ([]models.Trade, error) {
	s.ticker = ticker
	return nil, nil
}

func (s *stubCounterparties) Transfers(_ context.Context, _, ticker string) ([]models.WalletTransaction, error) {
	s.ticker = ticker
	return []models.WalletTransaction{
		{ID: 1, TransactionType: "deposit", Amount: 2, Currency: models.Currency{Ticker: "BTC", DisplayScale: 2}},
		{ID: 2, TransactionType: "withdrawal", Amount: 1, Currency: models.Currency{Ticker: "BTC", DisplayScale: 2}},
	}, nil
}

func (s *stubCounterparties) Quotes(_ context.Context, _, ticker string) ([]models.QuoteOption, error) {
	s.ticker = ticker
	return nil, nil
}

func (s *stubCounterparties) Loans(_ context.Context, _, ticker string) ([]models.Loan, error) {
	s.ticker = ticker
	return []models.Loan{
		{ID: 1, Status: "open", Pair: models.CurrencyPair{Name: "BTC/USD"}},
		{ID: 2, Status: "closed", Pair: models.CurrencyPair{Name: "ETH/USD"}},
	}, nil
}

type stubPortfolio struct{}

func (stubPortfolio) Overview(_ context.Context, _, counterparty, currency string) (*models.PortfolioOverview, error) {
	return &models.PortfolioOverview{TotalEquity: 42, Currencies: []models.PortfolioCurrency{{Currency: currency}}}, nil
}

type harness struct {
	e       *echo.Echo
	auth    *usecase.AuthUseCase
	gateway *stubGateway
	quotes  *stubQuotes
	cps     *stubCounterparties
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	codec, err := session.NewCodec("secret", "salt")
	require.NoError(t, err)

	gw := &stubGateway{tokens: &models.AuthTokens{AccessToken: "fresh", RefreshToken: "refresh-2", Expires: 3_600_000}}
	quotes := &stubQuotes{quotes: []models.QuoteOption{
		{ID: 1, GroupID: "G1", QuoteStatus: models.QuoteActive, CounterParty: models.CounterParty{ID: 2, Name: "Acme", Ticker: "ACME"}},
		{ID: 2, GroupID: "G1", QuoteStatus: models.QuoteActive, CounterParty: models.CounterParty{ID: 2, Name: "Acme", Ticker: "ACME"}},
	}}

	cps := &stubCounterparties{}
	auth := usecase.NewAuthUseCase(gw, codec, nil, 5, 5, nil, nil)
	opts = append([]Option{WithCookie(cookieName, false), WithStreamInterval(time.Hour)}, opts...)
	h := NewHandler(nil,
		auth,
		usecase.NewTradeUseCase(stubTrades{}, stubPricer{}, stubSpot{}, time.UTC),
		usecase.NewQuoteUseCase(quotes, nil, nil, nil, time.UTC, "JABRA"),
		usecase.NewRiskAggregateUseCase(stubTrades{}, stubPricer{}, stubSpot{}, nil, nil, nil, time.UTC, time.Second),
		usecase.NewReferenceUseCase(nil, stubSpot{}, nil, 0, nil, nil),
		usecase.NewTermSheetUseCase(nil, stubDeals{}, nil, nil, "JABRA TRADING LLC"),
		usecase.NewCounterpartyUseCase(cps, stubPortfolio{}, time.UTC),
		opts...,
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return &harness{e: e, auth: auth, gateway: gw, quotes: quotes, cps: cps}
}

func (h *harness) cookie(t *testing.T, expiresIn time.Duration) *http.Cookie {
	t.Helper()
	sealed, err := h.auth.Seal(models.Session{
		UserID:       "desk@example.com",
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresIn:    time.Now().Add(expiresIn).UnixMilli(),
	})
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: sealed}
}

func (h *harness) do(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var errs []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs[0].Code
}

func TestRoutesRequireSessionCookie(t *testing.T) {
	h := newHarness(t)

	env := decode(t, h.do(http.MethodGet, "/api/quotes", "", nil))
	assert.Equal(t, http.StatusUnauthorized, env.Status)
	assert.Equal(t, "ERR_COOKIE_FETCH", errorCode(t, env))

	env = decode(t, h.do(http.MethodGet, "/api/quotes", "", &http.Cookie{Name: cookieName, Value: "garbage"}))
	assert.Equal(t, "ERR_COOKIE_FETCH", errorCode(t, env))
	assert.Zero(t, h.quotes.reads)
}

func TestExpiredSessionReadsEmpty(t *testing.T) {
	h := newHarness(t)

	env := decode(t, h.do(http.MethodGet, "/api/quotes?status=active", "", h.cookie(t, -time.Minute)))
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Empty(t, env.Data)
	assert.Zero(t, h.quotes.reads)
	assert.Zero(t, h.gateway.refreshed, "reads never refresh")
}

func TestGroupedQuotes(t *testing.T) {
	h := newHarness(t)

	env := decode(t, h.do(http.MethodGet, "/api/quotes", "", h.cookie(t, time.Hour)))
	require.Equal(t, http.StatusOK, env.Status)

	var groups []models.QuoteGroup
	require.NoError(t, json.Unmarshal(env.Data, &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Acme~2", groups[0].Key)
	assert.Equal(t, "stale", h.quotes.token)
}

func TestWriteRefreshesExpiredSession(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/quotes/status", `{"group_ids":["G1"],"status":"approved"}`, h.cookie(t, -time.Minute))
	env := decode(t, rec)
	require.Equal(t, http.StatusOK, env.Status, rec.Body.String())

	assert.Equal(t, 1, h.gateway.refreshed)
	assert.Equal(t, "fresh", h.quotes.token)
	assert.Len(t, h.quotes.changes, 2)

	var reissued *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			reissued = ck
		}
	}
	require.NotNil(t, reissued, "refreshed session is written back")
	sess, err := h.auth.Open(reissued.Value)
	require.NoError(t, err)
	assert.Equal(t, "fresh", sess.AccessToken)
}

func TestWriteFailsWhenRefreshFails(t *testing.T) {
	h := newHarness(t)
	h.gateway.refreshErr = errors.New("token revoked")

	env := decode(t, h.do(http.MethodPost, "/api/quotes/status", `{"group_ids":["G1"],"status":"approved"}`, h.cookie(t, -time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, env.Status)
	assert.Equal(t, "ERR_SESSION_EXPIRED", errorCode(t, env))
	assert.Empty(t, h.quotes.changes)
}

func TestChangeStatusValidatesBody(t *testing.T) {
	h := newHarness(t)

	env := decode(t, h.do(http.MethodPost, "/api/quotes/status", `{"group_ids":["G1"],"status":"active"}`, h.cookie(t, time.Hour)))
	assert.Equal(t, http.StatusBadRequest, env.Status)

	env = decode(t, h.do(http.MethodPost, "/api/quotes/status", `{"group_ids":[],"status":"approved"}`, h.cookie(t, time.Hour)))
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Empty(t, h.quotes.changes)
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"desk@example.com","password":"pw"}`, nil)
	env := decode(t, rec)
	require.Equal(t, http.StatusOK, env.Status, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = h.do(http.MethodPost, "/api/auth/logout", "", cookies[0])
	assert.Equal(t, http.StatusOK, decode(t, rec).Status)
	assert.Equal(t, "refresh-2", h.gateway.loggedOut)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.gateway.loginErr = xhttp.LoginError()

	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"desk@example.com","password":"nope"}`, nil)
	env := decode(t, rec)
	assert.Equal(t, http.StatusUnauthorized, env.Status)
	assert.Equal(t, "ERR_LOGIN", errorCode(t, env))
	assert.Empty(t, rec.Result().Cookies())

	env = decode(t, h.do(http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"pw"}`, nil))
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestQuoteCSVForExpiredSessionIsHeaderOnly(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/quotes/csv?status=approved", "", h.cookie(t, -time.Minute))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.Join(models.QuoteCSVHeader, ",")+"\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "quotes_approved.csv")
}

func TestRiskHistoryAndAuditDisabled(t *testing.T) {
	h := newHarness(t)
	ck := h.cookie(t, time.Hour)

	env := decode(t, h.do(http.MethodGet, "/api/risk/history?pair=BTC/USD", "", ck))
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)

	env = decode(t, h.do(http.MethodGet, "/api/audit", "", ck))
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
	assert.Equal(t, "ERR_UNAVAILABLE", errorCode(t, env))
}

func TestDownloadLink(t *testing.T) {
	h := newHarness(t)

	env := decode(t, h.do(http.MethodGet, "/api/termsheets/ts-42/download", "", h.cookie(t, time.Hour)))
	require.Equal(t, http.StatusOK, env.Status)
	var link models.DownloadLink
	require.NoError(t, json.Unmarshal(env.Data, &link))
	assert.Equal(t, "https://gw.example.com/dl/ts-42", link.URL)
}

func TestRiskStreamPushesSummary(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.e)
	defer srv.Close()

	header := http.Header{}
	header.Set("Cookie", h.cookie(t, time.Hour).String())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/risk/stream?pair=BTC/USD"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame struct {
		Status int                `json:"status"`
		Data   models.RiskSummary `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, http.StatusOK, frame.Status)
	assert.Equal(t, "BTC/USD", frame.Data.Pair)
	assert.Equal(t, models.AllCounterparties, frame.Data.Counterparty)
	assert.Equal(t, 65000.0, frame.Data.Spot)
}

func TestRiskStreamOutlivesPongWait(t *testing.T) {
	h := newHarness(t, WithStreamInterval(100*time.Millisecond), WithStreamKeepalive(time.Second))
	srv := httptest.NewServer(h.e)
	defer srv.Close()

	header := http.Header{}
	header.Set("Cookie", h.cookie(t, time.Hour).String())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/risk/stream?pair=BTC/USD"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	pings := 0
	conn.SetPingHandler(func(data string) error {
		pings++
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	frames := 0
	deadline := time.Now().Add(2500 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame struct {
			Status int `json:"status"`
		}
		require.NoError(t, conn.ReadJSON(&frame), "stream closed after %d frames", frames)
		assert.Equal(t, http.StatusOK, frame.Status)
		frames++
	}
	assert.GreaterOrEqual(t, frames, 15)
	assert.GreaterOrEqual(t, pings, 2)
}

func TestCounterpartyRoutes(t *testing.T) {
	h := newHarness(t)
	ck := h.cookie(t, time.Hour)

	env := decode(t, h.do(http.MethodGet, "/api/counterparties/ACME/transfers?action=deposit", "", ck))
	require.Equal(t, http.StatusOK, env.Status)
	var transfers struct {
		Records []models.ExtractedTransfer `json:"records"`
		Total   int                        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &transfers))
	assert.Equal(t, 1, transfers.Total)
	assert.Equal(t, "2.00", transfers.Records[0].Amount)
	assert.Equal(t, "ACME", h.cps.ticker)

	env = decode(t, h.do(http.MethodGet, "/api/counterparties/BOLT/loans?active=true", "", ck))
	require.Equal(t, http.StatusOK, env.Status)
	var loans struct {
		Records []models.ExtractedLoan `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &loans))
	require.Len(t, loans.Records, 1)
	assert.Equal(t, "BTC/USD", loans.Records[0].CurrencyPair)
	assert.Equal(t, "BOLT", h.cps.ticker)

	rec := h.do(http.MethodGet, "/api/counterparties/BOLT/loans/csv", "", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "BOLT_loans.csv")
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "\n"))

	env = decode(t, h.do(http.MethodGet, "/api/counterparties/ACME/overview", "", ck))
	require.Equal(t, http.StatusOK, env.Status)
	var overview models.PortfolioOverview
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, 42.0, overview.TotalEquity)
	assert.Equal(t, "USD", overview.Currencies[0].Currency)
}

func TestCounterpartyRoutesValidateRequest(t *testing.T) {
	h := newHarness(t)
	ck := h.cookie(t, time.Hour)

	env := decode(t, h.do(http.MethodGet, "/api/counterparties/ACME/quotes?size=7", "", ck))
	assert.Equal(t, http.StatusBadRequest, env.Status)

	env = decode(t, h.do(http.MethodGet, "/api/counterparties/"+strings.Repeat("X", 40)+"/trades", "", ck))
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Empty(t, h.cps.ticker)

	env = decode(t, h.do(http.MethodGet, "/api/counterparties/ACME/trades", "", nil))
	assert.Equal(t, http.StatusUnauthorized, env.Status)
}
