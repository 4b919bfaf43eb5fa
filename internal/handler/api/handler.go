package api

import (
	"errors"
	"net/http"
	"time"

	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/usecase"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler serves the portal API under /api.
type Handler struct {
	logger         *applogger.Logger
	auth           *usecase.AuthUseCase
	trades         *usecase.TradeUseCase
	quotes         *usecase.QuoteUseCase
	risk           *usecase.RiskAggregateUseCase
	reference      *usecase.ReferenceUseCase
	termsheets     *usecase.TermSheetUseCase
	counterparties *usecase.CounterpartyUseCase
	audit          domrepo.AuditStore

	cookieName     string
	cookieSecure   bool
	streamInterval time.Duration
	pongWait       time.Duration
	upgrader       websocket.Upgrader
}

// Option configures Handler.
type Option func(*Handler)

// WithCookie sets the session cookie name and its Secure flag.
func WithCookie(name string, secure bool) Option {
	return func(h *Handler) {
		if name != "" {
			h.cookieName = name
		}
		h.cookieSecure = secure
	}
}

// WithStreamInterval sets how often the risk stream pushes a new summary.
func WithStreamInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.streamInterval = d
		}
	}
}

// WithStreamKeepalive sets how long the risk stream waits for a pong. Pings
// go out at nine tenths of pongWait.
func WithStreamKeepalive(pongWait time.Duration) Option {
	return func(h *Handler) {
		if pongWait > 0 {
			h.pongWait = pongWait
		}
	}
}

// WithAuditStore enables the audit log endpoint.
func WithAuditStore(store domrepo.AuditStore) Option {
	return func(h *Handler) {
		h.audit = store
	}
}

// WithAllowedOrigins restricts websocket upgrades to origins. "*" or no
// origins accepts any.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			if o == "*" {
				h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
				return
			}
			allowed[o] = struct{}{}
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
}

func NewHandler(
	logger *applogger.Logger,
	auth *usecase.AuthUseCase,
	trades *usecase.TradeUseCase,
	quotes *usecase.QuoteUseCase,
	risk *usecase.RiskAggregateUseCase,
	reference *usecase.ReferenceUseCase,
	termsheets *usecase.TermSheetUseCase,
	counterparties *usecase.CounterpartyUseCase,
	opts ...Option,
) *Handler {
	if logger == nil {
		logger = applogger.Nop()
	}
	h := &Handler{
		logger:         logger,
		auth:           auth,
		trades:         trades,
		quotes:         quotes,
		risk:           risk,
		reference:      reference,
		termsheets:     termsheets,
		counterparties: counterparties,
		cookieName:     "admin_portal_csr",
		streamInterval: 30 * time.Second,
		pongWait:       60 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ xhttp.Handler = (*Handler)(nil)

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)

	s := g.Group("", h.requireSession)
	s.GET("/auth/whoami", h.WhoAmI)

	s.GET("/trades/history", h.TradeHistory)
	s.GET("/trades/history/csv", h.TradeHistoryCSV)
	s.GET("/trades/positions", h.Positions)
	s.GET("/trades/expiring", h.Expiring)
	s.GET("/trades/recent", h.RecentTrades)

	s.GET("/quotes", h.Quotes)
	s.GET("/quotes/recent", h.RecentQuotes)
	s.GET("/quotes/table", h.QuoteTable)
	s.GET("/quotes/csv", h.QuoteCSV)
	s.POST("/quotes/status", h.ChangeQuoteStatus)
	s.PATCH("/quotes", h.ModifyQuotes)
	s.POST("/quotes/iv", h.UpdateIV)

	s.GET("/risk/summary", h.RiskSummary)
	s.GET("/risk/positions/csv", h.RiskPositionsCSV)
	s.GET("/risk/history", h.RiskHistory)
	s.GET("/risk/stream", h.RiskStream)

	s.GET("/reference/currencies", h.Currencies)
	s.GET("/reference/counterparties", h.Counterparties)
	s.GET("/reference/interest-rate", h.InterestRate)
	s.POST("/reference/interest-rate", h.CreateInterestRate)
	s.GET("/reference/spot", h.Spot)

	s.GET("/termsheets", h.TermSheets)
	s.POST("/termsheets/:id/status", h.DecideTermSheet)
	s.GET("/termsheets/:id/download", h.DownloadTermSheet)
	s.POST("/deals/settlement-options", h.SettlementOptions)
	s.POST("/deals/termsheet", h.SubmitTermSheet)

	cp := s.Group("/counterparties/:ticker")
	cp.GET("/trades", h.CounterpartyTrades)
	cp.GET("/trades/csv", h.CounterpartyTradesCSV)
	cp.GET("/transfers", h.CounterpartyTransfers)
	cp.GET("/quotes", h.CounterpartyQuotes)
	cp.GET("/quotes/csv", h.CounterpartyQuotesCSV)
	cp.GET("/loans", h.CounterpartyLoans)
	cp.GET("/loans/csv", h.CounterpartyLoansCSV)
	cp.GET("/overview", h.CounterpartyOverview)

	s.GET("/audit", h.AuditLog)
}

// fail logs err and renders it in the response envelope.
func (h *Handler) fail(c echo.Context, op string, err error) error {
	fields := []applogger.Field{
		applogger.String("op", op),
		applogger.String("path", c.Path()),
		applogger.Error(err),
	}
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		h.logger.Warn("request rejected", fields...)
	} else {
		h.logger.Error("request failed", fields...)
	}
	return xhttp.AppErrorResponse(c, err)
}
