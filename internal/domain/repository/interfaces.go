package repository

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
)

// Every Directus and pricer call carries the session access token.

type TradeRepository interface {
	History(ctx context.Context, token string, limit int) ([]models.Trade, error)
	OpenPositions(ctx context.Context, token, pair, counterparty string) ([]models.Trade, error)
	Expiring(ctx context.Context, token string) ([]models.Trade, error)
	WithoutTermSheet(ctx context.Context, token string) ([]models.Trade, error)
}

type QuoteRepository interface {
	ByStatus(ctx context.Context, token string, status models.QuoteStatus) ([]models.QuoteOption, error)
	ByStatusBetween(ctx context.Context, token string, status models.QuoteStatus, from, to time.Time) ([]models.QuoteOption, error)
	ByGroups(ctx context.Context, token string, groupIDs []string) ([]models.QuoteOption, error)
	// UpdateStatuses applies every change in one request.
	UpdateStatuses(ctx context.Context, token string, changes []models.StatusChange) error
	Modify(ctx context.Context, token string, mods []models.Modification) error
	UpdateIV(ctx context.Context, token string, groupIDs []string, iv float64) error
}

type ReferenceRepository interface {
	Currencies(ctx context.Context, token string) ([]models.Currency, error)
	Counterparties(ctx context.Context, token string) ([]models.CounterParty, error)
	LatestInterestRate(ctx context.Context, token string) (*models.InterestRate, error)
	CreateInterestRate(ctx context.Context, token string, req models.InterestRateRequest) error
}

type TermSheetRepository interface {
	ListNew(ctx context.Context, token string) ([]models.TermSheet, error)
	UpdateStatus(ctx context.Context, token string, id int, status models.TermSheetStatus) error
}

// CounterpartyRepository reads the desk's records with one counterparty,
// newest first.
type CounterpartyRepository interface {
	Trades(ctx context.Context, token, ticker string) ([]models.Trade, error)
	Transfers(ctx context.Context, token, ticker string) ([]models.WalletTransaction, error)
	Quotes(ctx context.Context, token, ticker string) ([]models.QuoteOption, error)
	Loans(ctx context.Context, token, ticker string) ([]models.Loan, error)
}

type PortfolioService interface {
	Overview(ctx context.Context, token, counterparty, currency string) (*models.PortfolioOverview, error)
}

type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

type PricerService interface {
	Greeks(ctx context.Context, token string, req models.PositionsGreeksRequest) (*models.PositionsGreeksResponse, error)
	Deribit(ctx context.Context, token, currency string) (*models.DeribitResponse, error)
	ITMOTM(ctx context.Context, token string, req models.PositionsRequest) (*models.ITMOTMResponse, error)
	Collateral(ctx context.Context, token string, req models.PositionsRequest) (*models.CollateralResponse, error)
}

type SpotProvider interface {
	Spot(ctx context.Context, pair string) (*models.SpotPrice, error)
}

type DealGateway interface {
	SettlementOptions(ctx context.Context, token string, req models.SettlementOptionRequest) ([]models.SettlementOption, error)
	SubmitTermSheet(ctx context.Context, token string, req models.SubmitTermSheetRequest) (*models.SubmitTermSheetResponse, error)
	DownloadURL(fileID string) string
}

type EventPublisher interface {
	Publish(ctx context.Context, e models.DeskEvent) error
	PublishBatch(ctx context.Context, events []models.DeskEvent) error
	Close() error
}

type SnapshotStore interface {
	Save(ctx context.Context, s models.RiskSnapshot) error
	Recent(ctx context.Context, pair, counterparty string, limit int) ([]models.RiskSnapshot, error)
}

type AuditStore interface {
	Store(ctx context.Context, e models.DeskEvent) error
	StoreBatch(ctx context.Context, events []models.DeskEvent) error
	Query(ctx context.Context, q models.AuditQuery) ([]models.DeskEvent, error)
}

type Metrics interface {
	RecordUpstream(service, op string, seconds float64, err error)
	RecordSourceStatus(source, status string)
	RecordQuoteDecision(status string, count int)
	RecordEvent(eventType, outcome string)
	RecordError(kind string)
	RecordLastSpot(pair string, price float64)
	RecordLatency(op string, seconds float64)
}

// EventSink accepts desk events without blocking the caller.
type EventSink interface {
	Emit(ctx context.Context, e models.DeskEvent) error
}
