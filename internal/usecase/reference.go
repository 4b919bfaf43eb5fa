package usecase

import (
	"context"
	"strconv"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/pkg/cache"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
)

const (
	currenciesKey     = "reference:currencies"
	counterpartiesKey = "reference:counterparties"
)

// ReferenceUseCase serves currencies, counterparties, interest rates and
// spot prices. Currencies and counterparties change rarely and are cached.
type ReferenceUseCase struct {
	repo   domrepo.ReferenceRepository
	spot   domrepo.SpotProvider
	cache  cache.Service
	ttl    time.Duration
	events domrepo.EventSink
	log    *applogger.Logger
	now    func() time.Time
}

func NewReferenceUseCase(
	repo domrepo.ReferenceRepository,
	spot domrepo.SpotProvider,
	c cache.Service,
	ttl time.Duration,
	events domrepo.EventSink,
	l *applogger.Logger,
) *ReferenceUseCase {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ReferenceUseCase{repo: repo, spot: spot, cache: c, ttl: ttl, events: events, log: l, now: time.Now}
}

func (uc *ReferenceUseCase) Currencies(ctx context.Context, token string) ([]models.Currency, error) {
	return cache.Remember(ctx, uc.cache, currenciesKey, uc.ttl, func(ctx context.Context) ([]models.Currency, error) {
		return uc.repo.Currencies(ctx, token)
	})
}

func (uc *ReferenceUseCase) Counterparties(ctx context.Context, token string) ([]models.CounterParty, error) {
	return cache.Remember(ctx, uc.cache, counterpartiesKey, uc.ttl, func(ctx context.Context) ([]models.CounterParty, error) {
		return uc.repo.Counterparties(ctx, token)
	})
}

func (uc *ReferenceUseCase) InterestRate(ctx context.Context, token string) (*models.InterestRate, error) {
	return uc.repo.LatestInterestRate(ctx, token)
}

// CreateInterestRate records a new rate; the latest one wins.
func (uc *ReferenceUseCase) CreateInterestRate(ctx context.Context, token, actor string, req models.InterestRateRequest) error {
	if req.CurrencyID <= 0 {
		return xhttp.BadRequestError("currency_id is required")
	}
	if req.Rate < 0 {
		return xhttp.BadRequestError("rate must not be negative")
	}
	if err := uc.repo.CreateInterestRate(ctx, token, req); err != nil {
		return err
	}
	e := models.NewDeskEvent(models.EventInterestRateCreated, actor, strconv.Itoa(req.CurrencyID), uc.now())
	emit(ctx, uc.events, uc.log, e.WithPayload(req))
	return nil
}

func (uc *ReferenceUseCase) Spot(ctx context.Context, pair string) (*models.SpotPrice, error) {
	if pair == "" {
		return nil, xhttp.BadRequestError("pair is required")
	}
	return uc.spot.Spot(ctx, pair)
}
