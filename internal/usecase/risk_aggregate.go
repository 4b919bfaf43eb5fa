package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
	pkgmetrics "DeskPortal/pkg/metrics"
	"DeskPortal/pkg/util"
)

// RiskHistoryDisabledError is returned when no snapshot store is wired.
func RiskHistoryDisabledError() *xhttp.AppError {
	return xhttp.UnavailableError("Risk history is disabled")
}

// RiskAggregateUseCase sums Greeks and PnL across the desk's risk sources.
type RiskAggregateUseCase struct {
	trades    domrepo.TradeRepository
	pricer    domrepo.PricerService
	spot      domrepo.SpotProvider
	snapshots domrepo.SnapshotStore
	metrics   domrepo.Metrics
	log       *applogger.Logger
	loc       *time.Location
	timeout   time.Duration
	now       func() time.Time
}

// NewRiskAggregateUseCase wires the aggregate. snapshots may be nil.
func NewRiskAggregateUseCase(
	trades domrepo.TradeRepository,
	pricer domrepo.PricerService,
	spot domrepo.SpotProvider,
	snapshots domrepo.SnapshotStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	loc *time.Location,
	timeout time.Duration,
) *RiskAggregateUseCase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &RiskAggregateUseCase{
		trades:    trades,
		pricer:    pricer,
		spot:      spot,
		snapshots: snapshots,
		metrics:   metrics,
		log:       l,
		loc:       loc,
		timeout:   timeout,
		now:       time.Now,
	}
}

type RiskParams struct {
	Token        string
	Pair         string
	Counterparty string
	// Bump is a percentage, clamped to [0, 15].
	Bump float64
	R2   float64
}

// sourceItem is what each source goroutine sends back.
type sourceItem struct {
	source models.RiskSource
	result models.SourceResult
	err    error
	apply  func(*models.RiskSummary)
}

// Summary fetches the spot, fans out one goroutine per source and merges the
// contributions. A failing source contributes zero and is reported in Errors;
// only an invalid request fails the call.
func (uc *RiskAggregateUseCase) Summary(ctx context.Context, p RiskParams) (*models.RiskSummary, error) {
	res, err := uc.compute(ctx, p)
	if err != nil {
		return nil, err
	}
	uc.saveSnapshot(ctx, res)
	return res, nil
}

// PositionsCSV prices the open positions and renders them under
// PositionsCSVHeader. Nothing is stored.
func (uc *RiskAggregateUseCase) PositionsCSV(ctx context.Context, p RiskParams) ([][]string, error) {
	res, err := uc.compute(ctx, p)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(res.Positions))
	for _, r := range res.Positions {
		rows = append(rows, r.CSVRow())
	}
	return rows, nil
}

func (uc *RiskAggregateUseCase) compute(ctx context.Context, p RiskParams) (*models.RiskSummary, error) {
	if p.Pair == "" {
		return nil, xhttp.BadRequestError("pair is required")
	}
	if p.Counterparty == "" {
		p.Counterparty = models.AllCounterparties
	}
	p.Bump = models.ClampBump(p.Bump)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	now := uc.now()
	res := &models.RiskSummary{
		Pair:         p.Pair,
		Counterparty: p.Counterparty,
		Bump:         p.Bump,
		Sources:      make(map[models.RiskSource]models.SourceResult, len(models.RiskSources)),
		Errors:       map[string]string{},
		ComputedAt:   now.UTC(),
	}

	spot, spotErr := uc.spot.Spot(ctx, p.Pair)
	if spotErr != nil {
		res.Errors["spot"] = spotErr.Error()
	} else {
		res.Spot = spot.Amount
	}
	currency := util.PairLeg(p.Pair, 0)

	ch := make(chan sourceItem, len(models.RiskSources))
	var wg sync.WaitGroup

	run := func(source models.RiskSource, needsSpot bool, fn func() sourceItem) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if needsSpot && spotErr != nil {
				ch <- sourceItem{source: source, err: errSpotUnavailable}
				return
			}
			it := fn()
			it.source = source
			ch <- it
		}()
	}

	run(models.SourceActive, true, func() sourceItem { return uc.active(ctx, p, res.Spot, now) })
	run(models.SourceDeribit, false, func() sourceItem { return uc.deribit(ctx, p, currency) })
	run(models.SourceITMOTM, true, func() sourceItem { return uc.itmOTM(ctx, p, currency, res.Spot) })
	run(models.SourceCollateral, true, func() sourceItem { return uc.collateral(ctx, p, currency, res.Spot) })

	go func() { wg.Wait(); close(ch) }()

	var applies []func(*models.RiskSummary)
	for it := range ch {
		if it.err != nil {
			res.Errors[string(it.source)] = it.err.Error()
			it.result = models.SourceResult{Status: models.StatusFailed, Error: it.err.Error()}
		} else if it.apply != nil {
			applies = append(applies, it.apply)
		}
		res.Sources[it.source] = it.result
		uc.metrics.RecordSourceStatus(string(it.source), string(it.result.Status))
	}
	for _, apply := range applies {
		apply(res)
	}

	res.Total = models.TotalGreeks(res.Contributions())
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	uc.metrics.RecordLatency("risk_summary", time.Since(start).Seconds())
	return res, nil
}

var errSpotUnavailable = errors.New("spot price unavailable")

func (uc *RiskAggregateUseCase) active(ctx context.Context, p RiskParams, spot float64, now time.Time) sourceItem {
	trades, err := uc.trades.OpenPositions(ctx, p.Token, p.Pair, p.Counterparty)
	if err != nil {
		return sourceItem{err: err}
	}
	if len(trades) == 0 {
		return sourceItem{result: models.SourceResult{Status: models.StatusEmpty}}
	}

	rows := make([]models.RiskSlideTrade, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, t.RiskSlide(uc.loc, now))
	}
	priced, err := uc.pricer.Greeks(ctx, p.Token, models.NewGreeksRequest(trades, spot, p.R2, p.Bump, now))
	if err != nil {
		return sourceItem{err: err}
	}
	models.MergeGreeks(rows, priced.Data.Positions, p.R2, uc.loc)

	return sourceItem{
		result: models.SourceResult{Status: models.StatusOK, Contribution: priced.Data.AtmRiskSlide.Contribution()},
		apply: func(s *models.RiskSummary) {
			s.Positions = rows
			s.BumpTable = priced.Data.AggBumpedGreeks
		},
	}
}

// deribit only applies to the whole book.
func (uc *RiskAggregateUseCase) deribit(ctx context.Context, p RiskParams, currency string) sourceItem {
	if !models.IncludesAll(p.Counterparty) {
		return sourceItem{result: models.SourceResult{Status: models.StatusSkipped}}
	}
	out, err := uc.pricer.Deribit(ctx, p.Token, currency)
	if err != nil {
		return sourceItem{err: err}
	}
	status := models.StatusOK
	if len(out.Data.Positions) == 0 {
		status = models.StatusEmpty
	}
	return sourceItem{
		result: models.SourceResult{Status: status, Contribution: out.Data.DeribitRiskSlide.Contribution()},
		apply:  func(s *models.RiskSummary) { s.Deribit = out.Data.Positions },
	}
}

func (uc *RiskAggregateUseCase) itmOTM(ctx context.Context, p RiskParams, currency string, spot float64) sourceItem {
	req := models.PositionsRequest{Currency: currency, Counterparty: p.Counterparty, CurrentSpot: spot}
	out, err := uc.pricer.ITMOTM(ctx, p.Token, req)
	if err != nil {
		return sourceItem{err: err}
	}
	status := models.StatusOK
	if len(out.Data.Positions) == 0 {
		status = models.StatusEmpty
	}
	return sourceItem{
		result: models.SourceResult{Status: status, Contribution: out.Data.RiskSlide.Contribution()},
		apply:  func(s *models.RiskSummary) { s.ITMOTM = out.Data.Positions },
	}
}

func (uc *RiskAggregateUseCase) collateral(ctx context.Context, p RiskParams, currency string, spot float64) sourceItem {
	req := models.PositionsRequest{Currency: currency, Counterparty: p.Counterparty, CurrentSpot: spot}
	out, err := uc.pricer.Collateral(ctx, p.Token, req)
	if err != nil {
		return sourceItem{err: err}
	}
	status := models.StatusOK
	if len(out.Data.ExchangesUnwind) == 0 {
		status = models.StatusEmpty
	}
	return sourceItem{
		result: models.SourceResult{Status: status, Contribution: out.Data.UnwindRiskSlide.Contribution()},
		apply: func(s *models.RiskSummary) {
			s.Collateral = out.Data.UnwindRiskSlide
			s.Exchanges = out.Data.ExchangesUnwind
		},
	}
}

func (uc *RiskAggregateUseCase) saveSnapshot(ctx context.Context, res *models.RiskSummary) {
	if uc.snapshots == nil {
		return
	}
	if err := uc.snapshots.Save(ctx, res.Snapshot()); err != nil {
		uc.metrics.RecordError("risk_snapshot_save")
		uc.log.Warn("risk snapshot not saved",
			applogger.String("pair", res.Pair),
			applogger.String("counterparty", res.Counterparty),
			applogger.Error(err),
		)
	}
}

// History returns stored snapshots, newest first.
func (uc *RiskAggregateUseCase) History(ctx context.Context, pair, counterparty string, limit int) ([]models.RiskSnapshot, error) {
	if uc.snapshots == nil {
		return nil, RiskHistoryDisabledError()
	}
	if counterparty == "" {
		counterparty = models.AllCounterparties
	}
	out, err := uc.snapshots.Recent(ctx, pair, counterparty, limit)
	if err != nil {
		return nil, xhttp.InternalError("Failed to load risk history").WithError(err)
	}
	return out, nil
}
