package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"DeskPortal/pkg/util"
)

const (
	// BumpSteps is the number of spot bumps priced on each side.
	BumpSteps = 3
	// MaxBump is the largest accepted bump percentage.
	MaxBump = 15.0
	// DefaultBump is used when no bump is given.
	DefaultBump = 1.0
	// AllCounterparties selects every counterparty of the desk.
	AllCounterparties = "ALL"
)

// ClampBump bounds a bump percentage to [0, MaxBump]. NaN yields DefaultBump.
func ClampBump(b float64) float64 {
	switch {
	case math.IsNaN(b):
		return DefaultBump
	case b < 0:
		return 0
	case b > MaxBump:
		return MaxBump
	}
	return b
}

// IncludesAll reports whether the counterparty selection covers everyone.
func IncludesAll(counterparty string) bool {
	return strings.Contains(counterparty, AllCounterparties)
}

// RiskSource names one input of the risk aggregate.
type RiskSource string

const (
	SourceActive     RiskSource = "active"
	SourceDeribit    RiskSource = "deribit"
	SourceITMOTM     RiskSource = "itm_otm"
	SourceCollateral RiskSource = "collateral"
)

// RiskSources lists every source in display order.
var RiskSources = []RiskSource{SourceActive, SourceDeribit, SourceITMOTM, SourceCollateral}

// SourceStatus is the outcome of fetching one source.
type SourceStatus string

const (
	StatusOK      SourceStatus = "ok"
	StatusEmpty   SourceStatus = "empty"
	StatusFailed  SourceStatus = "failed"
	StatusSkipped SourceStatus = "skipped"
)

// AggregateGreeks is a Greeks and PnL contribution. Fields a source does not
// report stay zero.
type AggregateGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Pnl   float64 `json:"pnl"`
}

// TotalGreeks sums the contributions field by field:
//
//	delta = active + deribit + itm_otm
//	gamma = active + deribit
//	theta = active + deribit
//	pnl   = active + deribit + itm_otm + collateral
//
// Missing sources contribute zero.
func TotalGreeks(c map[RiskSource]AggregateGreeks) AggregateGreeks {
	active, deribit, itm, coll := c[SourceActive], c[SourceDeribit], c[SourceITMOTM], c[SourceCollateral]
	return AggregateGreeks{
		Delta: active.Delta + deribit.Delta + itm.Delta,
		Gamma: active.Gamma + deribit.Gamma,
		Theta: active.Theta + deribit.Theta,
		Pnl:   active.Pnl + deribit.Pnl + itm.Pnl + coll.Pnl,
	}
}

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
}

// PositionGreekRequest is one position sent to /quote/greeks.
type PositionGreekRequest struct {
	Side           string   `json:"side"`
	OptionKind     string   `json:"option_kind"`
	Amount         float64  `json:"amount"`
	Strike         float64  `json:"strike"`
	TTM            float64  `json:"ttm"`
	InceptionPrice float64  `json:"inception_price"`
	Spot           *float64 `json:"spot"`
	R2             *float64 `json:"r2"`
	R1             *float64 `json:"r1"`
	IV             *float64 `json:"iv"`
	Expiry         string   `json:"expiry"`
	ReqID          string   `json:"req_id"`
}

// PositionsGreeksRequest is the /quote/greeks request body.
type PositionsGreeksRequest struct {
	Positions   []PositionGreekRequest `json:"positions"`
	CurrentSpot float64                `json:"current_spot"`
	SpotBump    float64                `json:"spot_bump"`
	BumpTimes   int                    `json:"bump_times"`
}

// NewGreeksRequest builds the pricing request for open positions. bump is a
// percentage and is clamped first.
func NewGreeksRequest(trades []Trade, spot, r2, bump float64, now time.Time) PositionsGreeksRequest {
	positions := make([]PositionGreekRequest, 0, len(trades))
	for _, t := range trades {
		r2 := r2
		positions = append(positions, t.greekRequest(spot, &r2, now))
	}
	return PositionsGreeksRequest{
		Positions:   positions,
		CurrentSpot: spot,
		SpotBump:    ClampBump(bump) / 100,
		BumpTimes:   BumpSteps,
	}
}

// LivePnlSpotBump is the fixed spot bump used to price the positions view.
const LivePnlSpotBump = 0.05

// NewLivePnlRequest builds the request that reprices open positions for
// their live PnL. Each position keeps its own r2.
func NewLivePnlRequest(trades []Trade, spot float64, now time.Time) PositionsGreeksRequest {
	positions := make([]PositionGreekRequest, 0, len(trades))
	for _, t := range trades {
		positions = append(positions, t.greekRequest(spot, t.R2, now))
	}
	return PositionsGreeksRequest{
		Positions:   positions,
		CurrentSpot: spot,
		SpotBump:    LivePnlSpotBump,
		BumpTimes:   BumpSteps,
	}
}

func (t Trade) greekRequest(spot float64, r2 *float64, now time.Time) PositionGreekRequest {
	zero := 0.0
	return PositionGreekRequest{
		Side:           t.Side,
		OptionKind:     deref(t.OptionKind),
		Amount:         math.Abs(derefFloat(t.Amount)),
		Strike:         t.Strike,
		TTM:            util.TimeToExpiry(t.ExpiryTimestamp, now),
		InceptionPrice: math.Abs(derefFloat(t.PxInQuoteCcy)),
		Spot:           &spot,
		R2:             r2,
		R1:             &zero,
		IV:             t.IV,
		Expiry:         t.ExpiryTimestamp,
		ReqID:          strconv.Itoa(t.ID),
	}
}

type AtmRiskSlide struct {
	Spot  float64 `json:"spot"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Pnl   float64 `json:"pnl"`
}

// Contribution returns the slide as an aggregate contribution.
func (a AtmRiskSlide) Contribution() AggregateGreeks {
	return AggregateGreeks{Delta: a.Delta, Gamma: a.Gamma, Theta: a.Theta, Pnl: a.Pnl}
}

type PositionGreekResponse struct {
	PxInBaseCcy   float64 `json:"px_in_base_ccy"`
	PxInQuoteCcy  float64 `json:"px_in_quote_ccy"`
	Greeks        Greeks  `json:"greeks"`
	Pnl           float64 `json:"pnl"`
	PnlPercentage float64 `json:"pnl_percentage"`
	ReqID         *string `json:"req_id,omitempty"`
}

// BumpedGreek is one named row of the bump table, one value per step.
type BumpedGreek struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type PositionsGreeksResponse struct {
	Data struct {
		AtmRiskSlide    AtmRiskSlide            `json:"atm_risk_slide"`
		Positions       []PositionGreekResponse `json:"positions"`
		AggBumpedGreeks []BumpedGreek           `json:"agg_bumped_greeks"`
	} `json:"data"`
}

// MergeGreeks copies priced greeks into the rows whose id matches req_id.
// Unmatched responses are ignored.
func MergeGreeks(rows []RiskSlideTrade, priced []PositionGreekResponse, r2 float64, loc *time.Location) {
	idx := make(map[int]int, len(rows))
	for i, r := range rows {
		idx[r.ID] = i
	}
	for _, p := range priced {
		if p.ReqID == nil {
			continue
		}
		id, err := strconv.Atoi(*p.ReqID)
		if err != nil {
			continue
		}
		i, ok := idx[id]
		if !ok {
			continue
		}
		row := &rows[i]
		row.InceptionPrice = math.Abs(row.InceptionPrice)
		row.CurrentPrice = p.PxInQuoteCcy
		row.Delta = p.Greeks.Delta
		row.Gamma = p.Greeks.Gamma
		row.Theta = p.Greeks.Theta
		row.Pnl = p.Pnl
		row.PnlPercentage = p.PnlPercentage
		row.R2 = r2
		row.ExpiryTimestamp = util.ToLocalOr(row.ExpiryTimestamp, loc, row.ExpiryTimestamp)
	}
}

// MergeLivePnl writes the priced pnl and pnl percentage into the trades whose
// id matches req_id. Unmatched responses are ignored.
func MergeLivePnl(trades []Trade, priced []PositionGreekResponse) {
	idx := make(map[int]int, len(trades))
	for i, t := range trades {
		idx[t.ID] = i
	}
	for _, p := range priced {
		if p.ReqID == nil {
			continue
		}
		id, err := strconv.Atoi(*p.ReqID)
		if err != nil {
			continue
		}
		i, ok := idx[id]
		if !ok {
			continue
		}
		pnl, pct := p.Pnl, p.PnlPercentage
		trades[i].Pnl = &pnl
		trades[i].LivePnlPercentage = &pct
	}
}

// DeribitPosition is an exchange position as reported by the pricer.
type DeribitPosition struct {
	EstimatedLiquidationPrice *float64 `json:"estimated_liquidation_price,omitempty"`
	SizeCurrency              *float64 `json:"size_currency,omitempty"`
	TotalProfitLoss           *float64 `json:"total_profit_loss,omitempty"`
	RealizedProfitLoss        *float64 `json:"realized_profit_loss,omitempty"`
	FloatingProfitLoss        *float64 `json:"floating_profit_loss,omitempty"`
	Leverage                  *float64 `json:"leverage,omitempty"`
	AveragePrice              *float64 `json:"average_price,omitempty"`
	Delta                     *float64 `json:"delta,omitempty"`
	OpenOrdersMargin          *float64 `json:"open_orders_margin,omitempty"`
	InitialMargin             *float64 `json:"initial_margin,omitempty"`
	MaintenanceMargin         *float64 `json:"maintenance_margin,omitempty"`
	SettlementPrice           *float64 `json:"settlement_price,omitempty"`
	InstrumentName            *string  `json:"instrument_name,omitempty"`
	MarkPrice                 *float64 `json:"mark_price,omitempty"`
	IndexPrice                *float64 `json:"index_price,omitempty"`
	Direction                 *string  `json:"direction,omitempty"`
	Kind                      *string  `json:"kind,omitempty"`
	Size                      *float64 `json:"size,omitempty"`
	FloatingProfitLossUSD     *float64 `json:"floating_profit_loss_usd,omitempty"`
	AveragePriceUSD           *float64 `json:"average_price_usd,omitempty"`
	Theta                     *float64 `json:"theta,omitempty"`
	Vega                      *float64 `json:"vega,omitempty"`
	Gamma                     *float64 `json:"gamma,omitempty"`
	RealizedFunding           *float64 `json:"realized_funding,omitempty"`
	InterestValue             *float64 `json:"interest_value,omitempty"`
}

type DeribitRiskSlide struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Pnl   float64 `json:"pnl"`
}

// Contribution returns the slide as an aggregate contribution.
func (d DeribitRiskSlide) Contribution() AggregateGreeks {
	return AggregateGreeks{Delta: d.Delta, Gamma: d.Gamma, Theta: d.Theta, Pnl: d.Pnl}
}

type DeribitRequest struct {
	Currency string `json:"currency"`
}

type DeribitResponse struct {
	Data struct {
		Positions        []DeribitPosition `json:"positions"`
		DeribitRiskSlide DeribitRiskSlide  `json:"deribit_risk_slide"`
	} `json:"data"`
}

// PositionsRequest is the body of the ITM/OTM and collateral endpoints.
type PositionsRequest struct {
	Currency     string  `json:"currency"`
	Counterparty string  `json:"counterparty"`
	CurrentSpot  float64 `json:"current_spot"`
}

type ITMOTMPosition struct {
	ID              int     `json:"id"`
	InstrumentName  string  `json:"instrument_name"`
	Amount          float64 `json:"amount"`
	Side            string  `json:"side"`
	IndexPrice      float64 `json:"index_price"`
	Pnl             float64 `json:"pnl"`
	PnlCcy          string  `json:"pnl_ccy"`
	DateCreated     string  `json:"date_created"`
	ExpiryTimestamp string  `json:"expiry_timestamp"`
	TradeStatus     string  `json:"trade_status"`
	CounterpartyID  struct {
		Name string `json:"name"`
	} `json:"counterparty_id"`
}

type ITMOTMRiskSlide struct {
	PnlInBaseCcy   float64 `json:"pnl_in_base_ccy"`
	PnlInMarkPrice float64 `json:"pnl_in_mark_price"`
	Delta          float64 `json:"delta"`
}

// Contribution counts delta and the mark-price PnL.
func (s ITMOTMRiskSlide) Contribution() AggregateGreeks {
	return AggregateGreeks{Delta: s.Delta, Pnl: s.PnlInMarkPrice}
}

type ITMOTMResponse struct {
	Data struct {
		Positions []ITMOTMPosition `json:"positions"`
		RiskSlide ITMOTMRiskSlide  `json:"positions_itm_otm_risk_slide"`
	} `json:"data"`
}

type Collateral struct {
	TotalInitialUSD float64 `json:"total_initial_usd"`
	TotalCurrentUSD float64 `json:"total_current_usd"`
	TotalNotional   float64 `json:"total_notional"`
	Pnl             float64 `json:"pnl"`
}

// Contribution counts only the unwind PnL.
func (c Collateral) Contribution() AggregateGreeks {
	return AggregateGreeks{Pnl: c.Pnl}
}

type CollateralData struct {
	ExchangeName string  `json:"exchange_name"`
	InitialUSD   float64 `json:"initial_usd"`
	CurrentUSD   float64 `json:"current_usd"`
	Notional     float64 `json:"notional"`
	Pnl          float64 `json:"pnl"`
}

type CollateralResponse struct {
	Data struct {
		UnwindRiskSlide Collateral       `json:"unwind_risk_slide"`
		ExchangesUnwind []CollateralData `json:"exchanges_unwind"`
	} `json:"data"`
}

// SourceResult is the outcome of one risk source.
type SourceResult struct {
	Status       SourceStatus    `json:"status"`
	Contribution AggregateGreeks `json:"contribution"`
	Error        string          `json:"error,omitempty"`
}

// RiskSummary is the merged view of every risk source.
type RiskSummary struct {
	Pair         string                      `json:"pair"`
	Counterparty string                      `json:"counterparty"`
	Bump         float64                     `json:"bump"`
	Spot         float64                     `json:"spot"`
	Total        AggregateGreeks             `json:"total"`
	Sources      map[RiskSource]SourceResult `json:"sources"`
	Errors       map[string]string           `json:"errors,omitempty"`
	Positions    []RiskSlideTrade            `json:"positions"`
	Deribit      []DeribitPosition           `json:"deribit_positions"`
	ITMOTM       []ITMOTMPosition            `json:"itm_otm_positions"`
	Collateral   Collateral                  `json:"collateral"`
	Exchanges    []CollateralData            `json:"exchanges_unwind"`
	BumpTable    []BumpedGreek               `json:"bump_table"`
	ComputedAt   time.Time                   `json:"computed_at"`
}

// Contributions returns each source's contribution.
func (s *RiskSummary) Contributions() map[RiskSource]AggregateGreeks {
	out := make(map[RiskSource]AggregateGreeks, len(s.Sources))
	for k, v := range s.Sources {
		out[k] = v.Contribution
	}
	return out
}

// RiskSnapshot is the stored form of a RiskSummary.
type RiskSnapshot struct {
	ComputedAt   time.Time                   `json:"computed_at"`
	Pair         string                      `json:"pair"`
	Counterparty string                      `json:"counterparty"`
	Bump         float64                     `json:"bump"`
	Spot         float64                     `json:"spot"`
	Total        AggregateGreeks             `json:"total"`
	Statuses     map[RiskSource]SourceStatus `json:"statuses"`
}

// Snapshot reduces the summary to its stored form.
func (s *RiskSummary) Snapshot() RiskSnapshot {
	statuses := make(map[RiskSource]SourceStatus, len(s.Sources))
	for k, v := range s.Sources {
		statuses[k] = v.Status
	}
	return RiskSnapshot{
		ComputedAt:   s.ComputedAt,
		Pair:         s.Pair,
		Counterparty: s.Counterparty,
		Bump:         s.Bump,
		Spot:         s.Spot,
		Total:        s.Total,
		Statuses:     statuses,
	}
}
