package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"DeskPortal/pkg/table"
	"DeskPortal/pkg/util"
)

// Placeholder rendered for values a trade does not carry.
const Missing = "- -"

// Trade is a row of the Directus trade collection.
type Trade struct {
	ID                  int          `json:"id"`
	DateCreated         *string      `json:"date_created,omitempty"`
	DateUpdated         *string      `json:"date_updated,omitempty"`
	ExpiryTimestamp     string       `json:"expiry_timestamp"`
	VenueInstrumentName string       `json:"venue_instrument_name"`
	InstrumentKind      string       `json:"instrument_kind"`
	Side                string       `json:"side"`
	GroupID             string       `json:"group_id"`
	TTM                 *float64     `json:"ttm,omitempty"`
	PxInBaseCcy         *float64     `json:"px_in_base_ccy,omitempty"`
	PxInQuoteCcy        *float64     `json:"px_in_quote_ccy,omitempty"`
	PayoutCcy           *string      `json:"payout_ccy,omitempty"`
	Strike              float64      `json:"strike"`
	Amount              *float64     `json:"amount,omitempty"`
	OptionKind          *string      `json:"option_kind,omitempty"`
	Spot                *float64     `json:"spot,omitempty"`
	R1                  *float64     `json:"r1,omitempty"`
	R2                  *float64     `json:"r2,omitempty"`
	IV                  *float64     `json:"iv,omitempty"`
	PnlSnapshotCcy      *string      `json:"pnl_snapshot_ccy,omitempty"`
	PnlSnapshot         *float64     `json:"pnl_snapshot,omitempty"`
	PnlCcy              *string      `json:"pnl_ccy,omitempty"`
	Pnl                 *float64     `json:"pnl,omitempty"`
	LivePnlPercentage   *float64     `json:"live_pnl_percentage,omitempty"`
	TradeStatus         *string      `json:"trade_status,omitempty"`
	TradeType           string       `json:"trade_type"`
	Activity            string       `json:"activity"`
	IndexPrice          *float64     `json:"index_price,omitempty"`
	BaseCurrency        Currency     `json:"base_currency_id"`
	QuoteCurrency       Currency     `json:"quote_currency_id"`
	Ccy                 Currency     `json:"ccy_id"`
	Pair                CurrencyPair `json:"pair_id"`
	CounterParty        CounterParty `json:"counterparty_id"`
	PartyA              CounterParty `json:"party_a"`
	PartyB              CounterParty `json:"party_b"`
	UserCreated         *User        `json:"user_created,omitempty"`
}

// TradeFields is the Directus fields= selection for a Trade.
func TradeFields() string {
	return strings.Join([]string{
		"id, date_created, date_updated, expiry_timestamp, venue_instrument_name, instrument_kind, side, group_id, ttm, px_in_base_ccy, px_in_quote_ccy, payout_ccy, strike, amount, option_kind, spot, r1, r2, iv, pnl_snapshot_ccy, pnl_snapshot, pnl_ccy, pnl, live_pnl_percentage, trade_status, trade_type, activity, index_price",
		CurrencyFields("base_currency_id"),
		CurrencyFields("quote_currency_id"),
		CurrencyFields("ccy_id"),
		CurrencyPairFields("pair_id"),
		CounterPartyFields("counterparty_id"),
		CounterPartyFields("party_a"),
		CounterPartyFields("party_b"),
		UserFields("user_created"),
	}, ", ")
}

// IsOpen reports whether the trade activity is "open", ignoring case.
func (t Trade) IsOpen() bool {
	return strings.EqualFold(t.Activity, "open")
}

// LastUpdated is date_updated, falling back to date_created.
func (t Trade) LastUpdated() string {
	if t.DateUpdated != nil {
		return *t.DateUpdated
	}
	return deref(t.DateCreated)
}

// ExtractedTrade is the display projection of a Trade.
type ExtractedTrade struct {
	ID             int    `json:"id"`
	Market         string `json:"market"`
	Side           string `json:"side"`
	Kind           string `json:"kind"`
	TransType      string `json:"trans_type"`
	Size           string `json:"size"`
	Price          string `json:"price"`
	LivePnl        string `json:"live_pnl"`
	Time           string `json:"time"`
	Currency       string `json:"currency"`
	DateCreated    string `json:"date_created"`
	PremiumCcy     string `json:"premium_ccy"`
	LivePnlCcy     string `json:"live_pnl_ccy"`
	RealizedPnl    string `json:"realized_pnl"`
	RealizedPnlCcy string `json:"realized_pnl_ccy"`
	TradeStatus    string `json:"trade_status"`
	TradeType      string `json:"trade_type"`
	Activity       string `json:"activity"`
	SideStatus     string `json:"side_status"`
	IndexPrice     string `json:"index_price"`
	PartyA         string `json:"party_a"`
	PartyB         string `json:"party_b"`
	PnlPercentage  string `json:"pnl_percentage"`
	LastUpdated    string `json:"last_updated"`
}

var extractedTradeFields = []string{
	"id", "market", "side", "kind", "trans_type", "size", "price", "live_pnl", "time",
	"currency", "date_created", "premium_ccy", "live_pnl_ccy", "realized_pnl",
	"realized_pnl_ccy", "trade_status", "trade_type", "activity", "side_status",
	"index_price", "party_a", "party_b", "pnl_percentage", "last_updated",
}

// ExtractedTradeSchema marks the numeric columns of the trade views.
var ExtractedTradeSchema = table.Columns(extractedTradeFields,
	"id", "size", "price", "live_pnl", "realized_pnl", "index_price", "pnl_percentage")

// Fields implements table.Record.
func (e ExtractedTrade) Fields() []string { return extractedTradeFields }

// Get implements table.Record.
func (e ExtractedTrade) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(e.ID))
	case "market":
		return table.String(e.Market)
	case "side":
		return table.String(e.Side)
	case "kind":
		return table.String(e.Kind)
	case "trans_type":
		return table.String(e.TransType)
	case "size":
		return table.String(e.Size)
	case "price":
		return table.String(e.Price)
	case "live_pnl":
		return table.String(e.LivePnl)
	case "time":
		return table.String(e.Time)
	case "currency":
		return table.String(e.Currency)
	case "date_created":
		return table.String(e.DateCreated)
	case "premium_ccy":
		return table.String(e.PremiumCcy)
	case "live_pnl_ccy":
		return table.String(e.LivePnlCcy)
	case "realized_pnl":
		return table.String(e.RealizedPnl)
	case "realized_pnl_ccy":
		return table.String(e.RealizedPnlCcy)
	case "trade_status":
		return table.String(e.TradeStatus)
	case "trade_type":
		return table.String(e.TradeType)
	case "activity":
		return table.String(e.Activity)
	case "side_status":
		return table.String(e.SideStatus)
	case "index_price":
		return table.String(e.IndexPrice)
	case "party_a":
		return table.String(e.PartyA)
	case "party_b":
		return table.String(e.PartyB)
	case "pnl_percentage":
		return table.String(e.PnlPercentage)
	case "last_updated":
		return table.String(e.LastUpdated)
	}
	return table.Value{}
}

// Extract projects t for display, rendering timestamps in loc.
func (t Trade) Extract(loc *time.Location) ExtractedTrade {
	baseScale := t.BaseCurrency.DisplayScale
	quoteScale := t.QuoteCurrency.DisplayScale
	open := t.IsOpen()

	kind := deref(t.OptionKind)
	if kind == "" {
		kind = Missing
	}

	amount := derefFloat(t.Amount)
	if !open {
		amount = math.Abs(amount)
	}

	var price string
	switch {
	case open && deref(t.PayoutCcy) == "base":
		price = util.FormatFixed(derefFloat(t.PxInBaseCcy), baseScale)
	case open:
		price = util.FormatFixed(derefFloat(t.PxInQuoteCcy), quoteScale)
	case strings.EqualFold(t.InstrumentKind, "spot"):
		price = util.FormatFixed(derefFloat(t.PxInQuoteCcy), quoteScale)
	default:
		price = Missing
	}

	premiumCcy := t.Pair.Leg(1)
	if deref(t.PayoutCcy) == "base" {
		premiumCcy = t.Pair.Leg(0)
	}

	var livePnlCcy string
	if t.PnlSnapshotCcy != nil {
		livePnlCcy = t.Pair.Leg(1)
		if *t.PnlSnapshotCcy == "base" {
			livePnlCcy = t.Pair.Leg(0)
		}
	}

	realized := Missing
	if t.PnlCcy != nil {
		scale := quoteScale
		if *t.PnlCcy == t.BaseCurrency.Ticker {
			scale = baseScale
		}
		realized = util.FormatFixed(derefFloat(t.Pnl), scale)
	}

	status := Missing
	if t.TradeStatus != nil {
		status = *t.TradeStatus
	}

	return ExtractedTrade{
		ID:             t.ID,
		Market:         t.VenueInstrumentName,
		Side:           t.Side,
		Kind:           kind,
		TransType:      t.InstrumentKind,
		Size:           util.FormatFixed(amount, baseScale),
		Price:          price,
		LivePnl:        formatPlain(derefFloat(t.Pnl)),
		Time:           util.ShortDate(t.ExpiryTimestamp),
		Currency:       t.BaseCurrency.Ticker,
		DateCreated:    util.ToLocal(deref(t.DateCreated), loc),
		PremiumCcy:     premiumCcy,
		LivePnlCcy:     livePnlCcy,
		RealizedPnl:    realized,
		RealizedPnlCcy: deref(t.PnlCcy),
		TradeStatus:    status,
		TradeType:      t.TradeType,
		Activity:       t.Activity,
		SideStatus:     t.Activity + " " + t.Side,
		IndexPrice:     formatPlain(derefFloat(t.IndexPrice)),
		PartyA:         t.PartyA.Name,
		PartyB:         t.PartyB.Name,
		PnlPercentage:  formatPlain(derefFloat(t.LivePnlPercentage)),
		LastUpdated:    util.ToLocal(t.LastUpdated(), loc),
	}
}

// ExtractTrades projects every trade.
func ExtractTrades(trades []Trade, loc *time.Location) []ExtractedTrade {
	out := make([]ExtractedTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, t.Extract(loc))
	}
	return out
}

// FilterByKind keeps the rows whose instrument kind equals kind, ignoring case.
func FilterByKind(rows []ExtractedTrade, kind string) []ExtractedTrade {
	out := make([]ExtractedTrade, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(r.TransType, kind) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByStatus keeps the rows whose trade status equals status. With
// reverse it keeps the others instead.
func FilterByStatus(rows []ExtractedTrade, status string, reverse bool) []ExtractedTrade {
	out := make([]ExtractedTrade, 0, len(rows))
	for _, r := range rows {
		if (r.TradeStatus == status) != reverse {
			out = append(out, r)
		}
	}
	return out
}

// CurrencyGroup holds one currency's rows split by expiry date.
type CurrencyGroup struct {
	Currency string                        `json:"currency"`
	Dates    []table.Group[ExtractedTrade] `json:"dates"`
}

// GroupByCurrencyAndDate groups rows by base currency, then by expiry date.
func GroupByCurrencyAndDate(rows []ExtractedTrade) []CurrencyGroup {
	byCcy := table.GroupBy(rows, func(r ExtractedTrade) string { return r.Currency })
	out := make([]CurrencyGroup, 0, byCcy.Len())
	for _, g := range byCcy.List() {
		out = append(out, CurrencyGroup{Currency: g.Key, Dates: GroupByDate(g.Records).List()})
	}
	return out
}

// GroupByDate groups rows by expiry date.
func GroupByDate(rows []ExtractedTrade) *table.Groups[ExtractedTrade] {
	return table.GroupByField(rows, "time")
}

// RiskSlideTrade is the risk-slide row of an open position. Greeks are zero
// until the pricer response is merged in.
type RiskSlideTrade struct {
	ID               int     `json:"id"`
	CounterpartyName string  `json:"counterparty_name"`
	InstrumentName   string  `json:"instrument_name"`
	Spot             float64 `json:"spot"`
	Strike           float64 `json:"strike"`
	OptionKind       string  `json:"option_kind"`
	Amount           float64 `json:"amount"`
	Side             string  `json:"side"`
	R2               float64 `json:"r2"`
	InceptionPrice   float64 `json:"inception_price"`
	TimeToExpiry     float64 `json:"time_to_expiry"`
	IV               float64 `json:"iv"`
	CurrentPrice     float64 `json:"current_price"`
	Delta            float64 `json:"delta"`
	Gamma            float64 `json:"gamma"`
	Theta            float64 `json:"theta"`
	Pnl              float64 `json:"pnl"`
	PnlPercentage    float64 `json:"pnl_percentage"`
	LastUpdated      string  `json:"last_updated"`
	GroupID          string  `json:"group_id"`
	ExpiryTimestamp  string  `json:"expiry_timestamp"`
}

var riskSlideFields = []string{
	"id", "counterparty_name", "instrument_name", "spot", "strike", "option_kind", "amount",
	"side", "r2", "inception_price", "time_to_expiry", "iv", "current_price", "delta",
	"gamma", "theta", "pnl", "pnl_percentage", "last_updated", "group_id", "expiry_timestamp",
}

// RiskSlideSchema marks the numeric columns of the risk-slide view.
var RiskSlideSchema = table.Columns(riskSlideFields,
	"id", "spot", "strike", "amount", "r2", "inception_price", "time_to_expiry", "iv",
	"current_price", "delta", "gamma", "theta", "pnl", "pnl_percentage")

// Fields implements table.Record.
func (r RiskSlideTrade) Fields() []string { return riskSlideFields }

// Get implements table.Record.
func (r RiskSlideTrade) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(r.ID))
	case "counterparty_name":
		return table.String(r.CounterpartyName)
	case "instrument_name":
		return table.String(r.InstrumentName)
	case "spot":
		return table.Number(r.Spot)
	case "strike":
		return table.Number(r.Strike)
	case "option_kind":
		return table.String(r.OptionKind)
	case "amount":
		return table.Number(r.Amount)
	case "side":
		return table.String(r.Side)
	case "r2":
		return table.Number(r.R2)
	case "inception_price":
		return table.Number(r.InceptionPrice)
	case "time_to_expiry":
		return table.Number(r.TimeToExpiry)
	case "iv":
		return table.Number(r.IV)
	case "current_price":
		return table.Number(r.CurrentPrice)
	case "delta":
		return table.Number(r.Delta)
	case "gamma":
		return table.Number(r.Gamma)
	case "theta":
		return table.Number(r.Theta)
	case "pnl":
		return table.Number(r.Pnl)
	case "pnl_percentage":
		return table.Number(r.PnlPercentage)
	case "last_updated":
		return table.String(r.LastUpdated)
	case "group_id":
		return table.String(r.GroupID)
	case "expiry_timestamp":
		return table.String(r.ExpiryTimestamp)
	}
	return table.Value{}
}

// RiskSlide projects an open position for the risk slide.
func (t Trade) RiskSlide(loc *time.Location, now time.Time) RiskSlideTrade {
	px := atScale(derefFloat(t.PxInQuoteCcy), t.Pair.Quote.DisplayScale)
	return RiskSlideTrade{
		ID:               t.ID,
		CounterpartyName: t.PartyB.Name,
		InstrumentName:   t.VenueInstrumentName,
		Spot:             derefFloat(t.Spot),
		Strike:           t.Strike,
		OptionKind:       deref(t.OptionKind),
		Amount:           math.Abs(atScale(derefFloat(t.Amount), t.Pair.Base.DisplayScale)),
		Side:             t.Side,
		R2:               derefFloat(t.R2),
		InceptionPrice:   px,
		TimeToExpiry:     util.TimeToExpiry(t.ExpiryTimestamp, now),
		IV:               derefFloat(t.IV),
		CurrentPrice:     px,
		Pnl:              derefFloat(t.Pnl),
		LastUpdated:      util.ToLocal(t.LastUpdated(), loc),
		GroupID:          t.GroupID,
		ExpiryTimestamp:  t.ExpiryTimestamp,
	}
}

// PositionsCSVHeader is the header row of the positions export.
var PositionsCSVHeader = []string{
	"Counterparty", "Instrument", "Amount", "Side", "R2", "Inception Price", "Time to expiry",
	"IV", "Current Price", "Delta", "Gamma", "Theta(USD)", "PnL(USD)", "PnL Percentage",
	"Last Updated", "Expiration Date",
}

// CSVRow renders r in PositionsCSVHeader order.
func (r RiskSlideTrade) CSVRow() []string {
	return []string{
		r.CounterpartyName,
		r.InstrumentName,
		formatPlain(r.Amount),
		r.Side,
		formatPlain(r.R2),
		formatPlain(r.InceptionPrice),
		formatPlain(r.TimeToExpiry),
		formatPlain(r.IV),
		formatPlain(r.CurrentPrice),
		formatPlain(r.Delta),
		formatPlain(r.Gamma),
		formatPlain(r.Theta),
		formatPlain(r.Pnl),
		formatPlain(r.PnlPercentage),
		r.LastUpdated,
		r.ExpiryTimestamp,
	}
}

// TradeHistoryCSVHeader is the header row of the trade history export.
var TradeHistoryCSVHeader = []string{
	"Date Created", "Market", "Side", "Kind", "Type", "Size", "Price", "Price Currency",
	"Expiry Date", "Status", "Trade Status", "Realized PnL", "Realized PnL Currency",
	"Party A", "Party B",
}

// CSVRow renders e in TradeHistoryCSVHeader order.
func (e ExtractedTrade) CSVRow() []string {
	return []string{
		e.DateCreated, e.Market, e.Side, e.Kind, e.TransType, e.Size, e.Price, e.PremiumCcy,
		e.Time, e.Activity, e.TradeStatus, e.RealizedPnl, e.RealizedPnlCcy, e.PartyA, e.PartyB,
	}
}

// atScale rounds n to the display scale the way the formatted string would.
func atScale(n float64, scale int) float64 {
	f, err := strconv.ParseFloat(util.FormatFixed(n, scale), 64)
	if err != nil {
		return 0
	}
	return f
}

func formatPlain(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
