package models

import (
	"strings"
	"time"

	"DeskPortal/pkg/table"
	"DeskPortal/pkg/util"
)

// QuoteStatus is the lifecycle state of a quote option.
type QuoteStatus string

const (
	QuoteActive   QuoteStatus = "active"
	QuoteApproved QuoteStatus = "approved"
	QuoteRejected QuoteStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteActive, QuoteApproved, QuoteRejected:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteApproved || s == QuoteRejected
}

// CanTransitionTo reports whether a quote in s may move to next. Only active
// quotes move, and only to a terminal status.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	return s == QuoteActive && next.Terminal()
}

// QuoteOption is a row of the Directus quotes_option collection.
type QuoteOption struct {
	ID                  int           `json:"id"`
	DateCreated         string        `json:"date_created"`
	QuoteID             string        `json:"quote_id"`
	Amount              float64       `json:"amount"`
	OptionKind          string        `json:"option_kind"`
	R1                  float64       `json:"r1"`
	R2                  float64       `json:"r2"`
	OffstrikePercentage float64       `json:"offstrike_percentage"`
	Strike              float64       `json:"strike"`
	IV                  float64       `json:"iv"`
	PxInBaseCcy         float64       `json:"px_in_base_ccy"`
	PxInQuoteCcy        float64       `json:"px_in_quote_ccy"`
	Side                string        `json:"side"`
	QuoteExpiry         string        `json:"quote_expiry"`
	ExpiryTimestamp     *string       `json:"expiry_timestamp,omitempty"`
	ModifiedDate        string        `json:"modified_date"`
	QuoteStatus         QuoteStatus   `json:"quote_status"`
	InstrumentName      string        `json:"instrument_name"`
	Spot                float64       `json:"spot"`
	TTM                 float64       `json:"ttm"`
	GTC                 bool          `json:"gtc"`
	GroupID             string        `json:"group_id"`
	Delta               *float64      `json:"delta,omitempty"`
	Gamma               *float64      `json:"gamma,omitempty"`
	Theta               *float64      `json:"theta,omitempty"`
	PayoutCcy           *string       `json:"payout_ccy,omitempty"`
	UserCreated         User          `json:"user_created"`
	Pair                CurrencyPair  `json:"pair_id"`
	Ccy                 Currency      `json:"ccy_id"`
	CounterParty        CounterParty  `json:"counterparty_id"`
	PartyA              *CounterParty `json:"party_a,omitempty"`
	PartyB              *CounterParty `json:"party_b,omitempty"`
}

// QuoteOptionFields is the Directus fields= selection for a QuoteOption.
func QuoteOptionFields() string {
	return strings.Join([]string{
		"id, date_created, quote_id, amount, option_kind, r1, r2, offstrike_percentage, strike, iv, px_in_base_ccy, px_in_quote_ccy, side, quote_expiry, expiry_timestamp, modified_date, quote_status, delta, instrument_name, spot, ttm, gtc, group_id, gamma, theta, payout_ccy",
		UserFields("user_created"),
		CurrencyPairFields("pair_id"),
		CurrencyFields("ccy_id"),
		CounterPartyFields("counterparty_id"),
		CounterPartyFields("party_a"),
		CounterPartyFields("party_b"),
	}, ", ")
}

// Countdown renders the time left on the quote, or GTC.
func (q QuoteOption) Countdown(now time.Time) string {
	return util.Countdown("", q.QuoteExpiry, q.GTC, now)
}

// IsDeskSide reports whether the desk (ticker) is party A of the quote.
func (q QuoteOption) IsDeskSide(ticker string) bool {
	return q.PartyA != nil && q.PartyA.Ticker == ticker && q.CounterParty.Ticker == ticker
}

var quoteOptionFields = []string{
	"id", "date_created", "instrument_name", "quote_status", "side", "option_kind",
	"amount", "strike", "iv", "spot", "px_in_base_ccy", "px_in_quote_ccy", "quote_expiry",
	"group_id", "counterparty",
}

// QuoteOptionSchema marks the numeric columns of raw quote rows.
var QuoteOptionSchema = table.Columns(quoteOptionFields,
	"id", "amount", "strike", "iv", "spot", "px_in_base_ccy", "px_in_quote_ccy")

// Fields implements table.Record.
func (q QuoteOption) Fields() []string { return quoteOptionFields }

// Get implements table.Record.
func (q QuoteOption) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(q.ID))
	case "date_created":
		return table.String(q.DateCreated)
	case "instrument_name":
		return table.String(q.InstrumentName)
	case "quote_status":
		return table.String(string(q.QuoteStatus))
	case "side":
		return table.String(q.Side)
	case "option_kind":
		return table.String(q.OptionKind)
	case "amount":
		return table.Number(q.Amount)
	case "strike":
		return table.Number(q.Strike)
	case "iv":
		return table.Number(q.IV)
	case "spot":
		return table.Number(q.Spot)
	case "px_in_base_ccy":
		return table.Number(q.PxInBaseCcy)
	case "px_in_quote_ccy":
		return table.Number(q.PxInQuoteCcy)
	case "quote_expiry":
		return table.String(q.QuoteExpiry)
	case "group_id":
		return table.String(q.GroupID)
	case "counterparty":
		return table.String(q.CounterParty.Name)
	}
	return table.Value{}
}

// StatusChange is one element of the batched status PATCH.
type StatusChange struct {
	ID           int         `json:"id"`
	QuoteStatus  QuoteStatus `json:"quote_status"`
	ModifiedDate string      `json:"modified_date"`
}

// Modification is one element of the batched quote edit PATCH.
type Modification struct {
	ID             int     `json:"id" validate:"required"`
	Amount         float64 `json:"amount"`
	CounterpartyID int     `json:"counterparty_id" validate:"required"`
	PxInBaseCcy    float64 `json:"px_in_base_ccy"`
	PxInQuoteCcy   float64 `json:"px_in_quote_ccy"`
	QuoteExpiry    string  `json:"quote_expiry"`
	PayoutCcy      *string `json:"payout_ccy,omitempty"`
	PartyA         int     `json:"party_a"`
	PartyB         int     `json:"party_b"`
	GTC            bool    `json:"gtc"`
}

// GroupFilter is a Directus query body matching quotes by group_id.
type GroupFilter struct {
	Filter struct {
		GroupID struct {
			In []string `json:"_in"`
		} `json:"group_id"`
	} `json:"filter"`
}

// NewGroupFilter builds a GroupFilter over groupIDs.
func NewGroupFilter(groupIDs []string) GroupFilter {
	var f GroupFilter
	f.Filter.GroupID.In = groupIDs
	return f
}

// IVUpdate sets the implied volatility of every quote in the filtered groups.
type IVUpdate struct {
	Query GroupFilter `json:"query"`
	Data  struct {
		IV float64 `json:"iv"`
	} `json:"data"`
}

// NewIVUpdate builds an IVUpdate.
func NewIVUpdate(groupIDs []string, iv float64) IVUpdate {
	u := IVUpdate{Query: NewGroupFilter(groupIDs)}
	u.Data.IV = iv
	return u
}

// ExtractedQuoteOption is the display projection of a QuoteOption.
type ExtractedQuoteOption struct {
	ID             int    `json:"id"`
	Market         string `json:"market"`
	Status         string `json:"status"`
	Side           string `json:"side"`
	Kind           string `json:"kind"`
	TransType      string `json:"trans_type"`
	Size           string `json:"size"`
	Price          string `json:"price"`
	GroupID        string `json:"group_id"`
	ExpirationDate string `json:"expiration_date"`
	DateCreated    string `json:"date_created"`
	PremiumCcy     string `json:"premium_ccy"`
}

var extractedQuoteFields = []string{
	"id", "market", "status", "side", "kind", "trans_type", "size", "price", "group_id",
	"expiration_date", "date_created", "premium_ccy",
}

// ExtractedQuoteSchema marks the numeric columns of the quote table.
var ExtractedQuoteSchema = table.Columns(extractedQuoteFields, "id", "size", "price")

// Fields implements table.Record.
func (e ExtractedQuoteOption) Fields() []string { return extractedQuoteFields }

// Get implements table.Record.
func (e ExtractedQuoteOption) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(e.ID))
	case "market":
		return table.String(e.Market)
	case "status":
		return table.String(e.Status)
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
	case "group_id":
		return table.String(e.GroupID)
	case "expiration_date":
		return table.String(e.ExpirationDate)
	case "date_created":
		return table.String(e.DateCreated)
	case "premium_ccy":
		return table.String(e.PremiumCcy)
	}
	return table.Value{}
}

// Extract projects q for display, rendering timestamps in loc.
func (q QuoteOption) Extract(loc *time.Location) ExtractedQuoteOption {
	base := deref(q.PayoutCcy) == "base"

	price := util.FormatFixed(q.PxInQuoteCcy, q.Pair.Quote.DisplayScale)
	premium := q.Pair.Leg(1)
	if base {
		price = util.FormatFixed(q.PxInBaseCcy, q.Pair.Base.DisplayScale)
		premium = q.Pair.Leg(0)
	}

	expiration := util.NotAvailable
	if q.ExpiryTimestamp != nil {
		expiration = util.ToLocal(*q.ExpiryTimestamp, loc)
	}

	return ExtractedQuoteOption{
		ID:             q.ID,
		Market:         q.InstrumentName,
		Status:         string(q.QuoteStatus),
		Side:           q.Side,
		Kind:           q.OptionKind,
		TransType:      "Option",
		Size:           util.FormatFixed(q.Amount, q.Pair.Base.DisplayScale),
		Price:          price,
		GroupID:        q.GroupID,
		ExpirationDate: expiration,
		DateCreated:    util.ToLocal(q.DateCreated, loc),
		PremiumCcy:     premium,
	}
}

// ExtractQuotes projects every quote.
func ExtractQuotes(quotes []QuoteOption, loc *time.Location) []ExtractedQuoteOption {
	out := make([]ExtractedQuoteOption, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Extract(loc))
	}
	return out
}

// QuoteCSVHeader is the header row of the quote export.
var QuoteCSVHeader = []string{
	"Date Created", "Market", "Status", "Side", "Kind", "Type", "Size", "Price", "Price Currency",
}

// CSVRow renders e in QuoteCSVHeader order.
func (e ExtractedQuoteOption) CSVRow() []string {
	return []string{e.DateCreated, e.Market, e.Status, e.Side, e.Kind, e.TransType, e.Size, e.Price, e.PremiumCcy}
}

// QuoteGroup is the set of quotes shown under one counterparty.
type QuoteGroup struct {
	Key          string        `json:"key"`
	Counterparty string        `json:"counterparty"`
	Quotes       []QuoteOption `json:"quotes"`
}

// GroupIDs returns the distinct group ids of the group in first-seen order.
func (g QuoteGroup) GroupIDs() []string {
	seen := make(map[string]struct{}, len(g.Quotes))
	var ids []string
	for _, q := range g.Quotes {
		if _, ok := seen[q.GroupID]; ok {
			continue
		}
		seen[q.GroupID] = struct{}{}
		ids = append(ids, q.GroupID)
	}
	return ids
}

