package models

import (
	"DeskPortal/pkg/table"
	"DeskPortal/pkg/util"
)

// Requests for the portal HTTP endpoints.

type TableRequest struct {
	Search string `query:"search" json:"search"`
	Sort   string `query:"sort" json:"sort"`
	Asc    bool   `query:"asc" json:"asc"`
	Page   int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	Size   int    `query:"size" json:"size" default:"10" validate:"oneof=5 10 15 20 25 50 100"`
}

// Query converts the request into a table query.
func (r TableRequest) Query() table.Query {
	return table.Query{Search: r.Search, SortKey: r.Sort, Ascending: r.Asc, Page: r.Page, Size: r.Size}
}

type PositionsQuery struct {
	Pair         string `query:"pair" json:"pair" validate:"required,pair"`
	Counterparty string `query:"counterparty" json:"counterparty" default:"ALL"`
}

type RiskRequest struct {
	Pair         string  `query:"pair" json:"pair" validate:"required,pair"`
	Counterparty string  `query:"counterparty" json:"counterparty" default:"ALL"`
	Bump         string  `query:"bump" json:"bump" validate:"omitempty,numeric"`
	R2           float64 `query:"r2" json:"r2"`
}

// BumpValue returns the requested bump, clamped. A missing bump is
// DefaultBump.
func (r RiskRequest) BumpValue() float64 {
	if r.Bump == "" {
		return DefaultBump
	}
	return ClampBump(util.ParseFloatDefault(r.Bump, DefaultBump))
}

type RiskHistoryRequest struct {
	Pair         string `query:"pair" json:"pair" validate:"required,pair"`
	Counterparty string `query:"counterparty" json:"counterparty" default:"ALL"`
	Limit        int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type QuoteStatusRequest struct {
	Status QuoteStatus `query:"status" json:"status" default:"active" validate:"oneof=active approved rejected"`
}

type QuoteTableRequest struct {
	TableRequest
	Status QuoteStatus `query:"status" json:"status" default:"active" validate:"oneof=active approved rejected"`
}

type ChangeStatusRequest struct {
	GroupIDs []string    `json:"group_ids" validate:"required,min=1,dive,required"`
	Status   QuoteStatus `json:"status" validate:"required,oneof=approved rejected"`
}

type ModifyQuotesRequest struct {
	Quotes []Modification `json:"quotes" validate:"required,min=1,dive"`
}

type UpdateIVRequest struct {
	GroupIDs []string `json:"group_ids" validate:"required,min=1,dive,required"`
	IV       float64  `json:"iv" validate:"gt=0"`
}

type TermSheetStatusRequest struct {
	ID     int             `param:"id" json:"-" validate:"required"`
	Status TermSheetStatus `json:"status" validate:"required,oneof=Approved Rejected"`
}

type SpotRequest struct {
	Pair string `query:"pair" json:"pair" validate:"required,pair"`
}

type TradeHistoryRequest struct {
	TableRequest
	// Kind keeps one instrument kind, e.g. "option" or "spot".
	Kind string `query:"kind" json:"kind"`
}

type ExpiringRequest struct {
	View string `query:"view" json:"view" default:"all" validate:"oneof=all upcoming expired"`
}

// CounterpartyRequest names the counterparty of a /counterparties/:ticker view.
type CounterpartyRequest struct {
	Ticker string `param:"ticker" json:"-" validate:"required,max=32,excludesall=/?&#"`
}

type CounterpartyTradesRequest struct {
	CounterpartyRequest
	TradeHistoryRequest
}

type TransfersRequest struct {
	CounterpartyRequest
	TableRequest
	// Action keeps one transaction type, e.g. "deposit". ALL keeps every one.
	Action string `query:"action" json:"action" default:"ALL" validate:"required,max=32"`
}

type CounterpartyQuotesRequest struct {
	CounterpartyRequest
	TableRequest
}

type LoansRequest struct {
	CounterpartyRequest
	TableRequest
	Active bool `query:"active" json:"active"`
}
