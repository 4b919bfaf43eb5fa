package models

import (
	"fmt"
	"strconv"

	"DeskPortal/pkg/table"
)

// TermSheetStatus is the approval state of a term sheet.
type TermSheetStatus string

const (
	TermSheetNew      TermSheetStatus = "New"
	TermSheetApproved TermSheetStatus = "Approved"
	TermSheetRejected TermSheetStatus = "Rejected"
)

// Decided reports whether s is an approval decision.
func (s TermSheetStatus) Decided() bool {
	return s == TermSheetApproved || s == TermSheetRejected
}

type NameRef struct {
	Name string `json:"name"`
}

type TickerRef struct {
	Ticker string `json:"ticker"`
}

type SettlementDetail struct {
	SettlementTemplateID *int   `json:"settlement_template_id,omitempty"`
	SettlementCondition  string `json:"settlement_condition"`
	SettlementValue      string `json:"settlement_value"`
}

// TermSheet is a row of the Directus dcl collection.
type TermSheet struct {
	ID                           int                `json:"id"`
	ReferenceID                  string             `json:"reference_id"`
	DealDate                     string             `json:"deal_date"`
	ExpiryDate                   string             `json:"expiry_date"`
	DepositAmount                float64            `json:"deposit_amount"`
	SpotT1                       float64            `json:"spot_t1"`
	Strike                       float64            `json:"strike"`
	R2                           float64            `json:"r2"`
	R1                           float64            `json:"r1"`
	IVT1                         float64            `json:"iv_t1"`
	CollateralSettingMethod      string             `json:"collateral_setting_method"`
	CollateralExchangeSettlement string             `json:"collateral_exchange_settlement"`
	ExchangeRateDeterminingAgent string             `json:"exchange_rate_determining_agent"`
	TermSheet                    *string            `json:"term_sheet,omitempty"`
	TermSheetStatus              TermSheetStatus    `json:"term_sheet_status"`
	InstrumentType               string             `json:"instrument_type"`
	StopLossLevel                float64            `json:"stop_loss_level"`
	PxInBaseCcy                  float64            `json:"px_in_base_ccy"`
	PxInQuoteCcy                 float64            `json:"px_in_quote_ccy"`
	Counterparty                 NameRef            `json:"counterparty_id"`
	Pair                         NameRef            `json:"pair_id"`
	BaseCcy                      TickerRef          `json:"base_ccy_id"`
	TermCcy                      TickerRef          `json:"term_ccy_id"`
	DepositCcy                   TickerRef          `json:"deposit_ccy_id"`
	SettlementDetails            []SettlementDetail `json:"dcl_settlement_details"`
	ConditionalLossLimitEvent    *string            `json:"conditional_loss_limit_event,omitempty"`
}

// TermSheetFields is the Directus fields= selection for a TermSheet.
func TermSheetFields() string {
	return "id,reference_id,counterparty_id.name,pair_id.name,base_ccy_id.ticker,term_ccy_id.ticker,deposit_ccy_id.ticker," +
		"deal_date,expiry_date,deposit_amount,spot_t1,strike,r2,r1,iv_t1,collateral_setting_method," +
		"collateral_exchange_settlement,exchange_rate_determining_agent,term_sheet,term_sheet_status,instrument_type," +
		"conditional_loss_limit_event,stop_loss_level,px_in_base_ccy,px_in_quote_ccy," +
		"dcl_settlement_details.settlement_template_id,dcl_settlement_details.settlement_condition,dcl_settlement_details.settlement_value"
}

var termSheetFields = []string{
	"id", "reference_id", "counterparty", "pair", "deal_date", "expiry_date", "deposit_amount",
	"deposit_ccy", "strike", "instrument_type", "term_sheet_status",
}

// TermSheetSchema marks the numeric columns of the term sheet table.
var TermSheetSchema = table.Columns(termSheetFields, "id", "deposit_amount", "strike")

// Fields implements table.Record.
func (t TermSheet) Fields() []string { return termSheetFields }

// Get implements table.Record.
func (t TermSheet) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(t.ID))
	case "reference_id":
		return table.String(t.ReferenceID)
	case "counterparty":
		return table.String(t.Counterparty.Name)
	case "pair":
		return table.String(t.Pair.Name)
	case "deal_date":
		return table.String(t.DealDate)
	case "expiry_date":
		return table.String(t.ExpiryDate)
	case "deposit_amount":
		return table.Number(t.DepositAmount)
	case "deposit_ccy":
		return table.String(t.DepositCcy.Ticker)
	case "strike":
		return table.Number(t.Strike)
	case "instrument_type":
		return table.String(t.InstrumentType)
	case "term_sheet_status":
		return table.String(string(t.TermSheetStatus))
	}
	return table.Value{}
}

// TermSheetStatusUpdate is the PATCH body for a term sheet decision.
type TermSheetStatusUpdate struct {
	TermSheetStatus TermSheetStatus `json:"term_sheet_status"`
}

// DownloadLink points at a generated term sheet file.
type DownloadLink struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// SettlementOptionRequest asks the gateway for applicable settlement templates.
type SettlementOptionRequest struct {
	SpotT1                       float64 `json:"spot_t1" validate:"gt=0"`
	Strike                       float64 `json:"strike" validate:"gt=0"`
	Deposit                      float64 `json:"deposit"`
	Ccy2Premium                  float64 `json:"ccy2_premium"`
	CounterpartyName             string  `json:"counterparty_name" validate:"required"`
	PairName                     string  `json:"pair_name" validate:"required"`
	BaseCcy                      string  `json:"base_ccy" validate:"required"`
	TermCcy                      string  `json:"term_ccy" validate:"required"`
	DepositCcy                   string  `json:"deposit_ccy" validate:"required,oneof=ccy1 ccy2"`
	CallOrPut                    string  `json:"call_or_put" validate:"required,oneof=call put"`
	CollateralExchangeSettlement string  `json:"collateral_exchange_settlement" validate:"required,oneof=cash delivery"`
	DeskSide                     string  `json:"jabra_side" validate:"required,oneof=buy sell"`
}

type SettlementOption struct {
	ID                           int    `json:"id"`
	SettlementDescription        string `json:"settlement_description"`
	CollateralExchangeSettlement string `json:"collateral_exchange_settlement"`
	IsStaticValue                bool   `json:"is_static_value"`
	SettlementCondition          string `json:"settlement_condition"`
	SettlementValue              string `json:"settlement_value"`
	OptionKind                   string `json:"option_kind"`
	IfExercised                  bool   `json:"if_exercised"`
	DepositCcy                   string `json:"deposit_ccy"`
	// DisplayValue is SettlementValue grouped with commas at two decimals.
	DisplayValue string `json:"display_value"`
}

// Payment converts the option into a term sheet payment line.
func (o SettlementOption) Payment() DclPayment {
	return DclPayment{ID: o.ID, SettlementCondition: o.SettlementCondition, SettlementValue: o.SettlementValue}
}

type DclPayment struct {
	ID                  int    `json:"id"`
	SettlementCondition string `json:"settlement_condition"`
	SettlementValue     string `json:"settlement_value"`
}

// SubmitTermSheetRequest is the body of /rfq/submit_new_termsheet.
type SubmitTermSheetRequest struct {
	CounterpartyName             string       `json:"counterparty_name" validate:"required"`
	PairName                     string       `json:"pair_name" validate:"required"`
	BaseCcy                      string       `json:"base_ccy" validate:"required"`
	TermCcy                      string       `json:"term_ccy" validate:"required"`
	InstrumentType               string       `json:"instrument_type" validate:"required"`
	DealDate                     string       `json:"deal_date" validate:"required"`
	ExpiryDate                   string       `json:"expiry_date" validate:"required"`
	DepositAmount                float64      `json:"deposit_amount" validate:"gt=0"`
	DepositCcy                   string       `json:"deposit_ccy" validate:"required"`
	SpotT1                       float64      `json:"spot_t1" validate:"gt=0"`
	Strike                       float64      `json:"strike" validate:"gt=0"`
	R2                           float64      `json:"r2"`
	R1                           float64      `json:"r1"`
	IVT1                         float64      `json:"iv_t1"`
	TermSheet                    string       `json:"term_sheet"`
	DclPayment                   []DclPayment `json:"dcl_payment"`
	CollateralSettingMethod      string       `json:"collateral_setting_method"`
	CollateralExchangeSettlement string       `json:"collateral_exchange_settlement"`
	ExchangeRateDeterminingAgent string       `json:"exchange_rate_determining_agent"`
	StopLossLevel                float64      `json:"stop_loss_level"`
	PxInBaseCcy                  float64      `json:"px_in_base_ccy"`
	PxInQuoteCcy                 float64      `json:"px_in_quote_ccy"`
	ConditionalLossLimitEvent    string       `json:"conditional_loss_limit_event"`
	SettlementCcy                string       `json:"settlement_ccy"`
	GroupID                      string       `json:"group_id,omitempty"`
	// Inputs of the generated conditional-loss clause; not forwarded.
	OptionKind  string  `json:"option_kind,omitempty"`
	Ccy1Amount  float64 `json:"ccy1_amount,omitempty"`
	Ccy2Premium float64 `json:"ccy2_premium,omitempty"`
}

type SubmitTermSheetResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	RefID   string `json:"refid"`
}

// ConditionalLossClause renders the early-termination clause of a term sheet.
func ConditionalLossClause(legalName, optionKind string, stopLoss, ccy1Amount, ccy2Premium, strike float64, counterparty, currency string) string {
	exercise := "PE"
	if optionKind == "Call" {
		exercise = "CE"
	}
	return fmt.Sprintf(
		"If the value of the %.2f %s exceeds $%.2f for %.2f %s notional, %s will execute a market order and terminate the contract early. %s will owe the difference between the closeout price and $%.2f to %s.",
		strike, exercise, stopLoss, ccy1Amount, currency, legalName, counterparty, ccy2Premium, legalName,
	)
}

// TermSheetPath is the Directus item path of a term sheet.
func TermSheetPath(id int) string {
	return "/items/dcl/" + strconv.Itoa(id)
}
