package models

import (
	"strings"
	"time"

	"DeskPortal/pkg/table"
	"DeskPortal/pkg/util"
)

// AllTransfers keeps every transaction type in the transfers view.
const AllTransfers = "ALL"

// WalletTransaction is a deposit or withdrawal of the wallet_transaction
// collection.
type WalletTransaction struct {
	ID                       int          `json:"id"`
	UserCreated              *User        `json:"user_created,omitempty"`
	DateCreated              string       `json:"date_created"`
	Currency                 Currency     `json:"currency_id"`
	Amount                   float64      `json:"amount"`
	TxnHash                  string       `json:"txn_hash"`
	TransactionType          string       `json:"transaction_type"`
	FeeAmount                float64      `json:"fee_amount"`
	VenueTransactionDatetime string       `json:"venue_transaction_datetime"`
	Description              string       `json:"description"`
	IsSubmitted              bool         `json:"is_submitted"`
	Reference                string       `json:"reference"`
	CounterParty             CounterParty `json:"counterparty_id"`
}

// WalletTransactionFields is the Directus fields= selection for a
// WalletTransaction.
func WalletTransactionFields() string {
	return strings.Join([]string{
		"id, date_created, amount, txn_hash, transaction_type, fee_amount, venue_transaction_datetime, description, reference, is_submitted",
		CurrencyFields("currency_id"),
		CounterPartyFields("counterparty_id"),
		UserFields("user_created"),
	}, ", ")
}

// ExtractedTransfer is the display projection of a WalletTransaction.
type ExtractedTransfer struct {
	ID          int    `json:"id"`
	Action      string `json:"action"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Time        string `json:"time"`
	FeeAmount   string `json:"fee_amount"`
	Description string `json:"description"`
}

var extractedTransferFields = []string{"id", "action", "amount", "currency", "time", "fee_amount", "description"}

// ExtractedTransferSchema marks the numeric columns of the transfers view.
var ExtractedTransferSchema = table.Columns(extractedTransferFields, "id", "amount", "fee_amount")

// Fields implements table.Record.
func (e ExtractedTransfer) Fields() []string { return extractedTransferFields }

// Get implements table.Record.
func (e ExtractedTransfer) Get(field string) table.Value {
	switch field {
	case "id":
		return table.Number(float64(e.ID))
	case "action":
		return table.String(e.Action)
	case "amount":
		return table.String(e.Amount)
	case "currency":
		return table.String(e.Currency)
	case "time":
		return table.String(e.Time)
	case "fee_amount":
		return table.String(e.FeeAmount)
	case "description":
		return table.String(e.Description)
	}
	return table.Value{}
}

// Extract projects w for display. Amounts use the currency display scale.
func (w WalletTransaction) Extract(loc *time.Location) ExtractedTransfer {
	scale := w.Currency.DisplayScale
	return ExtractedTransfer{
		ID:          w.ID,
		Action:      w.TransactionType,
		Amount:      util.FormatFixed(w.Amount, scale),
		Currency:    w.Currency.Ticker,
		Time:        util.ToLocal(w.VenueTransactionDatetime, loc),
		FeeAmount:   util.FormatFixed(w.FeeAmount, scale),
		Description: w.Description,
	}
}

// ExtractTransfers projects the transactions whose upper-cased type equals
// action. AllTransfers keeps every one.
func ExtractTransfers(txns []WalletTransaction, action string, loc *time.Location) []ExtractedTransfer {
	action = strings.ToUpper(action)
	out := make([]ExtractedTransfer, 0, len(txns))
	for _, t := range txns {
		if action != AllTransfers && strings.ToUpper(t.TransactionType) != action {
			continue
		}
		out = append(out, t.Extract(loc))
	}
	return out
}

// Loan status of a loan still running.
const LoanOpen = "open"

// Loan is a row of the Directus loan collection.
type Loan struct {
	ID                    int          `json:"id"`
	DateCreated           string       `json:"date_created"`
	LoanToValue           float64      `json:"loan_to_value"`
	InterestRate          float64      `json:"interest_rate"`
	TradeDate             string       `json:"trade_date"`
	ReferenceRate         float64      `json:"reference_rate"`
	BaseCcyAmount         float64      `json:"base_ccy_amount"`
	InitialExchangeAmount float64      `json:"initial_exchange_amount"`
	TransactionType       string       `json:"transaction_type"`
	Status                string       `json:"status"`
	UserCreated           *User        `json:"user_created,omitempty"`
	CounterParty          CounterParty `json:"counterparty_id"`
	Pair                  CurrencyPair `json:"pair_id"`
	BaseCcy               Currency     `json:"base_ccy_id"`
	TermCcy               Currency     `json:"term_ccy_id"`
}

// LoanFields is the Directus fields= selection for a Loan.
func LoanFields() string {
	return strings.Join([]string{
		"id, date_created, loan_to_value, interest_rate, trade_date, reference_rate, base_ccy_amount, initial_exchange_amount, transaction_type, status",
		UserFields("user_created"),
		CounterPartyFields("counterparty_id"),
		CurrencyPairFields("pair_id"),
		CurrencyFields("base_ccy_id"),
		CurrencyFields("term_ccy_id"),
	}, ", ")
}

type ExtractedLoan struct {
	DateCreated           string  `json:"date_created"`
	LoanToValue           float64 `json:"loan_to_value"`
	InterestRate          float64 `json:"interest_rate"`
	TradeDate             string  `json:"trade_date"`
	ReferenceRate         float64 `json:"reference_rate"`
	BaseCcyAmount         float64 `json:"base_ccy_amount"`
	InitialExchangeAmount float64 `json:"initial_exchange_amount"`
	TransactionType       string  `json:"transaction_type"`
	Status                string  `json:"status"`
	CurrencyPair          string  `json:"currency_pair"`
	BaseCcy               string  `json:"base_ccy"`
	TermCcy               string  `json:"term_ccy"`
}

var extractedLoanFields = []string{
	"date_created", "loan_to_value", "interest_rate", "trade_date", "reference_rate",
	"base_ccy_amount", "initial_exchange_amount", "transaction_type", "status",
	"currency_pair", "base_ccy", "term_ccy",
}

// ExtractedLoanSchema marks the numeric columns of the loans view.
var ExtractedLoanSchema = table.Columns(extractedLoanFields,
	"loan_to_value", "interest_rate", "reference_rate", "base_ccy_amount", "initial_exchange_amount")

// Fields implements table.Record.
func (e ExtractedLoan) Fields() []string { return extractedLoanFields }

// Get implements table.Record.
func (e ExtractedLoan) Get(field string) table.Value {
	switch field {
	case "date_created":
		return table.String(e.DateCreated)
	case "loan_to_value":
		return table.Number(e.LoanToValue)
	case "interest_rate":
		return table.Number(e.InterestRate)
	case "trade_date":
		return table.String(e.TradeDate)
	case "reference_rate":
		return table.Number(e.ReferenceRate)
	case "base_ccy_amount":
		return table.Number(e.BaseCcyAmount)
	case "initial_exchange_amount":
		return table.Number(e.InitialExchangeAmount)
	case "transaction_type":
		return table.String(e.TransactionType)
	case "status":
		return table.String(e.Status)
	case "currency_pair":
		return table.String(e.CurrencyPair)
	case "base_ccy":
		return table.String(e.BaseCcy)
	case "term_ccy":
		return table.String(e.TermCcy)
	}
	return table.Value{}
}

func (l Loan) Extract(loc *time.Location) ExtractedLoan {
	return ExtractedLoan{
		DateCreated:           util.ToLocal(l.DateCreated, loc),
		LoanToValue:           l.LoanToValue,
		InterestRate:          l.InterestRate,
		TradeDate:             l.TradeDate,
		ReferenceRate:         l.ReferenceRate,
		BaseCcyAmount:         l.BaseCcyAmount,
		InitialExchangeAmount: l.InitialExchangeAmount,
		TransactionType:       l.TransactionType,
		Status:                l.Status,
		CurrencyPair:          l.Pair.Name,
		BaseCcy:               l.BaseCcy.Ticker,
		TermCcy:               l.TermCcy.Ticker,
	}
}

// ExtractLoans projects loans. With activeOnly only open loans are kept.
func ExtractLoans(loans []Loan, activeOnly bool, loc *time.Location) []ExtractedLoan {
	out := make([]ExtractedLoan, 0, len(loans))
	for _, l := range loans {
		if activeOnly && l.Status != LoanOpen {
			continue
		}
		out = append(out, l.Extract(loc))
	}
	return out
}

// LoanCSVHeader is the header row of the loans export.
var LoanCSVHeader = []string{
	"Date Created", "Currency Pair", "Interest Rate", "Loan To Value", "Reference Rate",
	"Base CCY Amount", "Initial Exchange Amount", "Transaction Type", "Status",
}

// CSVRow renders e in LoanCSVHeader order.
func (e ExtractedLoan) CSVRow() []string {
	return []string{
		e.DateCreated,
		e.CurrencyPair,
		formatPlain(e.InterestRate),
		formatPlain(e.LoanToValue),
		formatPlain(e.ReferenceRate),
		formatPlain(e.BaseCcyAmount),
		formatPlain(e.InitialExchangeAmount),
		e.TransactionType,
		e.Status,
	}
}

// PortfolioCurrency is one currency line of an account overview.
type PortfolioCurrency struct {
	Currency          string  `json:"currency"`
	Balance           float64 `json:"balance"`
	ExercisedBalances float64 `json:"exercised_balances"`
	LivePnl           float64 `json:"live_pnl"`
	AvailableBalance  float64 `json:"available_balance"`
	Equity            float64 `json:"equity"`
	EquityUSD         float64 `json:"equity_usd"`
	InterestPayments  float64 `json:"interest_payments"`
}

// PortfolioOverview is a counterparty's account summary in one valuation
// currency.
type PortfolioOverview struct {
	TotalEquity           float64             `json:"total_equity"`
	TotalRealizedPnl      float64             `json:"total_realized_pnl"`
	TotalLivePnl          float64             `json:"total_live_pnl"`
	TotalAvailableBalance float64             `json:"total_available_balance"`
	Currencies            []PortfolioCurrency `json:"currencies"`
}
