package models

import (
	"fmt"
	"strings"

	"DeskPortal/pkg/util"
)

// Currency is a supported currency as configured in Directus.
type Currency struct {
	ID           int     `json:"id"`
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	IsActive     bool    `json:"is_active"`
	DisplayScale int     `json:"display_scale"`
	Sign         *string `json:"sign,omitempty"`
}

// CurrencyFields lists the Currency fields nested under prefix.
func CurrencyFields(p string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.ticker, %[1]s.name, %[1]s.is_active, %[1]s.display_scale, %[1]s.sign", p)
}

// CurrencyDefaultFields lists the Currency fields at the top level.
func CurrencyDefaultFields() string {
	return "id, ticker, name, is_active, display_scale, sign"
}

type CurrencyPair struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	IsActive bool     `json:"is_active"`
	Base     Currency `json:"base"`
	Quote    Currency `json:"quote"`
}

// CurrencyPairFields lists the pair fields under prefix, base and quote included.
func CurrencyPairFields(p string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.name, %[1]s.is_active, %[2]s, %[3]s",
		p, CurrencyFields(p+".base"), CurrencyFields(p+".quote"))
}

// Leg returns the i-th ticker of the pair name ("BTC/USD" -> "BTC", "USD").
func (p CurrencyPair) Leg(i int) string {
	return util.PairLeg(p.Name, i)
}

// CoinbaseProduct returns the pair in Coinbase product form, e.g. "BTC-USD".
func CoinbaseProduct(pair string) string {
	return strings.ReplaceAll(pair, "/", "-")
}

type CounterParty struct {
	ID         int     `json:"id"`
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	ShortName  *string `json:"short_name,omitempty"`
	IsExchange bool    `json:"is_exchange"`
}

// CounterPartyFields lists the counterparty fields under prefix.
func CounterPartyFields(p string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.ticker, %[1]s.name, %[1]s.short_name, %[1]s.is_exchange", p)
}

// GroupKey is the "{name}~{id}" key used to group rows per counterparty.
func (c CounterParty) GroupKey() string {
	return fmt.Sprintf("%s~%d", c.Name, c.ID)
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// UserFields lists the user fields under prefix.
func UserFields(p string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.first_name, %[1]s.last_name, %[1]s.email", p)
}

type InterestRate struct {
	Rate       float64  `json:"rate"`
	CurrencyID Currency `json:"currency_id"`
}

// InterestRateFields lists the interest rate fields.
func InterestRateFields() string {
	return "rate, " + CurrencyFields("currency_id")
}

// InterestRateRequest is the write form of an interest rate.
type InterestRateRequest struct {
	Rate       float64 `json:"rate" validate:"gte=0"`
	CurrencyID int     `json:"currency_id" validate:"required"`
}

// Request converts the rate into its write form.
func (r InterestRate) Request() InterestRateRequest {
	return InterestRateRequest{Rate: r.Rate, CurrencyID: r.CurrencyID.ID}
}

// SpotPrice is a Coinbase spot quote for a pair.
type SpotPrice struct {
	Pair     string  `json:"pair"`
	Amount   float64 `json:"amount"`
	Base     string  `json:"base"`
	Currency string  `json:"currency"`
}
