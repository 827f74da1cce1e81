package model

import "github.com/shopspring/decimal"

// CurrencyCode is a currency identifier accepted by the marketplace.
type CurrencyCode string

const (
	CurrencyRUR CurrencyCode = "RUR"
	CurrencyBYN CurrencyCode = "BYN"
	CurrencyUAH CurrencyCode = "UAH"
	CurrencyUSD CurrencyCode = "USD"
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyKZT CurrencyCode = "KZT"
)

// IsForeign reports whether the marketplace expects the currency to be quoted
// at its own exchange rate next to a domestic base currency.
func (c CurrencyCode) IsForeign() bool {
	return c == CurrencyUSD || c == CurrencyEUR
}

type DeliveryOption struct {
	Cost        string `json:"cost"`
	Days        string `json:"days"`
	OrderBefore string `json:"order_before,omitempty"`
}

type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Offer is a single sellable unit of the feed: a simple product or one variant.
// Empty strings and nil pointers mean "field not emitted".
type Offer struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id,omitempty"`
	Available     bool             `json:"available"`
	VendorModel   bool             `json:"vendor_model"`
	URL           string           `json:"url"`
	Price         decimal.Decimal  `json:"price"`
	OldPrice      *decimal.Decimal `json:"old_price,omitempty"`
	Currency      CurrencyCode     `json:"currency"`
	CategoryID    int64            `json:"category_id,omitempty"`
	Delivery      *DeliveryOption  `json:"delivery,omitempty"`
	Pictures      []string         `json:"pictures"`
	Store         string           `json:"store,omitempty"`
	Pickup        string           `json:"pickup,omitempty"`
	DeliveryFlag  string           `json:"delivery_flag,omitempty"`
	Name          string           `json:"name,omitempty"`
	TypePrefix    string           `json:"type_prefix,omitempty"`
	Vendor        string           `json:"vendor,omitempty"`
	Model         string           `json:"model,omitempty"`
	VendorCode    string           `json:"vendor_code,omitempty"`
	Description   string           `json:"description,omitempty"`
	SalesNotes    string           `json:"sales_notes,omitempty"`
	Warranty      string           `json:"warranty,omitempty"`
	Origin        string           `json:"origin,omitempty"`
	Weight        string           `json:"weight,omitempty"`
	Dimensions    string           `json:"dimensions,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	Params        []Param          `json:"params,omitempty"`
	Downloadable  bool             `json:"downloadable"`
}
