package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductSimple   ProductType = "simple"
	ProductVariable ProductType = "variable"
)

type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

// Per-product meta keys recognised by the offer builder.
const (
	MetaDeliveryCost        = "me_do_cost"
	MetaDeliveryDays        = "me_do_days"
	MetaDeliveryOrderBefore = "me_do_order_before"
	MetaSalesNotes          = "me_sales_notes"
)

// Attribute is a product property. Name is the taxonomy slug (for example "pa_color"),
// Label is what the feed shows. Variation marks attributes used to build variants.
type Attribute struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Values    []string `json:"values"`
	Variation bool     `json:"variation"`
}

// Value returns the attribute values joined the way the storefront shows them.
func (a Attribute) Value() string {
	return strings.Join(a.Values, ", ")
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d Dimensions) IsZero() bool {
	return d.Length == 0 && d.Width == 0 && d.Height == 0
}

type Category struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id"`
	Name     string `json:"name"`
}

// Product is a catalog entry. Variants of a variable product are Products themselves,
// with ParentID set and only the fields they override filled in.
type Product struct {
	ID               int64             `json:"id"`
	ParentID         int64             `json:"parent_id,omitempty"`
	Type             ProductType       `json:"type"`
	Name             string            `json:"name"`
	Permalink        string            `json:"permalink"`
	SKU              string            `json:"sku"`
	RegularPrice     decimal.Decimal   `json:"regular_price"`
	SalePrice        decimal.Decimal   `json:"sale_price"`
	StockStatus      StockStatus       `json:"stock_status"`
	ManageStock      bool              `json:"manage_stock"`
	StockQuantity    *int              `json:"stock_quantity,omitempty"`
	Weight           float64           `json:"weight"`
	Dimensions       Dimensions        `json:"dimensions"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	CategoryIDs      []int64           `json:"category_ids"`
	Image            string            `json:"image"`
	Gallery          []string          `json:"gallery"`
	Attributes       []Attribute       `json:"attributes"`
	Meta             map[string]string `json:"meta"`
	Downloadable     bool              `json:"downloadable"`
	Variations       []Product         `json:"variations,omitempty"`
}

func (p *Product) IsVariable() bool {
	return p.Type == ProductVariable
}

// Attribute looks an attribute up by slug, tolerating a missing "pa_" prefix.
func (p *Product) Attribute(name string) (Attribute, bool) {
	for _, attr := range p.Attributes {
		if attr.Name == name || attr.Name == "pa_"+name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// AttributeValue returns the joined value of an attribute, or "" when it is absent.
func (p *Product) AttributeValue(name string) string {
	attr, ok := p.Attribute(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(attr.Value())
}

func (p *Product) MetaValue(key string) string {
	if p.Meta == nil {
		return ""
	}
	return strings.TrimSpace(p.Meta[key])
}

// HasSale reports whether a sale price is set and strictly below the regular price.
func (p *Product) HasSale() bool {
	return p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.RegularPrice)
}
