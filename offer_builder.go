/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package exporter

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
)

const (
	maxPictureURLLength = 512
	maxGalleryImages    = 9
)

var dimensionFactors = map[string]decimal.Decimal{
	"m":  decimal.NewFromInt(100),
	"cm": decimal.NewFromInt(1),
	"mm": decimal.RequireFromString("0.1"),
	"in": decimal.RequireFromString("2.54"),
	"yd": decimal.RequireFromString("91.44"),
}

// DimensionFactor returns the multiplier converting a length unit to centimeters.
// Unknown units are treated as centimeters.
func DimensionFactor(unit string) decimal.Decimal {
	if factor, ok := dimensionFactors[unit]; ok {
		return factor
	}
	return decimal.NewFromInt(1)
}

// ToCentimeters converts a length to centimeters, rounded to four decimal places.
func ToCentimeters(value float64, unit string) decimal.Decimal {
	return decimal.NewFromFloat(value).Mul(DimensionFactor(unit)).Round(4)
}

// PriceFilter adjusts the regular price of an offer before it is exported.
type PriceFilter func(offerID int64, price decimal.Decimal) decimal.Decimal

// OfferBuilder turns catalog products into feed offers. It holds no per-product
// state; every call receives the product and the offer it works on.
type OfferBuilder struct {
	shop        config.ShopConfig
	feed        config.FeedConfig
	attributes  *AttributeMapper
	images      *strings.Replacer
	priceFilter PriceFilter
}

func NewOfferBuilder(shop config.ShopConfig, feed config.FeedConfig) *OfferBuilder {
	b := &OfferBuilder{
		shop:       shop,
		feed:       feed,
		attributes: NewAttributeMapper(feed.Offer.Params),
	}
	if marker := feed.Offer.Marker(); marker != "" {
		b.images = strings.NewReplacer(
			".jpg", marker+".jpg",
			".jpeg", marker+".jpeg",
			".png", marker+".png",
		)
	}
	return b
}

// SetPriceFilter installs a hook applied to regular prices.
func (b *OfferBuilder) SetPriceFilter(filter PriceFilter) {
	b.priceFilter = filter
}

// Build expands a product into its offers: one for a simple product, one per
// sellable variant for a variable product. Excluded ids produce no offers.
//
// Parameters:
// - product *model.Product: The catalog product.
// - currency model.CurrencyCode: The currency attached to every price.
// - index *CategoryIndex: The categories in scope for this page.
//
// Returns:
// - []model.Offer: The offers in emission order.
func (b *OfferBuilder) Build(product *model.Product, currency model.CurrencyCode, index *CategoryIndex) []model.Offer {
	if b.feed.Offer.Excluded(product.ID) {
		return nil
	}

	if !product.IsVariable() {
		return []model.Offer{b.buildOffer(product, product, currency, index)}
	}

	// Variants are emitted from the last to the first.
	variations := product.VisibleVariations()
	offers := make([]model.Offer, 0, len(variations))
	for i := len(variations) - 1; i >= 0; i-- {
		variation := &variations[i]
		if b.feed.Offer.Excluded(variation.ID) {
			continue
		}
		offers = append(offers, b.buildOffer(product, variation, currency, index))
	}
	return offers
}

func (b *OfferBuilder) buildOffer(product, offer *model.Product, currency model.CurrencyCode, index *CategoryIndex) model.Offer {
	settings := b.feed.Offer

	typePrefix := PlainText(b.attributes.Option(settings.TypePrefix, product))
	modelName := PlainText(b.attributes.Option(settings.Model, product))
	vendorModel := typePrefix != "" || modelName != ""

	result := model.Offer{
		ID:          offer.ID,
		Available:   b.available(product, offer),
		VendorModel: vendorModel,
		URL:         firstNonEmpty(offer.Permalink, product.Permalink),
		Currency:    currency,
		CategoryID:  index.Resolve(product.CategoryIDs),
		Delivery:    b.deliveryOption(product),
		Pictures:    b.pictures(product, offer),
		TypePrefix:  typePrefix,
		Vendor:      PlainText(b.attributes.Option(settings.Vendor, product)),
		Description: SanitizeDescription(pickDescription(b.feed.Misc.Description, product, offer)),
		SalesNotes:  b.salesNotes(product),
		Warranty:    PlainText(b.attributes.OfferOption(settings.Warranty, product, offer)),
		Origin:      PlainText(b.attributes.OfferOption(settings.Origin, product, offer)),
		Params:      b.attributes.Params(product, offer),
	}
	result.Price, result.OldPrice = b.price(product, offer)
	result.Downloadable = product.Downloadable

	if product.IsVariable() && settings.GroupID {
		result.GroupID = product.ID
	}

	delivery := b.feed.Delivery
	if delivery.Store.Enabled() {
		result.Store = delivery.Store.String()
	}
	if delivery.Pickup.Enabled() {
		result.Pickup = delivery.Pickup.String()
	}
	if delivery.Delivery.Enabled() {
		result.DeliveryFlag = delivery.Delivery.String()
	}

	title := strings.TrimSpace(firstNonEmpty(offer.Name, product.Name))
	if vendorModel {
		result.Model = firstNonEmpty(modelName, title)
	} else {
		result.Name = title
	}

	if settings.VendorCode.Enabled() {
		result.VendorCode = PlainText(b.attributes.Option(settings.VendorCode, product))
		if result.VendorCode == "" {
			result.VendorCode = strings.TrimSpace(firstNonEmpty(offer.SKU, product.SKU))
		}
	}

	if settings.Size {
		result.Weight = b.weight(product, offer)
		result.Dimensions = b.dimensions(product, offer)
	}

	if settings.StockQuantity {
		result.StockQuantity = stockQuantity(product, offer)
	}

	return result
}

func (b *OfferBuilder) available(product, offer *model.Product) bool {
	status := offer.StockStatus
	if status == "" {
		status = product.StockStatus
	}
	switch status {
	case model.StockInStock, "":
		return true
	case model.StockOnBackorder:
		return b.feed.Offer.Backorders
	default:
		return false
	}
}

func (b *OfferBuilder) price(product, offer *model.Product) (decimal.Decimal, *decimal.Decimal) {
	regular, sale := offer.RegularPrice, offer.SalePrice
	if offer != product && regular.IsZero() {
		regular, sale = product.RegularPrice, product.SalePrice
	}

	if sale.IsPositive() && sale.LessThan(regular) {
		oldPrice := regular
		return sale, &oldPrice
	}

	if b.priceFilter != nil {
		regular = b.priceFilter(offer.ID, regular)
	}
	return regular, nil
}

// deliveryOption returns the per-product delivery terms. Products without their
// own delivery meta rely on the global block in the feed header.
func (b *OfferBuilder) deliveryOption(product *model.Product) *model.DeliveryOption {
	delivery := b.feed.Delivery
	if !delivery.DeliveryOptions {
		return nil
	}

	cost := product.MetaValue(model.MetaDeliveryCost)
	days := product.MetaValue(model.MetaDeliveryDays)
	orderBefore := product.MetaValue(model.MetaDeliveryOrderBefore)
	if cost == "" && days == "" && orderBefore == "" {
		return nil
	}

	option := &model.DeliveryOption{
		Cost: firstNonEmpty(cost, delivery.Cost),
		Days: firstNonEmpty(days, delivery.Days),
	}
	if delivery.OrderBefore != "" {
		option.OrderBefore = firstNonEmpty(orderBefore, delivery.OrderBefore)
	}
	return option
}

func (b *OfferBuilder) rewriteImage(url string) string {
	url = strings.TrimSpace(url)
	if url == "" || b.images == nil {
		return url
	}
	return b.images.Replace(url)
}

// pictures returns the main picture followed by gallery pictures. The gallery is
// walked for at most image_count-1 slots; a slot whose picture is too long or a
// duplicate is skipped without being refilled.
func (b *OfferBuilder) pictures(product, offer *model.Product) []string {
	var pictures []string

	main := b.rewriteImage(firstNonEmpty(offer.Image, product.Image))
	if main != "" && utf8.RuneCountInString(main) <= maxPictureURLLength {
		pictures = append(pictures, main)
	}

	gallery := product.Gallery
	if len(gallery) > maxGalleryImages {
		gallery = gallery[:maxGalleryImages]
	}

	seen := map[string]bool{main: true}
	for exported := 1; exported < b.feed.Offer.ImageCount; exported++ {
		if exported-1 >= len(gallery) {
			break
		}
		image := b.rewriteImage(gallery[exported-1])
		if image == "" || utf8.RuneCountInString(image) > maxPictureURLLength || seen[image] {
			continue
		}
		seen[image] = true
		pictures = append(pictures, image)
	}
	return pictures
}

func (b *OfferBuilder) salesNotes(product *model.Product) string {
	if notes := product.MetaValue(model.MetaSalesNotes); notes != "" {
		return notes
	}
	return PlainText(b.feed.Offer.SalesNotes)
}

func (b *OfferBuilder) weight(product, offer *model.Product) string {
	if b.shop.WeightUnit != "kg" {
		return ""
	}
	weight := offer.Weight
	if weight <= 0 {
		weight = product.Weight
	}
	if weight <= 0 {
		return ""
	}
	return decimal.NewFromFloat(weight).String()
}

func (b *OfferBuilder) dimensions(product, offer *model.Product) string {
	dims := offer.Dimensions
	if dims.IsZero() {
		dims = product.Dimensions
	}
	if dims.IsZero() {
		return ""
	}
	unit := b.shop.DimensionUnit
	return strings.Join([]string{
		ToCentimeters(dims.Length, unit).String(),
		ToCentimeters(dims.Width, unit).String(),
		ToCentimeters(dims.Height, unit).String(),
	}, "/")
}

// stockQuantity returns the quantity of a stock-managed offer. Variants that do not
// manage their own stock share the parent's.
func stockQuantity(product, offer *model.Product) *int {
	source := offer
	if !offer.ManageStock && offer != product && product.ManageStock {
		source = product
	}
	if !source.ManageStock || source.StockQuantity == nil || *source.StockQuantity <= 0 {
		return nil
	}
	quantity := *source.StockQuantity
	return &quantity
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
