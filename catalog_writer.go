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
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/internal/yml"
	"github.com/market-exporter/exporter/model"
)

// foreignRateMarker asks the marketplace to use its own exchange rate.
const foreignRateMarker = "СВ"

const feedDateLayout = "2006-01-02 15:04"

// CatalogWriter renders the fragments of a feed document. The header opens the
// offers container, offer blocks are appended page by page and the footer closes
// every open element.
type CatalogWriter struct {
	shop     config.ShopConfig
	delivery config.DeliverySettings
}

func NewCatalogWriter(shop config.ShopConfig, feed config.FeedConfig) *CatalogWriter {
	return &CatalogWriter{shop: shop, delivery: feed.Delivery}
}

// Header renders everything up to and including the opening <offers> tag.
//
// Parameters:
// - currency model.CurrencyCode: The resolved feed currency.
// - categories *CategoryIndex: The categories declared in the feed.
// - generatedAt time.Time: The catalog date.
//
// Returns:
// - []byte: The header fragment.
func (w *CatalogWriter) Header(currency model.CurrencyCode, categories *CategoryIndex, generatedAt time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="` + w.shop.Charset + `"?>` + "\n")
	buf.WriteString(`<!DOCTYPE yml_catalog SYSTEM "shops.dtd">` + "\n")
	buf.WriteString(yml.Tag("yml_catalog", 0).Attr("date", generatedAt.Format(feedDateLayout)).Open())
	buf.WriteString(yml.Tag("shop", yml.IndentShop).Open())
	buf.WriteString(yml.Child("name", w.shop.Name, yml.IndentSection))
	buf.WriteString(yml.Child("company", w.shop.Company, yml.IndentSection))
	buf.WriteString(yml.Child("url", w.shop.Url, yml.IndentSection))

	buf.WriteString(yml.Tag("currencies", yml.IndentSection).Open())
	if currency.IsForeign() {
		buf.WriteString(`      <currency id="RUR" rate="1"/>` + "\n")
		buf.WriteString(yml.Tag("currency", yml.IndentItem).Attr("id", string(currency)).Attr("rate", foreignRateMarker).Empty())
	} else {
		buf.WriteString(yml.Tag("currency", yml.IndentItem).Attr("id", string(currency)).Attr("rate", "1").Empty())
	}
	buf.WriteString(yml.Close("currencies", yml.IndentSection))

	buf.WriteString(yml.Tag("categories", yml.IndentSection).Open())
	for _, category := range categories.Categories() {
		tag := yml.Tag("category", yml.IndentItem).Attr("id", formatID(category.ID))
		if category.ParentID != 0 {
			tag = tag.Attr("parentId", formatID(category.ParentID))
		}
		buf.WriteString(tag.Text(PlainText(category.Name)))
	}
	buf.WriteString(yml.Close("categories", yml.IndentSection))

	if w.delivery.DeliveryOptions {
		buf.WriteString(deliveryBlock(model.DeliveryOption{
			Cost:        w.delivery.Cost,
			Days:        w.delivery.Days,
			OrderBefore: w.delivery.OrderBefore,
		}, yml.IndentSection))
	}

	buf.WriteString(yml.Tag("offers", yml.IndentSection).Open())
	return buf.Bytes()
}

// Footer closes the offers container, the shop and the catalog.
func (w *CatalogWriter) Footer() []byte {
	return []byte(yml.Close("offers", yml.IndentSection) +
		yml.Close("shop", yml.IndentShop) +
		yml.Close("yml_catalog", 0))
}

// Offers renders a page of offer blocks.
func (w *CatalogWriter) Offers(offers []model.Offer) []byte {
	var buf bytes.Buffer
	for i := range offers {
		buf.WriteString(w.Offer(&offers[i]))
	}
	return buf.Bytes()
}

// Offer renders one <offer> block with its fields in marketplace order.
func (w *CatalogWriter) Offer(offer *model.Offer) string {
	var sb strings.Builder
	field := yml.IndentField

	tag := yml.Tag("offer", yml.IndentItem).Attr("id", formatID(offer.ID))
	if offer.VendorModel {
		tag = tag.Attr("type", "vendor.model")
	}
	sb.WriteString(tag.Attr("available", yml.Bool(offer.Available)).Open())

	if offer.GroupID != 0 {
		sb.WriteString(yml.Child("group_id", formatID(offer.GroupID), field))
	}
	sb.WriteString(yml.Child("url", offer.URL, field))
	sb.WriteString(yml.Child("price", offer.Price.String(), field))
	if offer.OldPrice != nil {
		sb.WriteString(yml.Child("oldprice", offer.OldPrice.String(), field))
	}
	sb.WriteString(yml.Child("currencyId", string(offer.Currency), field))
	if offer.CategoryID != 0 {
		sb.WriteString(yml.Child("categoryId", formatID(offer.CategoryID), field))
	}
	if offer.Delivery != nil {
		sb.WriteString(deliveryBlock(*offer.Delivery, field))
	}
	for _, picture := range offer.Pictures {
		sb.WriteString(yml.Child("picture", picture, field))
	}
	sb.WriteString(yml.Child("store", offer.Store, field))
	sb.WriteString(yml.Child("pickup", offer.Pickup, field))
	sb.WriteString(yml.Child("delivery", offer.DeliveryFlag, field))
	sb.WriteString(yml.Child("name", offer.Name, field))
	sb.WriteString(yml.Child("typePrefix", offer.TypePrefix, field))
	sb.WriteString(yml.Child("vendor", offer.Vendor, field))
	sb.WriteString(yml.Child("model", offer.Model, field))
	sb.WriteString(yml.Child("vendorCode", offer.VendorCode, field))
	sb.WriteString(yml.CData("description", offer.Description, field))
	sb.WriteString(yml.Child("sales_notes", offer.SalesNotes, field))
	sb.WriteString(yml.Child("manufacturer_warranty", offer.Warranty, field))
	sb.WriteString(yml.Child("country_of_origin", offer.Origin, field))
	sb.WriteString(yml.Child("weight", offer.Weight, field))
	sb.WriteString(yml.Child("dimensions", offer.Dimensions, field))
	if offer.StockQuantity != nil {
		sb.WriteString(yml.Child("stock_quantity", strconv.Itoa(*offer.StockQuantity), field))
	}
	for _, param := range offer.Params {
		sb.WriteString(yml.Tag("param", field).Attr("name", param.Name).Text(param.Value))
	}
	if offer.Downloadable {
		sb.WriteString(yml.Child("downloadable", yml.Bool(true), field))
	}

	sb.WriteString(yml.Close("offer", yml.IndentItem))
	return sb.String()
}

// deliveryBlock renders a <delivery-options> container with one option, at the
// given column for the container and two columns deeper for the option.
func deliveryBlock(option model.DeliveryOption, indent int) string {
	tag := yml.Tag("option", indent+2).Attr("cost", option.Cost).Attr("days", option.Days)
	if option.OrderBefore != "" {
		tag = tag.Attr("order-before", option.OrderBefore)
	}
	return yml.Tag("delivery-options", indent).Open() + tag.Empty() + yml.Close("delivery-options", indent)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
