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
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedCatalog struct {
	XMLName xml.Name `xml:"yml_catalog"`
	Date    string   `xml:"date,attr"`
	Shop    struct {
		Name       string `xml:"name"`
		Company    string `xml:"company"`
		URL        string `xml:"url"`
		Currencies []struct {
			ID   string `xml:"id,attr"`
			Rate string `xml:"rate,attr"`
		} `xml:"currencies>currency"`
		Categories []struct {
			ID       string `xml:"id,attr"`
			ParentID string `xml:"parentId,attr"`
			Name     string `xml:",chardata"`
		} `xml:"categories>category"`
		Offers []struct {
			ID          string   `xml:"id,attr"`
			Type        string   `xml:"type,attr"`
			Available   string   `xml:"available,attr"`
			Price       string   `xml:"price"`
			OldPrice    string   `xml:"oldprice"`
			CurrencyID  string   `xml:"currencyId"`
			Pictures    []string `xml:"picture"`
			Name        string   `xml:"name"`
			Vendor      string   `xml:"vendor"`
			Description string   `xml:"description"`
			Params      []struct {
				Name  string `xml:"name,attr"`
				Value string `xml:",chardata"`
			} `xml:"param"`
		} `xml:"offers>offer"`
	} `xml:"shop"`
}

func parseCatalog(t *testing.T, doc []byte) parsedCatalog {
	t.Helper()
	var catalog parsedCatalog
	decoder := xml.NewDecoder(bytes.NewReader(doc))
	require.NoError(t, decoder.Decode(&catalog))
	return catalog
}

func TestCatalogWriter_Document(t *testing.T) {
	shop := testShop()
	shop.Name = "Tom & Jerry"
	w := NewCatalogWriter(shop, config.DefaultFeedConfig())
	index := NewCategoryIndex([]model.Category{
		{ID: 1, Name: "Kitchen"},
		{ID: 2, ParentID: 1, Name: "Mugs &amp; <b>Cups</b>"},
	})
	oldPrice := price("600")

	var doc bytes.Buffer
	doc.Write(w.Header(model.CurrencyRUR, index, time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)))
	doc.Write(w.Offers([]model.Offer{
		{
			ID:          10,
			Available:   true,
			URL:         "https://shop.example/mug?a=1&b=2",
			Price:       price("450"),
			OldPrice:    &oldPrice,
			Currency:    model.CurrencyRUR,
			CategoryID:  2,
			Pictures:    []string{"https://shop.example/mug.jpg"},
			Name:        "Mug",
			Description: "<p>Big ]]> mug</p>",
			Params:      []model.Param{{Name: `Size "EU"`, Value: "M"}},
		},
		{
			ID:          11,
			VendorModel: true,
			Price:       price("99.5"),
			Currency:    model.CurrencyRUR,
			Model:       "X1",
			Vendor:      "Acme",
		},
	}))
	doc.Write(w.Footer())

	catalog := parseCatalog(t, doc.Bytes())

	assert.Equal(t, "2024-03-01 09:05", catalog.Date)
	assert.Equal(t, "Tom & Jerry", catalog.Shop.Name)
	require.Len(t, catalog.Shop.Currencies, 1)
	assert.Equal(t, "RUR", catalog.Shop.Currencies[0].ID)
	assert.Equal(t, "1", catalog.Shop.Currencies[0].Rate)

	require.Len(t, catalog.Shop.Categories, 2)
	assert.Equal(t, "", catalog.Shop.Categories[0].ParentID)
	assert.Equal(t, "1", catalog.Shop.Categories[1].ParentID)
	assert.Equal(t, "Mugs & Cups", catalog.Shop.Categories[1].Name)

	require.Len(t, catalog.Shop.Offers, 2)
	first := catalog.Shop.Offers[0]
	assert.Equal(t, "10", first.ID)
	assert.Equal(t, "", first.Type)
	assert.Equal(t, "true", first.Available)
	assert.Equal(t, "450", first.Price)
	assert.Equal(t, "600", first.OldPrice)
	assert.Equal(t, "<p>Big ]]> mug</p>", first.Description)
	require.Len(t, first.Params, 1)
	assert.Equal(t, `Size "EU"`, first.Params[0].Name)

	second := catalog.Shop.Offers[1]
	assert.Equal(t, "vendor.model", second.Type)
	assert.Equal(t, "false", second.Available)
	assert.Equal(t, "99.5", second.Price)
	assert.Empty(t, second.OldPrice)
}

func TestCatalogWriter_ForeignCurrency(t *testing.T) {
	w := NewCatalogWriter(testShop(), config.DefaultFeedConfig())
	header := string(w.Header(model.CurrencyUSD, NewCategoryIndex(nil), time.Now()))

	assert.Contains(t, header, `<currency id="RUR" rate="1"/>`)
	assert.Contains(t, header, `<currency id="USD" rate="СВ" />`)
}

func TestCatalogWriter_Layout(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Delivery.DeliveryOptions = true
	feed.Delivery.Cost = "300"
	feed.Delivery.Days = "1-2"
	w := NewCatalogWriter(testShop(), feed)

	header := string(w.Header(model.CurrencyRUR, NewCategoryIndex(nil), time.Now()))
	assert.True(t, strings.HasPrefix(header, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<!DOCTYPE yml_catalog SYSTEM "shops.dtd">`))
	assert.Contains(t, header, "\n  <shop>\n")
	assert.Contains(t, header, "    <delivery-options>\n      <option cost=\"300\" days=\"1-2\" />\n    </delivery-options>\n")
	assert.True(t, strings.HasSuffix(header, "    <offers>\n"))

	offer := w.Offer(&model.Offer{ID: 5, Available: true, Price: price("1"), Currency: model.CurrencyRUR, Downloadable: true})
	assert.True(t, strings.HasPrefix(offer, `      <offer id="5" available="true">`+"\n"))
	assert.Contains(t, offer, "        <price>1</price>\n")
	assert.Contains(t, offer, "        <downloadable>true</downloadable>\n")
	assert.True(t, strings.HasSuffix(offer, "      </offer>\n"))

	assert.Equal(t, "    </offers>\n  </shop>\n</yml_catalog>\n", string(w.Footer()))
}
