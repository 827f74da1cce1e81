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
	"fmt"
	"testing"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShop() config.ShopConfig {
	return config.ShopConfig{
		Name:          "Test Shop",
		Company:       "Test LLC",
		Url:           "https://shop.example",
		Currency:      "RUB",
		Charset:       "UTF-8",
		WeightUnit:    "kg",
		DimensionUnit: "cm",
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOfferBuilder_SimpleProduct(t *testing.T) {
	feed := config.DefaultFeedConfig()
	b := NewOfferBuilder(testShop(), feed)
	index := NewCategoryIndex([]model.Category{{ID: 3, Name: "Mugs"}})

	product := &model.Product{
		ID:           10,
		Type:         model.ProductSimple,
		Name:         " Mug ",
		Permalink:    "https://shop.example/mug",
		RegularPrice: price("500"),
		SalePrice:    price("450"),
		StockStatus:  model.StockInStock,
		CategoryIDs:  []int64{3},
		Image:        "https://shop.example/mug.jpg",
		Description:  "<p>Big <b>mug</b></p>",
	}

	offers := b.Build(product, model.CurrencyRUR, index)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, int64(10), offer.ID)
	assert.True(t, offer.Available)
	assert.False(t, offer.VendorModel)
	assert.Equal(t, "Mug", offer.Name)
	assert.Empty(t, offer.Model)
	assert.True(t, price("450").Equal(offer.Price))
	require.NotNil(t, offer.OldPrice)
	assert.True(t, price("500").Equal(*offer.OldPrice))
	assert.Equal(t, model.CurrencyRUR, offer.Currency)
	assert.Equal(t, int64(3), offer.CategoryID)
	assert.Equal(t, []string{"https://shop.example/mug_yandex_.jpg"}, offer.Pictures)
	assert.Equal(t, "<p>Big mug</p>", offer.Description)
	assert.Zero(t, offer.GroupID)
}

func TestOfferBuilder_VariableProduct(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.GroupID = true
	b := NewOfferBuilder(testShop(), feed)

	product := &model.Product{
		ID:           20,
		Type:         model.ProductVariable,
		Name:         "Shirt",
		Permalink:    "https://shop.example/shirt",
		RegularPrice: price("1000"),
		StockStatus:  model.StockInStock,
		Attributes: []model.Attribute{
			{Name: "pa_size", Label: "Size", Values: []string{"K", "M"}, Variation: true},
		},
		Variations: []model.Product{
			{
				ID:           21,
				ParentID:     20,
				Name:         "Shirt - K",
				RegularPrice: price("1200"),
				StockStatus:  model.StockInStock,
				Attributes:   []model.Attribute{{Name: "pa_size", Values: []string{"K"}}},
			},
			{
				ID:          22,
				ParentID:    20,
				Name:        "Shirt - M",
				StockStatus: model.StockInStock,
				Attributes:  []model.Attribute{{Name: "pa_size", Values: []string{"M"}}},
			},
			{
				ID:          23,
				ParentID:    20,
				StockStatus: model.StockOutOfStock,
			},
		},
	}

	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 2)

	assert.Equal(t, int64(22), offers[0].ID, "variants are emitted last to first")
	assert.Equal(t, int64(21), offers[1].ID)
	for _, offer := range offers {
		assert.Equal(t, int64(20), offer.GroupID)
		assert.Equal(t, "https://shop.example/shirt", offer.URL)
	}
	assert.Equal(t, "Shirt - K", offers[1].Name)
	assert.True(t, price("1200").Equal(offers[1].Price))
	assert.True(t, price("1000").Equal(offers[0].Price), "variant without a price uses the parent's")
	assert.Equal(t, []model.Param{{Name: "Size", Value: "M"}}, offers[0].Params)
	assert.Equal(t, []model.Param{{Name: "Size", Value: "K"}}, offers[1].Params)
}

func TestOfferBuilder_ExcludedIDs(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.ExcludeIDs = []int64{10, 32}
	b := NewOfferBuilder(testShop(), feed)

	simple := &model.Product{ID: 10, Type: model.ProductSimple, RegularPrice: price("1")}
	assert.Empty(t, b.Build(simple, model.CurrencyRUR, NewCategoryIndex(nil)))

	variable := &model.Product{
		ID:   30,
		Type: model.ProductVariable,
		Variations: []model.Product{
			{ID: 31, RegularPrice: price("1")},
			{ID: 32, RegularPrice: price("1")},
		},
	}
	offers := b.Build(variable, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Equal(t, int64(31), offers[0].ID)
}

func TestOfferBuilder_Pictures(t *testing.T) {
	feed := config.DefaultFeedConfig()
	b := NewOfferBuilder(testShop(), feed)

	gallery := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		gallery = append(gallery, fmt.Sprintf("https://shop.example/g%d.png", i))
	}
	product := &model.Product{
		ID:           1,
		Type:         model.ProductSimple,
		RegularPrice: price("10"),
		Image:        "https://shop.example/main.jpeg",
		Gallery:      gallery,
	}

	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Equal(t, []string{
		"https://shop.example/main_yandex_.jpeg",
		"https://shop.example/g1_yandex_.png",
		"https://shop.example/g2_yandex_.png",
		"https://shop.example/g3_yandex_.png",
		"https://shop.example/g4_yandex_.png",
	}, offers[0].Pictures)
}

func TestOfferBuilder_PicturesDuplicateSlotIsNotRefilled(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.ImageCount = 3
	empty := ""
	feed.Offer.ImageMarker = &empty
	b := NewOfferBuilder(testShop(), feed)

	product := &model.Product{
		ID:           1,
		Type:         model.ProductSimple,
		RegularPrice: price("10"),
		Image:        "https://shop.example/a.jpg",
		Gallery:      []string{"https://shop.example/a.jpg", "https://shop.example/b.jpg", "https://shop.example/c.jpg"},
	}

	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Equal(t, []string{"https://shop.example/a.jpg", "https://shop.example/b.jpg"}, offers[0].Pictures)
}

func TestOfferBuilder_SizeAndStock(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.Size = true
	feed.Offer.StockQuantity = true
	shop := testShop()
	shop.DimensionUnit = "mm"
	b := NewOfferBuilder(shop, feed)

	quantity := 7
	product := &model.Product{
		ID:            1,
		Type:          model.ProductVariable,
		RegularPrice:  price("10"),
		Weight:        1.5,
		Dimensions:    model.Dimensions{Length: 100, Width: 50, Height: 25},
		ManageStock:   true,
		StockQuantity: &quantity,
		Variations: []model.Product{
			{ID: 2, Weight: 0.25, Dimensions: model.Dimensions{Length: 10, Width: 20, Height: 30}},
			{ID: 3},
		},
	}

	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 2)

	assert.Equal(t, "0.25", offers[0].Weight)
	assert.Equal(t, "1/2/3", offers[0].Dimensions)
	assert.Equal(t, "1.5", offers[1].Weight)
	assert.Equal(t, "10/5/2.5", offers[1].Dimensions)
	require.NotNil(t, offers[1].StockQuantity)
	assert.Equal(t, 7, *offers[1].StockQuantity, "variant shares the parent's stock")
}

func TestOfferBuilder_WeightNeedsKilograms(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.Size = true
	shop := testShop()
	shop.WeightUnit = "g"
	b := NewOfferBuilder(shop, feed)

	product := &model.Product{ID: 1, Type: model.ProductSimple, RegularPrice: price("10"), Weight: 300}
	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Empty(t, offers[0].Weight)
}

func TestOfferBuilder_VendorModel(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Offer.TypePrefix = "pa_type"
	feed.Offer.Vendor = "pa_brand"
	feed.Offer.VendorCode = "pa_code"
	b := NewOfferBuilder(testShop(), feed)

	product := &model.Product{
		ID:           1,
		Type:         model.ProductSimple,
		Name:         "Kettle X1",
		SKU:          "KX1",
		RegularPrice: price("10"),
		Attributes: []model.Attribute{
			{Name: "pa_type", Values: []string{"Kettle"}},
			{Name: "pa_brand", Values: []string{"Acme &amp; Sons"}},
		},
	}

	offers := b.Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.True(t, offer.VendorModel)
	assert.Equal(t, "Kettle", offer.TypePrefix)
	assert.Equal(t, "Acme & Sons", offer.Vendor)
	assert.Equal(t, "Kettle X1", offer.Model, "model falls back to the title")
	assert.Empty(t, offer.Name)
	assert.Equal(t, "KX1", offer.VendorCode, "vendor code falls back to the SKU")
}

func TestOfferBuilder_Availability(t *testing.T) {
	product := &model.Product{ID: 1, Type: model.ProductSimple, RegularPrice: price("10"), StockStatus: model.StockOnBackorder}

	feed := config.DefaultFeedConfig()
	offers := NewOfferBuilder(testShop(), feed).Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.False(t, offers[0].Available)

	feed.Offer.Backorders = true
	offers = NewOfferBuilder(testShop(), feed).Build(product, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.True(t, offers[0].Available)
}

func TestOfferBuilder_PriceFilter(t *testing.T) {
	b := NewOfferBuilder(testShop(), config.DefaultFeedConfig())
	b.SetPriceFilter(func(offerID int64, p decimal.Decimal) decimal.Decimal {
		return p.Mul(decimal.NewFromInt(2))
	})

	regular := &model.Product{ID: 1, Type: model.ProductSimple, RegularPrice: price("10")}
	offers := b.Build(regular, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.True(t, price("20").Equal(offers[0].Price))

	onSale := &model.Product{ID: 2, Type: model.ProductSimple, RegularPrice: price("10"), SalePrice: price("8")}
	offers = b.Build(onSale, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.True(t, price("8").Equal(offers[0].Price), "sale prices bypass the filter")
}

func TestOfferBuilder_DeliveryOptions(t *testing.T) {
	feed := config.DefaultFeedConfig()
	feed.Delivery.DeliveryOptions = true
	feed.Delivery.Cost = "300"
	feed.Delivery.Days = "1-2"
	feed.Delivery.OrderBefore = "15"
	feed.Delivery.Pickup = "true"
	b := NewOfferBuilder(testShop(), feed)

	withMeta := &model.Product{
		ID:           1,
		Type:         model.ProductSimple,
		RegularPrice: price("10"),
		Meta:         map[string]string{model.MetaDeliveryCost: "0", model.MetaSalesNotes: "Prepayment"},
	}
	offers := b.Build(withMeta, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Equal(t, &model.DeliveryOption{Cost: "0", Days: "1-2", OrderBefore: "15"}, offers[0].Delivery)
	assert.Equal(t, "Prepayment", offers[0].SalesNotes)
	assert.Equal(t, "true", offers[0].Pickup)
	assert.Empty(t, offers[0].Store)

	withoutMeta := &model.Product{ID: 2, Type: model.ProductSimple, RegularPrice: price("10")}
	offers = b.Build(withoutMeta, model.CurrencyRUR, NewCategoryIndex(nil))
	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].Delivery)
}

func TestToCentimeters(t *testing.T) {
	assert.Equal(t, "254", ToCentimeters(100, "in").String())
	assert.Equal(t, "150", ToCentimeters(1.5, "m").String())
	assert.Equal(t, "0.5", ToCentimeters(5, "mm").String())
	assert.Equal(t, "3", ToCentimeters(3, "parsec").String())
}

func TestToCentimeters_RoundTrip(t *testing.T) {
	tests := []struct {
		unit  string
		value float64
	}{
		{"m", 1.2345},
		{"mm", 37.5},
		{"in", 12.75},
		{"yd", 0.333},
		{"cm", 42.42},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			cm := ToCentimeters(tt.value, tt.unit)
			back, _ := cm.Div(DimensionFactor(tt.unit)).Float64()
			assert.InDelta(t, tt.value, back, 1e-3)
		})
	}
}
