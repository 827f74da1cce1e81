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

package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DEFAULT_IMAGE_COUNT  = 5
	MAX_IMAGE_COUNT      = 10
	DEFAULT_IMAGE_MARKER = "_yandex_"
	DEFAULT_CHARSET      = "UTF-8"
)

// Option is a setting that either names a product attribute or is switched off.
// An unset option is treated as disabled.
type Option string

const Disabled Option = "disabled"

func (o Option) Enabled() bool {
	return o != "" && o != Disabled
}

func (o Option) String() string {
	return string(o)
}

type DescriptionMode string

const (
	DescriptionDefault DescriptionMode = "default"
	DescriptionLong    DescriptionMode = "long"
	DescriptionShort   DescriptionMode = "short"
)

// Regeneration schedules for finished feeds.
const (
	CronDisabled   = "disabled"
	CronHourly     = "hourly"
	CronTwiceDaily = "twicedaily"
	CronDaily      = "daily"
)

// ShopConfig describes the store in the feed header and the units its catalog uses.
type ShopConfig struct {
	Name          string `json:"name" envconfig:"EXPORTER_SHOP_NAME"`
	Company       string `json:"company" envconfig:"EXPORTER_SHOP_COMPANY"`
	Url           string `json:"url" envconfig:"EXPORTER_SHOP_URL"`
	Currency      string `json:"currency" envconfig:"EXPORTER_SHOP_CURRENCY"`
	Charset       string `json:"charset" envconfig:"EXPORTER_SHOP_CHARSET"`
	WeightUnit    string `json:"weight_unit" envconfig:"EXPORTER_SHOP_WEIGHT_UNIT"`
	DimensionUnit string `json:"dimension_unit" envconfig:"EXPORTER_SHOP_DIMENSION_UNIT"`
}

type OfferSettings struct {
	Backorders    bool     `json:"backorders"`
	Size          bool     `json:"size"`
	StockQuantity bool     `json:"stock_quantity"`
	ImageCount    int      `json:"image_count"`
	ImageMarker   *string  `json:"image_marker"`
	Params        []string `json:"params"`
	TypePrefix    Option   `json:"type_prefix"`
	Model         Option   `json:"model"`
	Vendor        Option   `json:"vendor"`
	VendorCode    Option   `json:"vendor_code"`
	Warranty      Option   `json:"warranty"`
	Origin        Option   `json:"origin"`
	GroupID       bool     `json:"group_id"`
	SalesNotes    string   `json:"sales_notes"`
	IncludeCat    []int64  `json:"include_cat"`
	ExcludeIDs    []int64  `json:"exclude_ids"`
}

type DeliverySettings struct {
	DeliveryOptions bool   `json:"delivery_options"`
	Cost            string `json:"cost"`
	Days            string `json:"days"`
	OrderBefore     string `json:"order_before"`
	Store           Option `json:"store"`
	Pickup          Option `json:"pickup"`
	Delivery        Option `json:"delivery"`
}

type MiscSettings struct {
	Description DescriptionMode `json:"description"`
	FileDate    bool            `json:"file_date"`
	Cron        string          `json:"cron"`
}

// FeedConfig is the read-only snapshot of export settings consumed by the engine.
type FeedConfig struct {
	Offer    OfferSettings    `json:"offer"`
	Delivery DeliverySettings `json:"delivery"`
	Misc     MiscSettings     `json:"misc"`
}

// Marker returns the crop marker inserted into picture URLs. An explicit empty
// marker turns the rewrite off.
func (o OfferSettings) Marker() string {
	if o.ImageMarker == nil {
		return DEFAULT_IMAGE_MARKER
	}
	return *o.ImageMarker
}

// Excluded reports whether a product id is on the exclusion list.
func (o OfferSettings) Excluded(id int64) bool {
	for _, excluded := range o.ExcludeIDs {
		if excluded == id {
			return true
		}
	}
	return false
}

func normalizeOption(o Option) Option {
	o = Option(strings.TrimSpace(string(o)))
	if o == "" {
		return Disabled
	}
	return o
}

func (s *ShopConfig) addDefaults() {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Charset == "" {
		s.Charset = DEFAULT_CHARSET
	}
	if s.WeightUnit == "" {
		s.WeightUnit = "kg"
	}
	if s.DimensionUnit == "" {
		s.DimensionUnit = "cm"
	}
}

func (s ShopConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&s.WeightUnit, validation.In("kg", "g", "lbs", "oz")),
		validation.Field(&s.DimensionUnit, validation.In("m", "cm", "mm", "in", "yd")),
	)
}

func (f *FeedConfig) addDefaults() {
	if f.Offer.ImageCount == 0 {
		f.Offer.ImageCount = DEFAULT_IMAGE_COUNT
	}
	f.Offer.TypePrefix = normalizeOption(f.Offer.TypePrefix)
	f.Offer.Model = normalizeOption(f.Offer.Model)
	f.Offer.Vendor = normalizeOption(f.Offer.Vendor)
	f.Offer.VendorCode = normalizeOption(f.Offer.VendorCode)
	f.Offer.Warranty = normalizeOption(f.Offer.Warranty)
	f.Offer.Origin = normalizeOption(f.Offer.Origin)

	f.Delivery.Store = normalizeOption(f.Delivery.Store)
	f.Delivery.Pickup = normalizeOption(f.Delivery.Pickup)
	f.Delivery.Delivery = normalizeOption(f.Delivery.Delivery)

	if f.Misc.Description == "" {
		f.Misc.Description = DescriptionDefault
	}
	if f.Misc.Cron == "" {
		f.Misc.Cron = CronDisabled
	}
}

func (f FeedConfig) Validate() error {
	offer := f.Offer
	if err := validation.ValidateStruct(&offer,
		validation.Field(&offer.ImageCount, validation.Min(1), validation.Max(MAX_IMAGE_COUNT)),
	); err != nil {
		return err
	}

	misc := f.Misc
	return validation.ValidateStruct(&misc,
		validation.Field(&misc.Description, validation.In(DescriptionDefault, DescriptionLong, DescriptionShort)),
		validation.Field(&misc.Cron, validation.In(CronDisabled, CronHourly, CronTwiceDaily, CronDaily)),
	)
}

// DefaultFeedConfig returns the settings used when nothing is configured.
func DefaultFeedConfig() FeedConfig {
	var f FeedConfig
	f.addDefaults()
	return f
}
