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

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
)

// AttributeMapper decides which product attributes become <param> entries and
// resolves values between a variant and its parent product.
type AttributeMapper struct {
	params []string
}

// NewAttributeMapper creates a mapper. An empty allow-list exports every attribute.
func NewAttributeMapper(params []string) *AttributeMapper {
	cleaned := make([]string, 0, len(params))
	for _, p := range params {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &AttributeMapper{params: cleaned}
}

// Value reads an attribute from the offer, falling back to the parent product.
func (m *AttributeMapper) Value(name string, product, offer *model.Product) string {
	if value := offer.AttributeValue(name); value != "" {
		return value
	}
	if offer == product {
		return ""
	}
	return product.AttributeValue(name)
}

// Option resolves an attribute-backed setting against the parent product.
// Disabled options resolve to "".
func (m *AttributeMapper) Option(option config.Option, product *model.Product) string {
	if !option.Enabled() {
		return ""
	}
	return product.AttributeValue(option.String())
}

// OfferOption resolves an attribute-backed setting against the offer with a parent fallback.
func (m *AttributeMapper) OfferOption(option config.Option, product, offer *model.Product) string {
	if !option.Enabled() {
		return ""
	}
	return m.Value(option.String(), product, offer)
}

// Params builds the <param> entries of an offer.
func (m *AttributeMapper) Params(product, offer *model.Product) []model.Param {
	var params []model.Param

	if len(m.params) > 0 {
		for _, name := range m.params {
			attr, ok := product.Attribute(name)
			if !ok {
				continue
			}
			params = append(params, splitParam(attributeLabel(attr), m.Value(attr.Name, product, offer))...)
		}
		return params
	}

	for _, attr := range product.Attributes {
		var value string
		if attr.Variation {
			value = offer.AttributeValue(attr.Name)
		} else {
			value = product.AttributeValue(attr.Name)
		}
		params = append(params, splitParam(attributeLabel(attr), value)...)
	}
	return params
}

// splitParam turns a comma separated value into one param per value, skipping blanks.
func splitParam(label, value string) []model.Param {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	params := make([]model.Param, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params = append(params, model.Param{Name: label, Value: part})
	}
	return params
}

func attributeLabel(attr model.Attribute) string {
	if attr.Label != "" {
		return attr.Label
	}
	return strings.TrimPrefix(attr.Name, "pa_")
}
