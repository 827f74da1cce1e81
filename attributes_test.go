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
	"testing"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
	"github.com/stretchr/testify/assert"
)

func shirt() *model.Product {
	return &model.Product{
		ID:   1,
		Type: model.ProductVariable,
		Attributes: []model.Attribute{
			{Name: "pa_size", Label: "Size", Values: []string{"S", "M"}, Variation: true},
			{Name: "pa_brand", Values: []string{"Acme"}},
			{Name: "material", Label: "Material", Values: []string{"cotton, linen"}},
		},
	}
}

func TestAttributeMapper_Value(t *testing.T) {
	product := shirt()
	variant := &model.Product{ID: 2, Attributes: []model.Attribute{{Name: "pa_size", Values: []string{"M"}}}}
	m := NewAttributeMapper(nil)

	assert.Equal(t, "M", m.Value("pa_size", product, variant))
	assert.Equal(t, "Acme", m.Value("brand", product, variant), "falls back to the parent and tolerates a missing prefix")
	assert.Equal(t, "", m.Value("color", product, product))
}

func TestAttributeMapper_Option(t *testing.T) {
	product := shirt()
	m := NewAttributeMapper(nil)

	assert.Equal(t, "Acme", m.Option(config.Option("pa_brand"), product))
	assert.Equal(t, "", m.Option(config.Disabled, product))
	assert.Equal(t, "", m.Option("", product))
}

func TestAttributeMapper_ParamsAll(t *testing.T) {
	product := shirt()
	variant := &model.Product{ID: 2, Attributes: []model.Attribute{{Name: "pa_size", Values: []string{"M"}}}}

	params := NewAttributeMapper(nil).Params(product, variant)

	assert.Equal(t, []model.Param{
		{Name: "Size", Value: "M"},
		{Name: "brand", Value: "Acme"},
		{Name: "Material", Value: "cotton"},
		{Name: "Material", Value: "linen"},
	}, params)
}

func TestAttributeMapper_ParamsAllowList(t *testing.T) {
	product := shirt()

	params := NewAttributeMapper([]string{" brand ", "", "unknown"}).Params(product, product)

	assert.Equal(t, []model.Param{{Name: "brand", Value: "Acme"}}, params)
}
