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
	"strings"

	"github.com/market-exporter/exporter/model"
)

// currencyTable maps shop currency codes to the codes the marketplace accepts.
var currencyTable = map[string]model.CurrencyCode{
	"RUB": model.CurrencyRUR,
	"RUR": model.CurrencyRUR,
	"BYR": model.CurrencyBYN,
	"BYN": model.CurrencyBYN,
	"UAH": model.CurrencyUAH,
	"USD": model.CurrencyUSD,
	"EUR": model.CurrencyEUR,
	"KZT": model.CurrencyKZT,
}

// ResolveCurrency maps the shop currency to a marketplace currency code.
//
// Parameters:
// - shopCurrency string: The ISO code configured for the shop.
//
// Returns:
// - model.CurrencyCode: The code to declare in the feed.
// - error: ErrUnsupportedCurrency when the currency cannot be exported.
func ResolveCurrency(shopCurrency string) (model.CurrencyCode, error) {
	code, ok := currencyTable[strings.ToUpper(strings.TrimSpace(shopCurrency))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, shopCurrency)
	}
	return code, nil
}
