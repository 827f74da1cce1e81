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

package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/internal/apierror"
	"github.com/market-exporter/exporter/internal/request"
	"github.com/market-exporter/exporter/model"
	"github.com/shopspring/decimal"
)

const (
	apiPrefix = "/wp-json/wc/v3"
	// maxPerPage is the largest page the REST API serves.
	maxPerPage = 100
)

// Client reads the catalog of a WooCommerce store over its REST API.
type Client struct {
	baseURL string
	key     string
	secret  string
}

func NewClient(cnf config.WooCommerceConfig) (*Client, error) {
	if cnf.Url == "" {
		return nil, errors.New("woocommerce url is required")
	}
	return &Client{
		baseURL: strings.TrimRight(cnf.Url, "/") + apiPrefix,
		key:     cnf.ConsumerKey,
		secret:  cnf.ConsumerSecret,
	}, nil
}

type wcImage struct {
	Src string `json:"src"`
}

type wcCategoryRef struct {
	ID int64 `json:"id"`
}

type wcAttribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
	Option    string   `json:"option"`
}

type wcMeta struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type wcDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type wcProduct struct {
	ID               int64           `json:"id"`
	ParentID         int64           `json:"parent_id"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Name             string          `json:"name"`
	Permalink        string          `json:"permalink"`
	SKU              string          `json:"sku"`
	Price            string          `json:"price"`
	RegularPrice     string          `json:"regular_price"`
	SalePrice        string          `json:"sale_price"`
	StockStatus      string          `json:"stock_status"`
	ManageStock      interface{}     `json:"manage_stock"`
	StockQuantity    *int            `json:"stock_quantity"`
	Weight           string          `json:"weight"`
	Dimensions       wcDimensions    `json:"dimensions"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Categories       []wcCategoryRef `json:"categories"`
	Images           []wcImage       `json:"images"`
	Image            *wcImage        `json:"image"`
	Attributes       []wcAttribute   `json:"attributes"`
	MetaData         []wcMeta        `json:"meta_data"`
	Downloadable     bool            `json:"downloadable"`
}

type wcCategory struct {
	ID     int64  `json:"id"`
	Parent int64  `json:"parent"`
	Name   string `json:"name"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) (*http.Response, error) {
	req, err := request.NewGet(ctx, c.baseURL+path, query)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Basic "+request.BasicAuth(c.key, c.secret))
	}

	resp, err := request.Call(req, out)
	if err != nil {
		var statusErr *request.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return resp, apierror.NewAPIError(apierror.ErrNotFound, "Resource not found in store", err)
		}
		return resp, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to call store API", err)
	}
	return resp, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// FindProducts pages through the store in chunks of at most 100 products. Stock
// statuses the API cannot filter on together are filtered locally, so a page may
// hold fewer products than requested while the total stays stable across pages.
func (c *Client) FindProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	allowed := make(map[string]bool, len(filter.StockStatuses))
	for _, s := range filter.StockStatusStrings() {
		allowed[s] = true
	}

	products := []model.Product{}
	total := 0
	fetched := 0
	for fetched < filter.Limit {
		perPage := filter.Limit - fetched
		if perPage > maxPerPage {
			perPage = maxPerPage
		}

		query := url.Values{
			"status":   {"publish"},
			"orderby":  {"id"},
			"order":    {"desc"},
			"per_page": {strconv.Itoa(perPage)},
			"offset":   {strconv.Itoa(filter.Offset + fetched)},
		}
		if len(filter.StockStatuses) == 1 {
			query.Set("stock_status", string(filter.StockStatuses[0]))
		}
		if len(filter.CategoryIDs) > 0 {
			query.Set("category", joinIDs(filter.CategoryIDs))
		}

		var page []wcProduct
		resp, err := c.get(ctx, "/products", query, &page)
		if err != nil {
			return nil, 0, err
		}
		total, _ = strconv.Atoi(resp.Header.Get("X-WP-Total"))

		for _, p := range page {
			if p.Type != "simple" && p.Type != "variable" {
				continue
			}
			if len(allowed) > 0 && !allowed[p.StockStatus] {
				continue
			}
			if price, _ := decimal.NewFromString(p.Price); !price.IsPositive() {
				continue
			}

			product := p.toModel()
			if product.IsVariable() {
				variations, err := c.variations(ctx, p.ID)
				if err != nil {
					return nil, 0, err
				}
				product.Variations = variations
			}
			products = append(products, product)
		}

		fetched += len(page)
		if len(page) < perPage || filter.Offset+fetched >= total {
			break
		}
	}
	return products, total, nil
}

func (c *Client) variations(ctx context.Context, parentID int64) ([]model.Product, error) {
	var out []model.Product
	for page := 1; ; page++ {
		var batch []wcProduct
		resp, err := c.get(ctx, fmt.Sprintf("/products/%d/variations", parentID), url.Values{
			"per_page": {strconv.Itoa(maxPerPage)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"menu_order"},
			"order":    {"asc"},
		}, &batch)
		if err != nil {
			return nil, err
		}
		for _, v := range batch {
			if v.Status != "" && v.Status != "publish" {
				continue
			}
			variation := v.toModel()
			variation.ParentID = parentID
			out = append(out, variation)
		}

		pages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
		if len(batch) < maxPerPage || page >= pages {
			return out, nil
		}
	}
}

// GetCategories fetches all categories, or only those in scope.
func (c *Client) GetCategories(ctx context.Context, scope []int64) ([]model.Category, error) {
	categories := []model.Category{}
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(maxPerPage)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"id"},
			"order":    {"asc"},
		}
		if len(scope) > 0 {
			query.Set("include", joinIDs(scope))
		}

		var batch []wcCategory
		resp, err := c.get(ctx, "/products/categories", query, &batch)
		if err != nil {
			return nil, err
		}
		for _, cat := range batch {
			categories = append(categories, model.Category{ID: cat.ID, ParentID: cat.Parent, Name: cat.Name})
		}

		pages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
		if len(batch) < maxPerPage || page >= pages {
			return categories, nil
		}
	}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p wcProduct
	if _, err := c.get(ctx, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}

	product := p.toModel()
	if product.IsVariable() {
		variations, err := c.variations(ctx, id)
		if err != nil {
			return nil, err
		}
		product.Variations = variations
	}
	return &product, nil
}

func (p wcProduct) toModel() model.Product {
	product := model.Product{
		ID:               p.ID,
		ParentID:         p.ParentID,
		Type:             model.ProductType(p.Type),
		Name:             p.Name,
		Permalink:        p.Permalink,
		SKU:              p.SKU,
		StockStatus:      model.StockStatus(p.StockStatus),
		StockQuantity:    p.StockQuantity,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Downloadable:     p.Downloadable,
	}
	if p.Type == "" || p.Type == "variation" {
		product.Type = model.ProductSimple
	}

	product.RegularPrice, _ = decimal.NewFromString(p.RegularPrice)
	product.SalePrice, _ = decimal.NewFromString(p.SalePrice)
	if manage, ok := p.ManageStock.(bool); ok {
		product.ManageStock = manage
	}

	product.Weight = parseFloat(p.Weight)
	product.Dimensions = model.Dimensions{
		Length: parseFloat(p.Dimensions.Length),
		Width:  parseFloat(p.Dimensions.Width),
		Height: parseFloat(p.Dimensions.Height),
	}

	for _, cat := range p.Categories {
		product.CategoryIDs = append(product.CategoryIDs, cat.ID)
	}

	switch {
	case p.Image != nil:
		product.Image = p.Image.Src
	case len(p.Images) > 0:
		product.Image = p.Images[0].Src
		for _, img := range p.Images[1:] {
			product.Gallery = append(product.Gallery, img.Src)
		}
	}

	for _, attr := range p.Attributes {
		product.Attributes = append(product.Attributes, attr.toModel())
	}

	if len(p.MetaData) > 0 {
		product.Meta = make(map[string]string, len(p.MetaData))
		for _, m := range p.MetaData {
			if s, ok := m.Value.(string); ok {
				product.Meta[m.Key] = s
			} else if f, ok := m.Value.(float64); ok {
				product.Meta[m.Key] = strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	}
	return product
}

// toModel names global attributes "pa_<slug>" the way the store does; local
// attributes keep their slugified name.
func (a wcAttribute) toModel() model.Attribute {
	slug := a.Slug
	if slug == "" {
		slug = slugify(a.Name)
	}
	if a.ID > 0 && !strings.HasPrefix(slug, "pa_") {
		slug = "pa_" + slug
	}

	values := a.Options
	if a.Option != "" {
		values = []string{a.Option}
	}
	return model.Attribute{Name: slug, Label: a.Name, Values: values, Variation: a.Variation || a.Option != ""}
}

func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "-")
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
