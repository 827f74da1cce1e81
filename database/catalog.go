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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/market-exporter/exporter/internal/apierror"
	"github.com/market-exporter/exporter/model"
	"github.com/shopspring/decimal"
)

const productColumns = `
	p.id, COALESCE(p.parent_id, 0), p.type, p.name, p.permalink, p.sku,
	p.regular_price, p.sale_price, p.stock_status, p.manage_stock, p.stock_quantity,
	p.weight, p.length, p.width, p.height,
	p.description, p.short_description, p.image, p.gallery, p.attributes, p.meta, p.downloadable,
	ARRAY(SELECT pc.category_id FROM exporter.product_categories pc WHERE pc.product_id = p.id ORDER BY pc.position, pc.category_id)`

const exportableFilter = `
	p.parent_id IS NULL
	AND p.status = 'publish'
	AND p.type IN ('simple', 'variable')
	AND p.price > 0
	AND p.stock_status = ANY($1)
	AND ($2::bigint[] IS NULL OR EXISTS (
		SELECT 1 FROM exporter.product_categories pc
		WHERE pc.product_id = p.id AND pc.category_id = ANY($2)
	))`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		product       model.Product
		salePrice     decimal.NullDecimal
		stockQuantity sql.NullInt64
		gallery       pq.StringArray
		categoryIDs   pq.Int64Array
		attributes    []byte
		meta          []byte
		productType   string
		stockStatus   string
	)

	err := row.Scan(
		&product.ID, &product.ParentID, &productType, &product.Name, &product.Permalink, &product.SKU,
		&product.RegularPrice, &salePrice, &stockStatus, &product.ManageStock, &stockQuantity,
		&product.Weight, &product.Dimensions.Length, &product.Dimensions.Width, &product.Dimensions.Height,
		&product.Description, &product.ShortDescription, &product.Image, &gallery, &attributes, &meta, &product.Downloadable,
		&categoryIDs,
	)
	if err != nil {
		return product, err
	}

	product.Type = model.ProductType(productType)
	product.StockStatus = model.StockStatus(stockStatus)
	if salePrice.Valid {
		product.SalePrice = salePrice.Decimal
	}
	if stockQuantity.Valid {
		q := int(stockQuantity.Int64)
		product.StockQuantity = &q
	}
	product.Gallery = []string(gallery)
	product.CategoryIDs = []int64(categoryIDs)

	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &product.Attributes); err != nil {
			return product, err
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &product.Meta); err != nil {
			return product, err
		}
	}
	return product, nil
}

func nullableIDs(ids []int64) interface{} {
	if len(ids) == 0 {
		return nil
	}
	return pq.Array(ids)
}

// FindProducts returns one page of exportable products, newest first, with the
// variations of variable products attached, and the total number of matches.
func (d Datasource) FindProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	statuses := pq.Array(filter.StockStatusStrings())
	categories := nullableIDs(filter.CategoryIDs)

	var total int
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM exporter.products p
		WHERE `+exportableFilter, statuses, categories).Scan(&total)
	if err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count products", err)
	}
	if total == 0 {
		return []model.Product{}, 0, nil
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM exporter.products p
		WHERE `+exportableFilter+`
		ORDER BY p.id DESC
		LIMIT $3 OFFSET $4`, statuses, categories, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve products", err)
	}
	defer rows.Close()

	products := []model.Product{}
	var variableIDs []int64
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan product data", err)
		}
		if product.IsVariable() {
			variableIDs = append(variableIDs, product.ID)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over products", err)
	}

	if err := d.attachVariations(ctx, products, variableIDs); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (d Datasource) attachVariations(ctx context.Context, products []model.Product, parentIDs []int64) error {
	if len(parentIDs) == 0 {
		return nil
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM exporter.products p
		WHERE p.parent_id = ANY($1) AND p.status = 'publish'
		ORDER BY p.parent_id, p.menu_order, p.id`, pq.Array(parentIDs))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve variations", err)
	}
	defer rows.Close()

	byParent := make(map[int64][]model.Product, len(parentIDs))
	for rows.Next() {
		variation, err := scanProduct(rows)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan variation data", err)
		}
		byParent[variation.ParentID] = append(byParent[variation.ParentID], variation)
	}
	if err := rows.Err(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over variations", err)
	}

	for i := range products {
		if v, ok := byParent[products[i].ID]; ok {
			products[i].Variations = v
		}
	}
	return nil
}

// GetCategories returns every category, or only the ids in scope when it is non-empty.
func (d Datasource) GetCategories(ctx context.Context, scope []int64) ([]model.Category, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, 0), name
		FROM exporter.categories
		WHERE ($1::bigint[] IS NULL OR id = ANY($1))
		ORDER BY position, id`, nullableIDs(scope))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve categories", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan category data", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over categories", err)
	}
	return categories, nil
}

func (d Datasource) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM exporter.products p
		WHERE p.id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Product not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve product", err)
	}

	products := []model.Product{product}
	if product.IsVariable() {
		if err := d.attachVariations(ctx, products, []int64{product.ID}); err != nil {
			return nil, err
		}
	}
	return &products[0], nil
}
