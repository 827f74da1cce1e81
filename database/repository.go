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

	"github.com/market-exporter/exporter/model"
)

// IDataSource groups everything the exporter reads from or writes to Postgres.
type IDataSource interface {
	ICatalog
	exportRun
}

// ICatalog is the catalog provider consumed by the export job. The WooCommerce
// client implements it as well.
type ICatalog interface {
	FindProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) // One page of exportable products and the total count
	GetCategories(ctx context.Context, scope []int64) ([]model.Category, error)                 // All categories, or only those in scope
	GetProduct(ctx context.Context, id int64) (*model.Product, error)                           // A product with its variations
}

type exportRun interface {
	SaveRun(ctx context.Context, run *model.ExportRun) error
	GetLastRun(ctx context.Context) (*model.ExportRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]model.ExportRun, error)
}
