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
package mocks

import (
	"context"

	"github.com/market-exporter/exporter/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Catalog methods

func (m *MockDataSource) FindProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	args := m.Called(ctx, filter)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Int(1), args.Error(2)
}

func (m *MockDataSource) GetCategories(ctx context.Context, scope []int64) ([]model.Category, error) {
	args := m.Called(ctx, scope)
	categories, _ := args.Get(0).([]model.Category)
	return categories, args.Error(1)
}

func (m *MockDataSource) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*model.Product)
	return product, args.Error(1)
}

// Export run methods

func (m *MockDataSource) SaveRun(ctx context.Context, run *model.ExportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDataSource) GetLastRun(ctx context.Context) (*model.ExportRun, error) {
	args := m.Called(ctx)
	run, _ := args.Get(0).(*model.ExportRun)
	return run, args.Error(1)
}

func (m *MockDataSource) ListRuns(ctx context.Context, limit, offset int) ([]model.ExportRun, error) {
	args := m.Called(ctx, limit, offset)
	runs, _ := args.Get(0).([]model.ExportRun)
	return runs, args.Error(1)
}
