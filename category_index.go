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
	"github.com/market-exporter/exporter/model"
)

// CategoryIndex holds the categories exported in the feed, keyed by id.
// It is read-only once built.
type CategoryIndex struct {
	categories map[int64]model.Category
	ordered    []model.Category
}

// NewCategoryIndex builds an index from the categories in scope, keeping their order.
func NewCategoryIndex(categories []model.Category) *CategoryIndex {
	index := &CategoryIndex{
		categories: make(map[int64]model.Category, len(categories)),
		ordered:    make([]model.Category, 0, len(categories)),
	}
	for _, c := range categories {
		if _, exists := index.categories[c.ID]; exists {
			continue
		}
		index.categories[c.ID] = c
		index.ordered = append(index.ordered, c)
	}
	return index
}

func (i *CategoryIndex) Contains(id int64) bool {
	_, ok := i.categories[id]
	return ok
}

// Parent returns the parent id of a category, or 0 for top-level and unknown ids.
func (i *CategoryIndex) Parent(id int64) int64 {
	return i.categories[id].ParentID
}

func (i *CategoryIndex) Categories() []model.Category {
	return i.ordered
}

func (i *CategoryIndex) Len() int {
	return len(i.ordered)
}

// Resolve picks the category for an offer: the first assigned category found in the
// index, otherwise the first assigned category. It returns 0 when nothing is assigned.
func (i *CategoryIndex) Resolve(assigned []int64) int64 {
	if len(assigned) == 0 {
		return 0
	}
	for _, id := range assigned {
		if i.Contains(id) {
			return id
		}
	}
	return assigned[0]
}
