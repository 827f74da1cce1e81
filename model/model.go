package model

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New() // Generate a new UUID.
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr) // Append the module as a suffix to the UUID.
	return idWithSuffix
}

// VisibleVariations returns the variants of a variable product that can be sold,
// keeping their natural order. Out-of-stock variants are dropped entirely.
func (p *Product) VisibleVariations() []Product {
	variations := make([]Product, 0, len(p.Variations))
	for _, v := range p.Variations {
		if v.StockStatus == StockOutOfStock {
			continue
		}
		variations = append(variations, v)
	}
	return variations
}
