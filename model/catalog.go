package model

// ProductFilter selects one page of exportable products. Only published top-level
// products with a positive price are considered, newest id first.
type ProductFilter struct {
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	StockStatuses []StockStatus `json:"stock_statuses"`
	CategoryIDs   []int64       `json:"category_ids,omitempty"`
}

// StockStatusStrings returns the statuses as plain strings for query arguments.
func (f ProductFilter) StockStatusStrings() []string {
	out := make([]string, 0, len(f.StockStatuses))
	for _, s := range f.StockStatuses {
		out = append(out, string(s))
	}
	return out
}
