package sales

import (
	"sort"
	"strings"

	"github.com/five82/tally/internal/inventory"
)

// SortKey selects the ordering applied by Project.
type SortKey string

const (
	SortByName  SortKey = "name"
	SortByPrice SortKey = "price"
	SortByDate  SortKey = "date"
)

// SortKeys lists the supported keys in cycling order.
var SortKeys = []SortKey{SortByDate, SortByName, SortByPrice}

// ParseSortKey maps user input to a SortKey, falling back to SortByDate.
func ParseSortKey(value string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case SortByName:
		return SortByName
	case SortByPrice:
		return SortByPrice
	default:
		return SortByDate
	}
}

// Next returns the key after k in SortKeys.
func (k SortKey) Next() SortKey {
	current := ParseSortKey(string(k))
	for i, key := range SortKeys {
		if key == current {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortByDate
}

// Label is the short header text for the key.
func (k SortKey) Label() string {
	switch ParseSortKey(string(k)) {
	case SortByName:
		return "Name"
	case SortByPrice:
		return "Price"
	default:
		return "Date"
	}
}

// ViewParams are the consumer-controlled inputs of a projection.
type ViewParams struct {
	Search string
	Sort   SortKey
	Page   int
}

// Project filters and sorts the collection. The collection is not modified
// and the result is a fresh slice.
//
// A non-empty search keeps only records whose product is present and whose
// name contains the search text, ignoring case. An empty search keeps every
// record, including those whose product is gone.
func Project(c Collection, params ViewParams) []inventory.SaleRecord {
	needle := strings.ToLower(strings.TrimSpace(params.Search))
	out := make([]inventory.SaleRecord, 0, c.Len())
	for _, rec := range c.Records() {
		if needle != "" {
			if !rec.HasProduct() || !strings.Contains(strings.ToLower(rec.ProductName()), needle) {
				continue
			}
		}
		out = append(out, rec)
	}

	var less func(a, b inventory.SaleRecord) bool
	switch ParseSortKey(string(params.Sort)) {
	case SortByName:
		less = func(a, b inventory.SaleRecord) bool { return a.ProductName() < b.ProductName() }
	case SortByPrice:
		less = func(a, b inventory.SaleRecord) bool { return a.SellingPrice.LessThan(b.SellingPrice) }
	default:
		less = func(a, b inventory.SaleRecord) bool { return a.SaleDate.After(b.SaleDate) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
