// Package sales reconciles paginated sale records into one deduplicated
// collection and projects filtered, sorted views of it for the UI.
package sales

import (
	"strings"

	"github.com/five82/tally/internal/inventory"
)

// Collection is an identity-keyed set of sale records ordered by first
// insertion. The zero value is an empty collection. Collections are values:
// Merge returns a new one and never mutates its input.
type Collection struct {
	order []string
	byID  map[string]inventory.SaleRecord
}

// Len returns the number of distinct identities.
func (c Collection) Len() int {
	return len(c.order)
}

// Get returns the record stored for id.
func (c Collection) Get(id string) (inventory.SaleRecord, bool) {
	rec, ok := c.byID[id]
	return rec, ok
}

// IDs returns identities in first-insertion order.
func (c Collection) IDs() []string {
	return append([]string(nil), c.order...)
}

// Records returns the stored records in first-insertion order.
func (c Collection) Records() []inventory.SaleRecord {
	out := make([]inventory.SaleRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Equal reports whether both collections hold the same identities in the same
// order with identical values.
func (c Collection) Equal(other Collection) bool {
	if len(c.order) != len(other.order) {
		return false
	}
	for i, id := range c.order {
		if other.order[i] != id {
			return false
		}
		if !recordsEqual(c.byID[id], other.byID[id]) {
			return false
		}
	}
	return true
}

// Merge inserts or overwrites every record of page into a copy of existing.
// The last occurrence of an identity wins, including duplicates inside page,
// while its position stays where the identity was first seen. Records without
// an identity, or that failed to decode, are skipped and reported as
// MalformedRecordError values.
func Merge(existing Collection, page []inventory.SaleRecord) (Collection, []error) {
	merged := Collection{
		order: make([]string, len(existing.order), len(existing.order)+len(page)),
		byID:  make(map[string]inventory.SaleRecord, len(existing.order)+len(page)),
	}
	copy(merged.order, existing.order)
	for id, rec := range existing.byID {
		merged.byID[id] = rec
	}

	var problems []error
	for i, rec := range page {
		id := strings.TrimSpace(rec.ID)
		if rec.Invalid != "" {
			problems = append(problems, &inventory.MalformedRecordError{Index: i, Reason: rec.Invalid})
			continue
		}
		if id == "" {
			problems = append(problems, &inventory.MalformedRecordError{Index: i, Reason: "missing _id"})
			continue
		}
		rec.ID = id
		if _, seen := merged.byID[id]; !seen {
			merged.order = append(merged.order, id)
		}
		merged.byID[id] = rec
	}
	return merged, problems
}

func recordsEqual(a, b inventory.SaleRecord) bool {
	if a.ID != b.ID || a.Quantity != b.Quantity {
		return false
	}
	if !a.SellingPrice.Equal(b.SellingPrice) || !a.SaleDate.Equal(b.SaleDate) {
		return false
	}
	switch {
	case a.Product == nil && b.Product == nil:
		return true
	case a.Product == nil || b.Product == nil:
		return false
	}
	if a.Product.ID != b.Product.ID || a.Product.Name != b.Product.Name {
		return false
	}
	switch {
	case a.Product.Price == nil && b.Product.Price == nil:
		return true
	case a.Product.Price == nil || b.Product.Price == nil:
		return false
	}
	return a.Product.Price.Equal(*b.Product.Price)
}
