package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors an entry returned by /api/inventory.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// NewProduct is the payload for POST /api/inventory.
type NewProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// ProductSummary is the product reference embedded in a sale. The backend
// owns it; a nil Price means the product carries no price.
type ProductSummary struct {
	ID    string           `json:"_id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// SaleRecord describes one recorded sale. Product is nil when the referenced
// product no longer exists.
type SaleRecord struct {
	ID           string
	Product      *ProductSummary
	Quantity     int
	SellingPrice decimal.Decimal
	SaleDate     time.Time

	// Invalid holds the decode error of a page entry that could not be read.
	// Such records carry no ID and are dropped by the merge.
	Invalid string
}

type saleWire struct {
	ID           string          `json:"_id"`
	Product      json.RawMessage `json:"productId"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	SaleDate     string          `json:"saleDate"`
}

// UnmarshalJSON accepts productId as a populated object, a bare id string,
// or null.
func (r *SaleRecord) UnmarshalJSON(data []byte) error {
	var wire saleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	product, err := decodeProductRef(wire.Product)
	if err != nil {
		return fmt.Errorf("sale %q: %w", wire.ID, err)
	}
	*r = SaleRecord{
		ID:           strings.TrimSpace(wire.ID),
		Product:      product,
		Quantity:     wire.Quantity,
		SellingPrice: wire.SellingPrice,
		SaleDate:     parseTime(wire.SaleDate),
	}
	return nil
}

// MarshalJSON writes the record back in the backend's shape.
func (r SaleRecord) MarshalJSON() ([]byte, error) {
	out := struct {
		ID           string          `json:"_id"`
		Product      *ProductSummary `json:"productId"`
		Quantity     int             `json:"quantity"`
		SellingPrice decimal.Decimal `json:"sellingPrice"`
		SaleDate     string          `json:"saleDate,omitempty"`
	}{
		ID:           r.ID,
		Product:      r.Product,
		Quantity:     r.Quantity,
		SellingPrice: r.SellingPrice,
	}
	if !r.SaleDate.IsZero() {
		out.SaleDate = r.SaleDate.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// ProductName returns the product name, or "" when the product is missing.
func (r SaleRecord) ProductName() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.Name
}

// HasProduct reports whether the sale still references a product.
func (r SaleRecord) HasProduct() bool {
	return r.Product != nil
}

// Total is the selling price multiplied by the quantity sold.
func (r SaleRecord) Total() decimal.Decimal {
	return r.SellingPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

func decodeProductRef(raw json.RawMessage) (*ProductSummary, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return nil, fmt.Errorf("decode productId: %w", err)
		}
		if strings.TrimSpace(id) == "" {
			return nil, nil
		}
		return &ProductSummary{ID: id}, nil
	}
	var summary ProductSummary
	if err := json.Unmarshal(trimmed, &summary); err != nil {
		return nil, fmt.Errorf("decode productId: %w", err)
	}
	return &summary, nil
}

// SaleInput is the payload for POST /api/sales.
type SaleInput struct {
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	SaleDate     time.Time       `json:"saleDate"`
}

// salesPageEnvelope covers backends that wrap the page in an object.
type salesPageEnvelope struct {
	Items []json.RawMessage `json:"items"`
	Sales []json.RawMessage `json:"sales"`
}

// decodeSalesPage decodes each entry on its own. An entry that does not
// decode yields a record with only Invalid set, so one bad entry never costs
// the rest of the page. Only a body that is not a list at all is an error.
func decodeSalesPage(data []byte) ([]SaleRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var entries []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
	} else {
		var env salesPageEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		entries = env.Items
		if entries == nil {
			entries = env.Sales
		}
	}

	records := make([]SaleRecord, 0, len(entries))
	for _, entry := range entries {
		var rec SaleRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			records = append(records, SaleRecord{Invalid: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
