package inventory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSaleRecord_UnmarshalPopulatedProduct(t *testing.T) {
	raw := `{"_id":" s1 ","productId":{"_id":"p1","name":"Soap","price":5},"quantity":2,"sellingPrice":"6.50","saleDate":"2025-03-01T10:00:00.000Z"}`

	var rec SaleRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if rec.ID != "s1" {
		t.Fatalf("ID = %q, want s1 (trimmed)", rec.ID)
	}
	if !rec.HasProduct() || rec.ProductName() != "Soap" {
		t.Fatalf("Product = %#v, want Soap", rec.Product)
	}
	if rec.Product.Price == nil || !rec.Product.Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("Product.Price = %v, want 5", rec.Product.Price)
	}
	if rec.Quantity != 2 || !rec.SellingPrice.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("quantity/price = %d/%s, want 2/6.5", rec.Quantity, rec.SellingPrice)
	}
	want := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	if !rec.SaleDate.Equal(want) {
		t.Fatalf("SaleDate = %v, want %v", rec.SaleDate, want)
	}
	if got := rec.Total(); !got.Equal(decimal.NewFromInt(13)) {
		t.Fatalf("Total = %s, want 13", got)
	}
}

func TestSaleRecord_UnmarshalProductVariants(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		hasProduct bool
		productID  string
	}{
		{"null product", `{"_id":"a","productId":null}`, false, ""},
		{"missing product", `{"_id":"a"}`, false, ""},
		{"bare id", `{"_id":"a","productId":"p9"}`, true, "p9"},
		{"blank id", `{"_id":"a","productId":"  "}`, false, ""},
		{"no price", `{"_id":"a","productId":{"_id":"p1","name":"Soap"}}`, true, "p1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec SaleRecord
			if err := json.Unmarshal([]byte(tc.raw), &rec); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if rec.HasProduct() != tc.hasProduct {
				t.Fatalf("HasProduct = %v, want %v", rec.HasProduct(), tc.hasProduct)
			}
			if tc.hasProduct && rec.Product.ID != tc.productID {
				t.Fatalf("Product.ID = %q, want %q", rec.Product.ID, tc.productID)
			}
		})
	}
}

func TestSaleRecord_UnmarshalRejectsBadProduct(t *testing.T) {
	var rec SaleRecord
	if err := json.Unmarshal([]byte(`{"_id":"a","productId":42}`), &rec); err == nil {
		t.Fatalf("Unmarshal returned nil error, want error for numeric productId")
	}
}

func TestSaleRecord_MarshalRoundTripsProductShape(t *testing.T) {
	price := decimal.NewFromInt(3)
	rec := SaleRecord{
		ID:           "s1",
		Product:      &ProductSummary{ID: "p1", Name: "Bread", Price: &price},
		Quantity:     1,
		SellingPrice: decimal.NewFromInt(3),
		SaleDate:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var back SaleRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if back.ID != "s1" || back.ProductName() != "Bread" || !back.SaleDate.Equal(rec.SaleDate) {
		t.Fatalf("round trip = %#v, want %#v", back, rec)
	}
}

func TestDecodeSalesPage_Shapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"array", `[{"_id":"a"},{"_id":"b"}]`, 2},
		{"items envelope", `{"items":[{"_id":"a"}]}`, 1},
		{"sales envelope", `{"sales":[{"_id":"a"},{"_id":"b"},{"_id":"c"}]}`, 3},
		{"empty", ``, 0},
		{"null", `null`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeSalesPage([]byte(tc.body))
			if err != nil {
				t.Fatalf("decodeSalesPage returned error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("len = %d, want %d", len(got), tc.want)
			}
		})
	}

	if _, err := decodeSalesPage([]byte(`{not-json`)); err == nil {
		t.Fatalf("decodeSalesPage returned nil error, want error")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	if parseTime("2025-12-13T10:11:12Z").IsZero() {
		t.Fatalf("parseTime should parse RFC3339")
	}
	if parseTime("2025-12-13T10:11:12.123456Z").IsZero() {
		t.Fatalf("parseTime should parse RFC3339Nano")
	}
	got := parseTime("2025-12-13")
	if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
		t.Fatalf("parseTime = %v, want 2025-12-13", got)
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero time for unknown layouts")
	}
}

func TestDecodeSalesPage_KeepsEntriesAroundUndecodableOnes(t *testing.T) {
	entries := `[
		{"_id":"a","productId":null,"quantity":1,"sellingPrice":2},
		{"_id":7,"quantity":1,"sellingPrice":2},
		{"_id":"p","quantity":1,"sellingPrice":"abc"},
		{"_id":"n","productId":42,"quantity":1,"sellingPrice":2},
		{"_id":"b","productId":"p1","quantity":2,"sellingPrice":3}
	]`
	for name, body := range map[string]string{
		"array":    entries,
		"envelope": `{"items":` + entries + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := decodeSalesPage([]byte(body))
			if err != nil {
				t.Fatalf("decodeSalesPage returned error: %v", err)
			}
			if len(got) != 5 {
				t.Fatalf("len = %d, want 5 (bad entries keep their slot)", len(got))
			}
			if got[0].ID != "a" || got[4].ID != "b" || got[0].Invalid != "" || got[4].Invalid != "" {
				t.Fatalf("valid entries = %+v, %+v", got[0], got[4])
			}
			for _, i := range []int{1, 2, 3} {
				if got[i].Invalid == "" || got[i].ID != "" {
					t.Fatalf("entry %d = %+v, want Invalid set and no ID", i, got[i])
				}
			}
		})
	}
}
