package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/inventory/inventorytest"
	"github.com/five82/tally/internal/sales"
)

func TestViewAgainstBackend(t *testing.T) {
	backend := inventorytest.NewBackend(t)
	now := time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)
	backend.AddSaleJSON(inventorytest.Sale("a", "Soap", 5, now.Add(-time.Hour)))
	backend.AddSaleJSON(inventorytest.Sale("b", "Bread", 2, now))
	backend.AddSaleJSON(`{"quantity":1,"sellingPrice":1}`)
	backend.AddSaleJSON(inventorytest.Sale("c", "", 3, now.Add(-2*time.Hour)))

	client, err := inventory.NewClient(backend.URL())
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	view := sales.NewView(2, sales.SortByDate, zap.New(core))
	ctx := context.Background()

	req, ok := view.Start()
	require.True(t, ok)
	records, err := sales.Fetch(ctx, client, req)
	require.NoError(t, err)
	out := view.Apply(req, records, nil)
	require.True(t, out.Applied)
	assert.Equal(t, sales.Idle, view.State())
	assert.Equal(t, 2, view.Params().Page)

	req, ok = view.OnNearEnd()
	require.True(t, ok)
	records, err = sales.Fetch(ctx, client, req)
	require.NoError(t, err)
	out = view.Apply(req, records, nil)
	assert.Len(t, out.Malformed, 1)
	assert.Equal(t, 1, logs.FilterMessage("dropped malformed sale record").Len())

	req, _ = view.OnNearEnd()
	records, err = sales.Fetch(ctx, client, req)
	require.NoError(t, err)
	out = view.Apply(req, records, nil)
	assert.Equal(t, sales.Exhausted, out.State)

	var got []string
	for _, rec := range view.Projected() {
		got = append(got, rec.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)

	view.OnSearchChange("SO")
	require.Len(t, view.Projected(), 1)
	assert.Equal(t, "a", view.Projected()[0].ID)
	assert.Equal(t, 3, view.Collection().Len(), "search never shrinks the collection")
}

func TestViewFailureLogsAndSurfaces(t *testing.T) {
	backend := inventorytest.NewBackend(t)
	backend.FailSales(1)
	backend.AddSaleJSON(inventorytest.Sale("a", "Soap", 5, time.Now()))

	client, err := inventory.NewClient(backend.URL())
	require.NoError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	view := sales.NewView(10, "", zap.New(core))

	req, _ := view.Start()
	records, fetchErr := sales.Fetch(context.Background(), client, req)
	require.Error(t, fetchErr)
	view.Apply(req, records, fetchErr)

	assert.Equal(t, sales.Failed, view.State())
	assert.Contains(t, inventory.Describe(view.Err()), "sales unavailable")
	entries := logs.FilterMessage("sales page fetch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.KindServer, entries[0].ContextMap()["kind"])

	req, ok := view.OnNearEnd()
	require.True(t, ok)
	records, fetchErr = sales.Fetch(context.Background(), client, req)
	require.NoError(t, fetchErr)
	view.Apply(req, records, nil)
	assert.Len(t, view.Projected(), 1)
	assert.Len(t, backend.SalesCalls(), 2)
}

func TestViewSurvivesUndecodableEntryOnFirstPage(t *testing.T) {
	backend := inventorytest.NewBackend(t)
	backend.AddSaleJSON(`{"_id":99,"quantity":1,"sellingPrice":1}`)
	backend.AddSaleJSON(inventorytest.Sale("a", "Soap", 5, time.Now()))
	backend.AddSaleJSON(`{"_id":"x","productId":3,"quantity":1,"sellingPrice":1}`)

	client, err := inventory.NewClient(backend.URL())
	require.NoError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	view := sales.NewView(5, sales.SortByDate, zap.New(core))

	req, _ := view.Start()
	records, err := sales.Fetch(context.Background(), client, req)
	require.NoError(t, err)
	out := view.Apply(req, records, err)

	assert.Equal(t, sales.Exhausted, out.State)
	assert.Len(t, out.Malformed, 2)
	require.Len(t, view.Projected(), 1)
	assert.Equal(t, "a", view.Projected()[0].ID)
	assert.Equal(t, 2, logs.FilterMessage("dropped malformed sale record").Len())
}

func TestViewRefreshAndDispose(t *testing.T) {
	view := sales.NewView(1, sales.SortByName, nil)
	first, _ := view.Start()
	refreshed, ok := view.Refresh()
	require.True(t, ok)

	out := view.Apply(first, []inventory.SaleRecord{{ID: "stale", Quantity: 1}}, nil)
	assert.False(t, out.Applied)

	view.Dispose()
	out = view.Apply(refreshed, []inventory.SaleRecord{{ID: "late", Quantity: 1}}, nil)
	assert.False(t, out.Applied)
	assert.Empty(t, view.Projected())
}

func TestViewSortChangeAndSummary(t *testing.T) {
	view := sales.NewView(5, sales.SortByDate, nil)
	req, _ := view.Start()
	view.Apply(req, []inventory.SaleRecord{
		{ID: "a", Quantity: 2, SellingPrice: decimal.RequireFromString("2.50"), Product: &inventory.ProductSummary{Name: "Soap"}},
		{ID: "b", Quantity: 1, SellingPrice: decimal.RequireFromString("1.25"), Product: &inventory.ProductSummary{Name: "Bread"}},
	}, nil)

	view.OnSortChange(sales.SortByPrice)
	assert.Equal(t, sales.SortByPrice, view.Params().Sort)
	assert.Equal(t, "b", view.Projected()[0].ID)

	view.OnSortChange("unknown")
	assert.Equal(t, sales.SortByDate, view.Params().Sort)

	sum := view.Summary()
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 3, sum.Units)
	assert.True(t, sum.Revenue.Equal(decimal.RequireFromString("6.25")), "revenue = %s", sum.Revenue)
}
