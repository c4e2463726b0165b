package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/inventory/inventorytest"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, 60 * time.Second},
		{"two failures", 2, 120 * time.Second},
		{"three failures", 3, 240 * time.Second},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 480s
		{"many failures capped", 40, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 70; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type failingLister struct{ err error }

func (f failingLister) FetchProducts(context.Context) ([]inventory.Product, error) {
	return nil, f.err
}

func TestRefreshUpdatesStore(t *testing.T) {
	backend := inventorytest.NewBackend(t)
	backend.AddProduct(inventory.Product{Name: "Soap", Stock: 3})
	backend.AddProduct(inventory.Product{Name: "Bread", Stock: 0})
	client, err := inventory.NewClient(backend.URL())
	require.NoError(t, err)

	store := &state.Store{}
	m := metrics.New()
	refresh(context.Background(), store, client, zaptest.NewLogger(t), m)

	snap := store.Snapshot()
	assert.True(t, snap.HasProducts)
	assert.Len(t, snap.Products, 2)
	assert.NoError(t, snap.LastError)
	assert.Equal(t, 2.0, gaugeValue(t, m, "tally_products_loaded"))
}

func TestRefreshKeepsProductsOnFailure(t *testing.T) {
	store := &state.Store{}
	store.Update([]inventory.Product{{ID: "p1", Name: "Soap"}}, nil)

	boom := &inventory.ServerError{Path: "/api/inventory", StatusCode: 503}
	lister := failingLister{err: boom}
	refresh(context.Background(), store, lister, zaptest.NewLogger(t), nil)
	refresh(context.Background(), store, lister, zaptest.NewLogger(t), nil)

	snap := store.Snapshot()
	assert.Len(t, snap.Products, 1, "failed polls keep the last good data")
	assert.ErrorAs(t, snap.LastError, &boom)
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.True(t, snap.IsOffline())
}

func TestRefreshIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &state.Store{}
	refresh(ctx, store, failingLister{err: context.Canceled}, zaptest.NewLogger(t), nil)
	assert.Zero(t, store.Snapshot().ConsecutiveFailures)
}

func TestStartPollerRefreshesOnInterval(t *testing.T) {
	backend := inventorytest.NewBackend(t)
	backend.AddProduct(inventory.Product{Name: "Soap"})
	client, err := inventory.NewClient(backend.URL())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &state.Store{}
	StartPoller(ctx, store, client, 10*time.Millisecond, zap.NewNop(), nil)

	require.Eventually(t, func() bool {
		return store.Snapshot().HasProducts
	}, 2*time.Second, 10*time.Millisecond)
}

func gaugeValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
