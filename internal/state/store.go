package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/five82/tally/internal/inventory"
)

// Snapshot represents the latest product data available to the UI.
type Snapshot struct {
	Products            []inventory.Product
	HasProducts         bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Product looks up a product by id.
func (s Snapshot) Product(id string) (inventory.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return inventory.Product{}, false
}

// LowStock returns the products whose stock is at or below threshold.
func (s Snapshot) LowStock(threshold int) []inventory.Product {
	var out []inventory.Product
	for _, p := range s.Products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored products. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(products []inventory.Product, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Products = cloneProducts(products)
	s.snapshot.HasProducts = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Upsert replaces a single product after a successful mutation so the UI does
// not wait for the next poll.
func (s *Store) Upsert(p inventory.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot.Products {
		if s.snapshot.Products[i].ID == p.ID {
			s.snapshot.Products[i] = p
			return
		}
	}
	s.snapshot.Products = append(s.snapshot.Products, p)
}

// Remove drops a product by id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	kept := s.snapshot.Products[:0]
	for _, p := range s.snapshot.Products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.snapshot.Products = kept
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Products = cloneProducts(s.snapshot.Products)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneProducts(items []inventory.Product) []inventory.Product {
	if len(items) == 0 {
		return nil
	}
	dup := make([]inventory.Product, len(items))
	copy(dup, items)
	return dup
}
