// Package state shares the latest product list between the background poller
// and the UI.
//
// The poller is the single writer: it calls Store.Update after every poll,
// passing either the fresh product list or the error that prevented it. The
// UI reads with Store.Snapshot on its own schedule. Both sides go through a
// sync.RWMutex and every slice crossing the boundary is copied, so neither
// goroutine can observe a torn or shared value.
//
// A failed Update keeps the previous products and records the error, bumping
// ConsecutiveFailures. Snapshot.IsOffline reports true after two failures in
// a row; one success resets the counter.
//
// Mutations made from the UI (stock updates, deletions, new products) are
// reflected immediately with Upsert and Remove rather than waiting for the
// next poll.
//
// The zero Store is ready to use.
package state
