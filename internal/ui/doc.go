// Package ui implements the tally terminal interface on Bubble Tea.
//
// The root Model switches between four views: Products (list and detail
// pane), Sales (the projected sales history and a sale detail pane), the Add
// Product form and the client's own Logs. Help and the record-sale,
// update-stock and delete dialogs are drawn over the current view.
//
// Product data comes from the state.Store that the app poller refreshes; the
// model re-reads the snapshot on every tick. Sales history is owned by a
// sales.View. Page fetches run as commands and come back as salesPageMsg
// values that carry the ticket of the request, so responses that lost a race
// with a refresh are dropped by the pager rather than merged.
//
// Writes (create, stock, sale, delete) are two-step: a form or dialog emits
// an intent message, Update turns it into a backend call, and the result
// arrives as a mutationDoneMsg that updates the store and raises the alert
// banner.
package ui
