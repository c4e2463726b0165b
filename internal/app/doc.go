// Package app is the composition root for tally.
//
// Run loads configuration and preferences, opens the log file, builds the
// inventory client and metrics, and then hands control to the UI:
//
//	Run()
//	 ├─> config.Load()          ~/.config/tally/config.toml
//	 ├─> logging.New()          zap console encoder to log_path
//	 ├─> inventory.NewClient()  REST client, observed by metrics
//	 ├─> metrics.Serve()        only when metrics_bind is set
//	 ├─> StartPoller()          product snapshot refresh
//	 └─> ui.Run()               blocks until quit
//
// The poller refreshes the product snapshot at poll_interval. Each
// consecutive failure doubles the delay up to five minutes; the first
// successful poll restores the base interval. Poll failures are logged and
// recorded on the store, never returned.
//
// Sales history is not polled. The UI fetches it page by page through the
// sales package when the user scrolls.
package app
