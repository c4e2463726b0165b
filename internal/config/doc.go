// Package config loads tally's TOML configuration.
//
// The file lives at ~/.config/tally/config.toml unless a path is given. A
// missing file is not an error: Load returns Default(). Fields left empty in
// the file keep their defaults; paths get tilde expansion and are made
// absolute.
//
// Example config.toml:
//
//	api_url         = "http://127.0.0.1:4000/api"
//	page_size       = 10
//	request_timeout = "10s"
//	poll_interval   = "30s"
//	log_path        = "~/.local/state/tally/tally.log"
//	log_level       = "info"
//	metrics_bind    = "127.0.0.1:9464"
//
// page_size must be within 1..100 and log_level one of debug, info, warn or
// error. Durations use time.ParseDuration syntax. An empty metrics_bind
// disables the metrics endpoint.
package config
