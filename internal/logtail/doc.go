// Package logtail reads and colorizes tally's own log file for the Logs view.
//
// Read returns the last N lines of a file in one sequential pass using a
// ring buffer of N entries, so memory stays proportional to N rather than the
// file size. A missing file yields no lines and no error.
//
// ParseLine understands the console format produced by internal/logging:
//
//	2025-10-08 21:01:05	INFO	sales	merged sales page	{"page": 2}
//
// ColorizeLine renders parsed lines with lipgloss styles (dim timestamp,
// bold level colored by severity, logger name in brackets, fields dimmed).
// Anything that does not parse is returned unchanged.
package logtail
