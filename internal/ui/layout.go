package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutExtraWideWidth is the threshold for extra-wide layouts.
	LayoutExtraWideWidth = 160
)

// List behavior.
const (
	// NearEndRows is how close to the last sales row the selection must be
	// before the next page is requested.
	NearEndRows = 3

	// LowStockThreshold marks products that are running out.
	LowStockThreshold = 5
)

// Log display limits.
const (
	// LogTailLimit is the number of log lines read for the Logs view.
	LogTailLimit = 2000
)

// Timing constants.
const (
	// RequestTimeout bounds a single UI-initiated backend call.
	RequestTimeout = 15 * time.Second

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
