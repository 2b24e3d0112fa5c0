package exporter

import (
	"fmt"
	"math"
	"time"
)

// formatFloat formats a measure for CSV output. Null measures (NaN) become
// empty cells, matching how the downstream ingestion treats missing values.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return fmt.Sprintf("%.6f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// formatDate formats a calendar date for CSV output
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatTimestamp formats an acquisition timestamp for CSV output
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
