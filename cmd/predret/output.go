package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

const (
	// progressBarWidth is the width in characters for terminal progress display.
	progressBarWidth = 30
	// progressLineClearWidth is the width needed to clear the entire progress line,
	// including counts, percentage, and the ETA suffix.
	progressLineClearWidth = 70
)

// buildProgressBar creates a progress bar string of the given width.
// Returns a string like "[=====>    ]" showing progress.
func buildProgressBar(current, total, width int) string {
	if total == 0 {
		return strings.Repeat(" ", width)
	}
	filled := (width * current) / total
	if filled >= width {
		return strings.Repeat("=", width)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", width-filled-1)
}

// printProgress prints a progress bar with ETA to stderr.
func printProgress(done, total int, elapsed, eta time.Duration) {
	if total == 0 {
		return
	}
	pct := float64(done) / float64(total) * 100
	bar := buildProgressBar(done, total, progressBarWidth)
	if eta > 0 {
		fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%) ETA %s", bar, done, total, pct, formatDuration(eta))
	} else {
		fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%)", bar, done, total, pct)
	}
}

// clearProgressLine erases the progress bar before final output.
func clearProgressLine() {
	fmt.Fprintf(os.Stderr, "\r%*s\r", progressLineClearWidth, "")
}
