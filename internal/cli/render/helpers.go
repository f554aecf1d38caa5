package render

import (
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Extract just the error message part (after the last colon if it's an error chain)
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatStatus turns AWAITING_EXECUTION into "Awaiting Execution"
func FormatStatus(status string) string {
	words := strings.ReplaceAll(strings.ToLower(status), "_", " ")
	return cases.Title(language.English).String(words)
}

// statusColor picks the color of a lifecycle or queue status
func statusColor(status string) *color.Color {
	switch status {
	case "MINED", "SUCCESS", "AWAITING_EXECUTION":
		return color.New(color.FgGreen)
	case "REVERTED", "FAILED", "CANCELLED":
		return color.New(color.FgRed)
	case "MINING", "SUBMITTING", "INDEXING", "EXECUTING":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// shortHash keeps the first and last four bytes of a hex string
func shortHash(hex string) string {
	if len(hex) <= 18 {
		return hex
	}
	return hex[:10] + "…" + hex[len(hex)-8:]
}
