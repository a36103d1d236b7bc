// Package colors provides terminal color support for arbor output.
//
// This package provides:
// - ANSI color codes for terminal output
// - Helpers to color item ids, labels and history markers
// - Automatic color detection and fallback for non-color terminals
package colors

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorGray = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
	BrightCyan   = "\033[96m"
)

// colorEnabled determines if color output should be used
var colorEnabled = shouldUseColor()

// shouldUseColor determines if the terminal supports colors
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if t := strings.ToLower(os.Getenv("TERM")); t == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns whether colors are currently enabled
func IsColorEnabled() bool {
	return colorEnabled
}

// colorize applies color to text if colors are enabled
func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + ColorReset
}

// Tree output
func ItemID(text string) string {
	return colorize(text, ColorGray)
}

func Label(text string) string {
	return Bold(text)
}

func Current(text string) string {
	return colorize(text, BrightGreen)
}

func Undone(text string) string {
	return colorize(text, BrightYellow)
}

// Generic color functions
func Red(text string) string {
	return colorize(text, BrightRed)
}

func Green(text string) string {
	return colorize(text, BrightGreen)
}

func Blue(text string) string {
	return colorize(text, BrightBlue)
}

func Yellow(text string) string {
	return colorize(text, BrightYellow)
}

func Cyan(text string) string {
	return colorize(text, BrightCyan)
}

func Gray(text string) string {
	return colorize(text, ColorGray)
}

func Bold(text string) string {
	return colorize(text, ColorBold)
}

func Dim(text string) string {
	return colorize(text, ColorDim)
}

// Section headers with colors
func SectionHeader(text string) string {
	return Bold(text)
}

func ErrorText(text string) string {
	return Red(text)
}

func SuccessText(text string) string {
	return Green(text)
}

func InfoText(text string) string {
	return Cyan(text)
}

func WarningText(text string) string {
	return Yellow(text)
}
