package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	warningStyle = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed)
	successStyle = color.New(color.FgGreen)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warningStyle.Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return errorStyle.Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return successStyle.Sprintf("✅ %s", message)
}

// StateLabel returns a human-readable, colored label for a component state
func StateLabel(state domain.ComponentState) string {
	label := cases.Title(language.English).String(strings.ToLower(string(state)))
	switch state {
	case domain.StateComplete:
		return successStyle.Sprint(label)
	case domain.StateFailed:
		return errorStyle.Sprint(label)
	case domain.StateDeployed:
		return color.New(color.FgCyan).Sprint(label)
	default:
		return warningStyle.Sprint(label)
	}
}
