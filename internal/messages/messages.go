package messages

import (
	"fmt"

	"github.com/veyra-labs/dpscan/internal/detect"
)

// PatternDetail carries the human-facing description of one pattern type.
type PatternDetail struct {
	Title       string
	Description string
	Suggestion  string
}

var patternMessages = map[detect.PatternType]PatternDetail{
	detect.PatternConfirmshaming: {
		Title:       "Confirmshaming",
		Description: "The decline option is worded to make the user feel guilty or foolish for refusing an offer.",
		Suggestion:  "Use neutral language for decline options. Users should never be shamed for saying no.",
	},
	detect.PatternPreselection: {
		Title:       "Preselected Options",
		Description: "Options that benefit the site operator, such as marketing consent or paid add-ons, are checked by default.",
		Suggestion:  "Options involving extra costs or data sharing must start unchecked so users opt in actively.",
	},
	detect.PatternHiddenCosts: {
		Title:       "Hidden Costs",
		Description: "Fees, surcharges, or a higher total only become visible near the end of the checkout flow.",
		Suggestion:  "Show the full cost from the start of the process. Avoid surprise charges in the final steps.",
	},
	detect.PatternDifficultCancellation: {
		Title:       "Difficult Cancellation",
		Description: "Subscribing takes one click while cancelling requires phone calls, support contact, or a buried flow.",
		Suggestion:  "Make cancellation as simple as subscription and link to it directly from account settings.",
	},
	detect.PatternMisleadingAds: {
		Title:       "Misleading Ads",
		Description: "Advertisements are styled to look like native interface controls or lack a visible sponsored label.",
		Suggestion:  "Distinguish ads clearly from organic content and never style them as site functionality.",
	},
	detect.PatternFalseUrgency: {
		Title:       "False Urgency",
		Description: "Countdown timers or scarcity claims that appear fabricated pressure the user into rushing a decision.",
		Suggestion:  "Show urgency indicators only when they reflect real availability or deadlines.",
	},
	detect.PatternConfusingInterface: {
		Title:       "Confusing Interface",
		Description: "Paired accept and reject actions carry deliberately asymmetric visual emphasis or swapped color conventions.",
		Suggestion:  "Give primary and secondary actions a clear, honest visual hierarchy with consistent color semantics.",
	},
}

// GetPattern returns the catalog entry for a pattern type.
func GetPattern(t detect.PatternType) PatternDetail {
	if d, ok := patternMessages[t]; ok {
		return d
	}
	return PatternDetail{
		Title:       string(t),
		Description: fmt.Sprintf("No description registered for pattern %q.", t),
		Suggestion:  "Review the design to ensure it respects user autonomy and gives clear, honest information.",
	}
}

var uiMessages = map[string]string{
	"Target":                 "Target: %s",
	"BatchTarget":            "Batch: %d URLs from %s",
	"ModeHeadless":           "Mode: Headless browser",
	"ModeVisible":            "Mode: Visible browser",
	"StatusReady":            "Status: Ready",
	"VisibleBrowserWarning":  "[!] A visible browser window will open for every page analyzed.",
	"VisibleBrowserPrompt":   "Do you want to continue?",
	"VisibleBrowserAborted":  "Scan aborted by user.",
	"ScanCancelled":          "Scan cancelled.",
	"ScanPartialResults":     "Reporting %d of %d targets analyzed before cancellation.",
	"AllScansCompleted":      "All pages analyzed.",
	"ScanFailed":             "Analysis failed (%s): %v",
	"FetchFailed":            "Fetch failed (%s): %v",
	"DiscoveredPages":        "Link discovery: %d additional pages in scope",
	"ConsoleNoDetections":    "[OK] No dark patterns detected",
	"ConsoleDetectionsTitle": "--- Detections ---",
	"ConsoleSummaryTitle":    "--- Detector Summary ---",
	"ConsoleEvidenceLabel":   "Evidence",
	"ConsoleSuggestionLabel": "Suggestion",
	"ConsoleConfidenceLabel": "Confidence",
	"ConsoleSeverityLabel":   "Severity",
	"ConsoleFailedSites":     "Failed sites: %d of %d",
	"TaskSummary":            "Tasks: %d completed, %d failed, %d not started",
	"PatternStatusFound":     "Found",
	"PatternStatusNotFound":  "Not Found",
	"ReportSaved":            "%s report saved: %s",
	"ReportFailed":           "Failed to save %s report: %v",
	"ReportsStored":          "Reports stored in database: %s",
	"StoreFailed":            "Failed to store reports: %v",
	"InteractiveWelcome":     "Welcome to dpscan interactive mode. Type 'help' for commands.",
	"InteractiveExit":        "Exiting.",
	"InteractiveHelp":        "Available commands:",
	"InteractiveErrorTarget": "Error: target URL required. Usage: %s <url>",
	"InteractiveScanFailed":  "Error running scan: %v",
	"InteractiveUnknown":     "Unknown command: %s",
	"RecentNoDatabase":       "No database configured. Start with --db or set database in the policy file.",
	"RecentEmpty":            "No stored reports.",
}

// GetUIMessage formats a console string from the catalog; unknown ids come
// back verbatim so a missing entry is visible instead of silent.
func GetUIMessage(id string, args ...interface{}) string {
	format, ok := uiMessages[id]
	if !ok || format == "" {
		return id
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
