package service

import (
	"regexp"
	"strconv"
	"strings"
)

var percentPattern = regexp.MustCompile(`(\d{1,3})\s*%`)

// EstimateProgress derives a completion percentage from free-form update
// text. An explicit "NN%" wins; otherwise stage keywords map to coarse
// figures. The estimate never moves backwards and snaps to 5-point steps.
func EstimateProgress(text string, current int) int {
	lower := strings.ToLower(text)

	percent := -1
	if m := percentPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v >= 0 && v <= 100 {
			percent = v
		}
	}

	if percent < 0 {
		switch {
		// More specific phrases first: "almost done" and "half done"
		// both contain "done".
		case strings.Contains(lower, "almost done") || strings.Contains(lower, "final stage") ||
			strings.Contains(lower, "finishing"):
			percent = 85
		case strings.Contains(lower, "halfway") || strings.Contains(lower, "half way") ||
			strings.Contains(lower, "half done"):
			percent = 50
		case strings.Contains(lower, "completed") || strings.Contains(lower, "complete") ||
			strings.Contains(lower, "finished") || strings.Contains(lower, "done"):
			percent = 95
		case strings.Contains(lower, "started") || strings.Contains(lower, "beginning") ||
			strings.Contains(lower, "site visit") || strings.Contains(lower, "inspect"):
			percent = 15
		default:
			// Any substantive update is worth a small bump.
			percent = current + 5
		}
	}

	if percent < current {
		percent = current
	}
	if percent > 100 {
		percent = 100
	}

	// Snap to 5-point steps, with a floor so the bar visibly moves.
	percent = (percent / 5) * 5
	if percent < 5 {
		percent = 5
	}
	return percent
}
