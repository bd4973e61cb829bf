package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

// urgencyOrder breaks score ties toward the more urgent level.
var urgencyOrder = []model.Priority{
	model.PriorityLow,
	model.PriorityMedium,
	model.PriorityHigh,
	model.PriorityCritical,
}

var categoryHints = map[string]map[model.Priority]float64{
	"fire":        {model.PriorityCritical: 3.5, model.PriorityHigh: 1.8},
	"emergency":   {model.PriorityCritical: 3.2, model.PriorityHigh: 1.7},
	"crime":       {model.PriorityCritical: 2.4, model.PriorityHigh: 2.0},
	"medical":     {model.PriorityCritical: 2.8, model.PriorityHigh: 1.8},
	"disaster":    {model.PriorityCritical: 3.3, model.PriorityHigh: 1.8},
	"traffic":     {model.PriorityHigh: 1.4, model.PriorityMedium: 1.0},
	"road":        {model.PriorityHigh: 1.2, model.PriorityMedium: 1.0},
	"electricity": {model.PriorityHigh: 1.5, model.PriorityMedium: 1.0},
	"water":       {model.PriorityHigh: 1.3, model.PriorityMedium: 1.2},
	"sanitation":  {model.PriorityMedium: 1.1, model.PriorityLow: 1.0},
	"waste":       {model.PriorityMedium: 1.1, model.PriorityLow: 1.0},
	"maintenance": {model.PriorityMedium: 1.0, model.PriorityLow: 1.1},
}

var keywordHints = map[model.Priority]map[string]float64{
	model.PriorityCritical: {
		"fire":             3.5,
		"building fire":    3.7,
		"house fire":       3.5,
		"people trapped":   3.2,
		"explosion":        3.1,
		"gas leak":         3.0,
		"electrocution":    3.0,
		"collapse":         3.1,
		"not breathing":    3.2,
		"unconscious":      3.0,
		"trapped":          3.0,
		"dead":             3.1,
		"death":            3.1,
		"shooting":         3.1,
		"stabbing":         2.8,
		"chemical spill":   3.1,
		"critical":         2.4,
		"severe injury":    3.0,
		"immediate danger": 3.1,
		"life threatening": 3.2,
		"mass casualty":    3.2,
	},
	model.PriorityHigh: {
		"accident":     1.9,
		"crash":        2.0,
		"injured":      2.0,
		"injury":       1.8,
		"assault":      2.0,
		"robbery":      1.9,
		"road blocked": 1.7,
		"power outage": 1.8,
		"smoke":        1.8,
		"flooding":     1.9,
		"urgent":       1.8,
		"emergency":    2.0,
		"dangerous":    1.7,
	},
	model.PriorityMedium: {
		"pothole":        2.1,
		"large pothole":  2.3,
		"streetlight":    1.6,
		"traffic signal": 1.7,
		"drainage":       1.6,
		"leak":           1.5,
		"overflow":       1.7,
		"garbage":        1.8,
		"blocked drain":  1.9,
		"water logging":  1.8,
		"broken":         1.4,
		"damaged":        1.4,
	},
	model.PriorityLow: {
		"graffiti":   1.9,
		"litter":     1.7,
		"minor":      1.7,
		"small":      1.4,
		"cosmetic":   1.8,
		"routine":    1.7,
		"non urgent": 2.0,
		"suggestion": 1.6,
	},
}

var casualtyPattern = regexp.MustCompile(`\b(\d+)\s+(dead|injured|people|victims?)\b`)

// EstimatePriority scores a citizen report against category and keyword
// hints and returns the level with the highest score. Casualty counts push
// the score up sharply; explicit "no injury" wording pulls it down.
func EstimatePriority(title, description, category, location string) model.Priority {
	blob := strings.ToLower(strings.Join([]string{title, description, category, location}, " "))
	categoryValue := strings.ToLower(category)

	scores := map[model.Priority]float64{
		model.PriorityLow:      0.25,
		model.PriorityMedium:   0.25,
		model.PriorityHigh:     0.25,
		model.PriorityCritical: 0.25,
	}

	for token, boosts := range categoryHints {
		if strings.Contains(categoryValue, token) {
			for priority, boost := range boosts {
				scores[priority] += boost
			}
		}
	}
	for _, token := range []string{"fire", "emergency", "disaster"} {
		if strings.Contains(categoryValue, token) {
			scores[model.PriorityCritical] += 2.5
			scores[model.PriorityHigh] = max0(scores[model.PriorityHigh] - 0.5)
			break
		}
	}

	for priority, terms := range keywordHints {
		for term, weight := range terms {
			if strings.Contains(blob, term) {
				scores[priority] += weight
			}
		}
	}

	if m := casualtyPattern.FindStringSubmatch(blob); m != nil {
		count, _ := strconv.Atoi(m[1])
		switch {
		case count >= 5:
			scores[model.PriorityCritical] += 3.0
			scores[model.PriorityHigh] += 1.5
		case count >= 3:
			scores[model.PriorityCritical] += 2.5
			scores[model.PriorityHigh] += 1.2
		case count >= 1:
			scores[model.PriorityHigh] += 1.5
			scores[model.PriorityCritical] += 0.5
		}
	}

	if strings.Contains(blob, "no injury") || strings.Contains(blob, "minor issue") {
		scores[model.PriorityCritical] = max0(scores[model.PriorityCritical] - 1.2)
		scores[model.PriorityHigh] = max0(scores[model.PriorityHigh] - 0.8)
		scores[model.PriorityLow] += 0.8
	}

	best := model.PriorityLow
	for _, priority := range urgencyOrder {
		if scores[priority] >= scores[best] {
			best = priority
		}
	}
	return best
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
