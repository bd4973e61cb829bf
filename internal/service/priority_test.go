package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

func TestEstimatePriority(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		category    string
		want        model.Priority
	}{
		{
			"fire category is critical",
			"Building fire downtown", "Smoke everywhere, flames on the second floor", "fire",
			model.PriorityCritical,
		},
		{
			"casualty count escalates",
			"Building collapse", "7 dead after the east wing came down", "disaster",
			model.PriorityCritical,
		},
		{
			"crash is high",
			"Car crash near school", "Two riders injured, road partly blocked", "traffic",
			model.PriorityHigh,
		},
		{
			"pothole is medium",
			"Large pothole", "Big pothole near the market entrance", "road",
			model.PriorityMedium,
		},
		{
			"cosmetic report is low",
			"Graffiti on park wall", "Cosmetic damage only", "maintenance",
			model.PriorityLow,
		},
		{
			"no injury wording pulls down",
			"Small scrape on railing", "Paint chipped, no injury", "maintenance",
			model.PriorityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimatePriority(tt.title, tt.description, tt.category, ""))
		})
	}
}
