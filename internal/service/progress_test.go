package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateProgress(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		current int
		want    int
	}{
		{"explicit percent wins", "poured concrete, roughly 40% done", 10, 40},
		{"explicit percent snaps to step", "about 42% through the repair", 10, 40},
		{"out of range percent ignored", "we are 150% sure it will hold", 20, 25},
		{"half done beats done", "left side half done", 20, 50},
		{"completed keyword", "work completed, site cleaned up", 60, 95},
		{"almost done keyword", "almost done, final coat drying", 60, 85},
		{"halfway keyword", "halfway through the trench", 20, 50},
		{"started keyword", "started clearing the debris", 0, 15},
		{"site visit counts as started", "site visit scheduled for tomorrow", 0, 15},
		{"default nudges forward", "still waiting on parts", 40, 45},
		{"never moves backwards", "started again after the rain", 70, 70},
		{"floor of five", "checking the report", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateProgress(tt.text, tt.current))
		})
	}
}
