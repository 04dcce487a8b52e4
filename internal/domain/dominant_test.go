package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDominantComponents(t *testing.T) {
	tests := []struct {
		name     string
		shares   []ComponentShare
		expected []string
	}{
		{
			name: "single dominant",
			shares: []ComponentShare{
				{CoKey: "101", Pct: ptr(70)},
				{CoKey: "102", Pct: ptr(30)},
			},
			expected: []string{"101"},
		},
		{
			name: "tie returns both",
			shares: []ComponentShare{
				{CoKey: "201", Pct: ptr(45)},
				{CoKey: "202", Pct: ptr(45)},
				{CoKey: "203", Pct: ptr(10)},
			},
			expected: []string{"201", "202"},
		},
		{
			name: "fractional percentages compare as whole numbers",
			shares: []ComponentShare{
				{CoKey: "301", Pct: ptr(45.2)},
				{CoKey: "302", Pct: ptr(45.9)},
			},
			expected: []string{"301", "302"},
		},
		{
			name: "null percent counts as zero",
			shares: []ComponentShare{
				{CoKey: "401"},
				{CoKey: "402", Pct: ptr(15)},
			},
			expected: []string{"402"},
		},
		{
			name:     "no components",
			shares:   nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DominantComponents(tt.shares))
		})
	}
}
