package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRating(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  bool
	}{
		{"lower bound", 1, true},
		{"upper bound", 5, true},
		{"middle", 3, true},
		{"zero", 0, false},
		{"above range", 6, false},
		{"negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidRating(tt.score))
		})
	}
}

func TestAverageRating(t *testing.T) {
	t.Run("empty set is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageRating(nil))
		assert.Equal(t, 0.0, AverageRating([]Rating{}))
	})

	t.Run("single rating", func(t *testing.T) {
		avg := AverageRating([]Rating{{Rating: 4}})
		assert.Equal(t, 4.0, avg)
	})

	t.Run("exact mean", func(t *testing.T) {
		avg := AverageRating([]Rating{{Rating: 5}, {Rating: 4}, {Rating: 3}})
		assert.Equal(t, 4.0, avg)
	})

	t.Run("fractional mean", func(t *testing.T) {
		avg := AverageRating([]Rating{{Rating: 5}, {Rating: 4}})
		assert.Equal(t, 4.5, avg)
	})
}

func TestProjectedAverage(t *testing.T) {
	t.Run("first rating", func(t *testing.T) {
		assert.Equal(t, 5.0, ProjectedAverage(0, 0, 5))
	})

	t.Run("combines snapshot with new score", func(t *testing.T) {
		// Existing: 4 and 2 (sum 6, count 2); new 3 -> (6+3)/3 = 3.
		assert.Equal(t, 3.0, ProjectedAverage(6, 2, 3))
	})

	t.Run("fractional result", func(t *testing.T) {
		assert.Equal(t, 4.5, ProjectedAverage(5, 1, 4))
	})
}
