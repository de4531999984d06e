package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOnlyUTC(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)

	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{
			name:     "Already midnight UTC",
			in:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Afternoon drops time of day",
			in:       time.Date(2024, 3, 1, 15, 30, 10, 99, time.UTC),
			expected: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Local calendar date is kept",
			in:       time.Date(2024, 3, 1, 23, 0, 0, 0, saoPaulo),
			expected: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DateOnlyUTC(tt.in))
		})
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]string{"b", "a", "b", "c", "a"}, func(s string) string { return s })
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestFilterMap(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 })
	assert.Equal(t, []string{"2", "4"}, Map(evens, func(i int) string { return string(rune('0' + i)) }))
}

func TestFormatBoolean(t *testing.T) {
	assert.Equal(t, "yes", FormatBoolean(true, "yes", "no"))
	assert.Equal(t, "no", FormatBoolean(false, "yes", "no"))
	assert.Equal(t, 7, *Ptr(7))
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, expected int64
	}{
		{a: 95, b: 30, expected: 3},
		{a: 30, b: 30, expected: 1},
		{a: 0, b: 30, expected: 0},
		{a: -1, b: 30, expected: -1},
		{a: -30, b: 30, expected: -1},
		{a: -31, b: 30, expected: -2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FloorDiv(tt.a, tt.b), "%d / %d", tt.a, tt.b)
	}
}
