package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMs(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"seconds as int64", int64(1700000000), 1700000000000},
		{"milliseconds as int64", int64(1700000000000), 1700000000000},
		{"seconds as float64", float64(1700000000), 1700000000000},
		{"seconds as string", "1700000000", 1700000000000},
		{"milliseconds as string", "1700000000000", 1700000000000},
		{"zero", int64(0), 0},
		{"negative", int64(-5), 0},
		{"nil", nil, 0},
		{"garbage string", "not a number", 0},
		{"empty string", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMs(tt.in))
		})
	}
}

func TestToMs_ThresholdBoundary(t *testing.T) {
	// Just below the threshold is treated as seconds, at or above as
	// milliseconds.
	assert.Equal(t, (millisecondThreshold-1)*1000, ToMs(millisecondThreshold-1))
	assert.Equal(t, millisecondThreshold, ToMs(millisecondThreshold))
}
