package console

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"false", false, ""},
		{"true", true, "true"},
		{"zero int", int64(0), ""},
		{"zero float", 0.0, ""},
		{"NaN", math.NaN(), ""},
		{"empty string", "", ""},
		{"string", "Ada", "Ada"},
		{"int", int64(42), "42"},
		{"uint", uint8(7), "7"},
		{"whole float", 10.0, "10"},
		{"fraction", 12.5, "12.5"},
		{"json number", json.Number("3"), "3"},
		{"json zero", json.Number("0"), ""},
		{"time", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "2026-01-02 00:00:00 +0000 UTC"},
		{"map", map[string]any{"a": 1}, `{"a":1}`},
		{"slice", []int{1, 2}, "[1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.in))
		})
	}
}
