package utils

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"Int", 42, 42, true},
		{"Uint8", uint8(7), 7, true},
		{"IntegralFloat", float64(1017315), 1017315, true},
		{"FractionalFloat", 1.5, 0, false},
		{"JSONNumber", json.Number("8842942"), 8842942, true},
		{"String", "123", 123, true},
		{"BadString", "abc", 0, false},
		{"Nil", nil, 0, false},
		{"MaxUint64", uint64(math.MaxUint64), 0, false},
		{"AboveInt64", uint64(math.MaxInt64) + 1, 0, false},
		{"Uint", uint(9), 9, true},
		{"MaxInt64AsUint", uint64(math.MaxInt64), math.MaxInt64, true},
		{"HugeFloat", 1e19, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(3), Normalize(3))
	assert.Equal(t, int64(3), Normalize(float64(3)))
	assert.Equal(t, 2.5, Normalize(2.5))
	assert.Equal(t, float64(math.MaxUint64), Normalize(uint64(math.MaxUint64)))
	assert.Equal(t, int64(654321), Normalize(json.Number("654321")))
	assert.Equal(t, []any{"a", "b"}, Normalize([]string{"a", "b"}))
	assert.Equal(t, []any{int64(1), int64(2)}, Normalize([]int{1, 2}))
	assert.Equal(t,
		map[string]any{"ids": []any{int64(1)}, "name": "x"},
		Normalize(map[string]any{"ids": []any{json.Number("1")}, "name": "x"}),
	)

	loc := time.FixedZone("X", 3600)
	ts := time.Date(2014, 5, 28, 23, 57, 58, 0, loc)
	assert.Equal(t, time.UTC, Normalize(ts).(time.Time).Location())
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "12", ToString(int64(12)))
	assert.Equal(t, "2014-05-28T23:57:58Z", ToString(time.Date(2014, 5, 28, 23, 57, 58, 0, time.UTC)))
}
