package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintResult(t *testing.T) {
	defer func(prev string) { outputFormat = prev }(outputFormat)
	v := map[string]any{"id": 7, "keywords": []string{"crash"}}

	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"id\": 7,\n  \"keywords\": [\n    \"crash\"\n  ]\n}\n"},
		{"yaml", "id: 7\nkeywords:\n  - crash\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			var buf bytes.Buffer
			require.NoError(t, printResult(&buf, v))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	outputFormat = "xml"
	assert.ErrorContains(t, printResult(&bytes.Buffer{}, v), "unknown output format")
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in    string
		field string
		value any
	}{
		{"status=RESOLVED", "status", "RESOLVED"},
		{"depends_on=12", "depends_on", int64(12)},
		{"is_private=true", "is_private", true},
		{"whiteboard=a=b", "whiteboard", "a=b"},
	}
	for _, tt := range tests {
		field, value, err := parseAssignment(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.field, field)
		assert.Equal(t, tt.value, value)
	}

	_, _, err := parseAssignment("status")
	assert.Error(t, err)
	_, _, err = parseAssignment("=x")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("1017315")
	require.NoError(t, err)
	assert.Equal(t, int64(1017315), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
