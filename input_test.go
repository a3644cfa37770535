package main_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crabcups "gregoryjjb/crabcups"
	"gregoryjjb/crabcups/cups"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []cups.Label
	}{
		{"Digits", "389125467", []cups.Label{3, 8, 9, 1, 2, 5, 4, 6, 7}},
		{"TrailingNewline", "389125467\n", []cups.Label{3, 8, 9, 1, 2, 5, 4, 6, 7}},
		{"LeadingBlankLines", "\n  \n3891\nignored", []cups.Label{3, 8, 9, 1}},
		{"CommaSeparated", "3, 8, 10, 1", []cups.Label{3, 8, 10, 1}},
		{"SpaceSeparated", "12 1\t2", []cups.Label{12, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crabcups.ParseLabels(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLabelsErrors(t *testing.T) {
	for _, in := range []string{"", "  \n\n", "38x1", "3, -1", "3,,x"} {
		_, err := crabcups.ParseLabels(in)
		assert.ErrorIs(t, err, crabcups.ErrValidation, "input %q", in)
	}
}
