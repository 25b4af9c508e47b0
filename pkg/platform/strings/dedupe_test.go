package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "repeated reason codes collapse to first occurrence",
			input:    []string{"INSUFFICIENT_EVIDENCE", "OUT_OF_TIME", "INSUFFICIENT_EVIDENCE"},
			expected: []string{"INSUFFICIENT_EVIDENCE", "OUT_OF_TIME"},
		},
		{
			name:     "padding and blanks are dropped",
			input:    []string{"  OUT_OF_TIME ", "", "   ", "OUT_OF_TIME"},
			expected: []string{"OUT_OF_TIME"},
		},
		{
			name:     "codes differing only in case stay distinct",
			input:    []string{"Out_Of_Time", "OUT_OF_TIME"},
			expected: []string{"Out_Of_Time", "OUT_OF_TIME"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
