package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims and lowercases",
			input:    "  Phantom Of The Opera  ",
			expected: "phantomoftheopera",
		},
		{
			name:     "folds full-width characters",
			input:    "ＡＢＣ１２３",
			expected: "abc123",
		},
		{
			name:     "drops middle dot and spaces in CJK titles",
			input:    "极限密室·魔都2",
			expected: "极限密室魔都2",
		},
		{
			name:     "space variant folds to the same key",
			input:    "极限密室 魔都2",
			expected: "极限密室魔都2",
		},
		{
			name:     "punctuation removed",
			input:    "don't-stop! (live)",
			expected: "dontstoplive",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestStripBrackets(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "CJK brackets removed",
			input:    "【上海】阿波罗尼亚",
			expected: "阿波罗尼亚",
		},
		{
			name:     "ascii parens removed",
			input:    "Apollonia (Shanghai Run)",
			expected: "Apollonia",
		},
		{
			name:     "multiple segments removed",
			input:    "【首演】连璧（武汉）",
			expected: "连璧",
		},
		{
			name:     "unbalanced opener dropped",
			input:    "连璧（武汉",
			expected: "连璧武汉",
		},
		{
			name:     "no brackets unchanged",
			input:    "连璧",
			expected: "连璧",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripBrackets(tt.input))
		})
	}
}

func TestTitle(t *testing.T) {
	// Bracketed run metadata must not influence the resolution key.
	assert.Equal(t, Title("【上海】极限密室·魔都2"), Title("极限密室 魔都2"))
	assert.NotEqual(t, Title("极限密室"), Title("极限密室2"))
}
