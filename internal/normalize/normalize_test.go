package normalize

import (
	"strings"
	"testing"
)

func TestTruncatePreview(t *testing.T) {
	input := "Это очень длинный текст который должен быть обрезан по лимиту символов"
	result := TruncatePreview(input, 30)

	if len([]rune(result)) > 31 {
		t.Errorf("TruncatePreview result too long: %d > 31", len([]rune(result)))
	}

	if !strings.HasSuffix(result, "…") {
		t.Errorf("TruncatePreview should end with …")
	}

	if got := TruncatePreview("short", 30); got != "short" {
		t.Errorf("TruncatePreview(short) = %q", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		n        *Normalizer
		input    string
		expected string
	}{
		{"nbsp and spaces", NewNormalizer(true, true), "  Text\u00A0\u00A0with \n\t NBSP  ", "Text with NBSP"},
		{"keep nbsp", NewNormalizer(false, false), "a\u00A0b", "a\u00A0b"},
		{"only trim", NewNormalizer(false, false), "  a   b  ", "a   b"},
	}

	for _, tt := range tests {
		if got := tt.n.CleanText(tt.input); got != tt.expected {
			t.Errorf("%s: CleanText(%q) = %q, want %q", tt.name, tt.input, got, tt.expected)
		}
	}
}
