package conv

import (
	"strings"
	"testing"
)

func TestHTMLToPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{
			name:     "empty input",
			input:    "",
			contains: "",
		},
		{
			name:     "plain text untouched",
			input:    "Revenue was $500",
			contains: "Revenue was $500",
		},
		{
			name:     "paragraph flattened",
			input:    "<p>Premium leather wallet</p>",
			contains: "Premium leather wallet",
		},
		{
			name:     "script stripped",
			input:    "<p>Wallet</p><script>alert(1)</script>",
			contains: "Wallet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTMLToPlainText(tt.input)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected output to contain %q, got %q", tt.contains, got)
			}
		})
	}
}

func TestHTMLToPlainText_NoScriptLeak(t *testing.T) {
	got := HTMLToPlainText("<p>ok</p><script>alert(1)</script>")
	if strings.Contains(got, "alert") {
		t.Errorf("script content leaked into output: %q", got)
	}
}
