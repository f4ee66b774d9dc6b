package store

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short content unchanged", content: "hello", want: "hello"},
		{name: "empty content unchanged", content: "", want: ""},
		{
			name:    "ascii capped at limit",
			content: strings.Repeat("a", previewLength+50),
			want:    strings.Repeat("a", previewLength),
		},
		{
			name:    "multi-byte runes capped at limit",
			content: strings.Repeat("日", previewLength+1),
			want:    strings.Repeat("日", previewLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePreview(tt.content)
			if got != tt.want {
				t.Errorf("truncatePreview() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncatePreview() produced invalid UTF-8: %q", got)
			}
		})
	}
}
