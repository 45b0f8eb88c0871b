package stringutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "shorter than limit", input: "abc", max: 10, want: "abc"},
		{name: "exactly at limit", input: "abcde", max: 5, want: "abcde"},
		{name: "over limit", input: "abcdef", max: 3, want: "abc..."},
		{name: "zero means no limit", input: "abcdef", max: 0, want: "abcdef"},
		{name: "negative means no limit", input: "abcdef", max: -1, want: "abcdef"},
		{name: "empty string", input: "", max: 3, want: ""},
		{name: "multibyte runes kept whole", input: "héllo wörld", max: 4, want: "héll..."},
		{name: "cut inside multibyte run", input: "日本語テキスト", max: 2, want: "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.input, tt.max)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		max   int
		want  string
	}{
		{name: "string passes through", input: "hello", max: 20, want: "hello"},
		{name: "int rendered", input: 42, max: 20, want: "42"},
		{name: "float rendered", input: 3.5, max: 20, want: "3.5"},
		{name: "nil rendered", input: nil, max: 20, want: "<nil>"},
		{name: "slice rendered", input: []string{"a", "b"}, max: 20, want: "[a b]"},
		{name: "long value truncated", input: strings.Repeat("x", 500), max: 8, want: "xxxxxxxx..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("FormatValue(%v, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
