package util

import (
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"Zero bytes", 0, "0 B"},
		{"Small bytes", 512, "512 B"},
		{"Max bytes", 1023, "1023 B"},
		{"Exact 1 KB", 1024, "1 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"1.25 KB", 1280, "1.25 KB"},
		{"Max KB", 1048575, "1023.999 KB"},
		{"Exact 1 MB", 1048576, "1 MB"},
		{"100 MB", 104857600, "100 MB"},
		{"1.5 GB", 1610612736, "1.5 GB"},
		{"Exact 1 TB", 1099511627776, "1 TB"},
		{"Max int64", 9223372036854775807, "8191.999 PB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.size); got != tt.expected {
				t.Errorf("FormatSize(%d) = %s, expected %s", tt.size, got, tt.expected)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		str      string
		width    int
		expected string
	}{
		{"Empty string", "", 5, "     "},
		{"Short string", "abc", 10, "abc       "},
		{"Exact width", "hello", 5, "hello"},
		{"Too long", "this is a very long string", 10, "this is..."},
		{"Wide characters", "你好", 8, "你好    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadRight(tt.str, tt.width); got != tt.expected {
				t.Errorf("PadRight(%q, %d) = %q, expected %q", tt.str, tt.width, got, tt.expected)
			}
		})
	}
}
