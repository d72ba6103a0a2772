package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12000", 12000},
		{" 8500 ", 8500},
		{"12,000원", 12000},
		{"15.7", 15},
		{"+42", 42},
		{"", 0},
		{"abc", 0},
		{"-300", 0},
		{"99999999999999999999", 0},
		{"１２", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseAmount(tt.in); got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
