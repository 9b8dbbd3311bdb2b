package services

import "testing"

func TestIsValidPercentage(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"85%", true},
		{" 12% ", true},
		{"\n0%\t", true},
		{"150%", true},
		{"007%", true},
		{"12.5%", false},
		{"%12", false},
		{"", false},
		{"   ", false},
		{"abc", false},
		{"%", false},
		{"12", false},
		{"-5%", false},
		{"+5%", false},
		{"12%%", false},
		{"1 2%", false},
		{"About 40%", false},
		{"40% chance", false},
		{"٣%", false},
	}

	for _, tt := range tests {
		if got := IsValidPercentage(tt.in); got != tt.want {
			t.Errorf("IsValidPercentage(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
