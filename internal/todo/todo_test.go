package todo

import "testing"

func TestValidPriority(t *testing.T) {
	tests := []struct {
		priority string
		want     bool
	}{
		{PriorityLow, true},
		{PriorityMedium, true},
		{PriorityHigh, true},
		{"", false},
		{"urgent", false},
		{"LOW", false},
		{"Medium", false},
	}

	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			if got := validPriority(tt.priority); got != tt.want {
				t.Errorf("validPriority(%q) = %v, want %v", tt.priority, got, tt.want)
			}
		})
	}
}
