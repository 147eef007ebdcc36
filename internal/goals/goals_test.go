package goals

import "testing"

func strPtr(s string) *string { return &s }

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusActive, true},
		{StatusCompleted, true},
		{StatusAbandoned, true},
		{"", false},
		{"paused", false},
		{"Active", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := validStatus(tt.status); got != tt.want {
				t.Errorf("validStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		progress int
		target   int
		explicit *string
		want     string
	}{
		{"active below target stays active", StatusActive, 3, 10, nil, StatusActive},
		{"active reaching target completes", StatusActive, 10, 10, nil, StatusCompleted},
		{"active past target completes", StatusActive, 12, 10, nil, StatusCompleted},
		{"explicit status wins", StatusActive, 10, 10, strPtr(StatusAbandoned), StatusAbandoned},
		{"completed stays completed", StatusCompleted, 2, 10, nil, StatusCompleted},
		{"abandoned not auto-completed", StatusAbandoned, 10, 10, nil, StatusAbandoned},
		{"explicit reactivation", StatusAbandoned, 0, 10, strPtr(StatusActive), StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextStatus(tt.current, tt.progress, tt.target, tt.explicit)
			if got != tt.want {
				t.Errorf("nextStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
