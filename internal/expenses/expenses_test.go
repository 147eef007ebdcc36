package expenses

import (
	"errors"
	"testing"
	"time"
)

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{"valid", Input{Amount: 12.50, Category: "food"}, nil},
		{"zero amount", Input{Amount: 0, Category: "food"}, ErrInvalidAmount},
		{"negative amount", Input{Amount: -3, Category: "food"}, ErrInvalidAmount},
		{"empty category", Input{Amount: 5, Category: "  "}, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInputValidateNormalizesCategory(t *testing.T) {
	in := Input{Amount: 5, Category: "  Food  "}
	if err := in.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if in.Category != "food" {
		t.Errorf("category = %q, want lowercase trimmed", in.Category)
	}
}

func TestInputValidateDefaultsSpentAt(t *testing.T) {
	in := Input{Amount: 5, Category: "food"}
	if err := in.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if in.SpentAt.IsZero() {
		t.Error("SpentAt is zero, want defaulted to now")
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := monthRange("2026-03")
	if err != nil {
		t.Fatalf("monthRange() error = %v", err)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestMonthRangeDecemberWraps(t *testing.T) {
	_, end, err := monthRange("2026-12")
	if err != nil {
		t.Fatalf("monthRange() error = %v", err)
	}
	if want := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestMonthRangeInvalid(t *testing.T) {
	for _, month := range []string{"", "2026", "2026-13", "03-2026", "march"} {
		if _, _, err := monthRange(month); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("monthRange(%q) error = %v, want ErrInvalidMonth", month, err)
		}
	}
}
