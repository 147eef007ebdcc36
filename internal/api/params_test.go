package api

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		def   int
		max   int
		want  int
	}{
		{"absent uses default", "", 50, 200, 50},
		{"valid value", "limit=25", 50, 200, 25},
		{"zero allowed", "limit=0", 50, 200, 0},
		{"clamped to max", "limit=999", 50, 200, 200},
		{"negative uses default", "limit=-3", 50, 200, 50},
		{"garbage uses default", "limit=abc", 50, 200, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			if got := parseIntParam(r, "limit", tt.def, tt.max); got != tt.want {
				t.Errorf("parseIntParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest("GET", "/api/v1/todos/"+id.String(), nil)
	r.SetPathValue("id", id.String())

	got, err := pathID(r)
	if err != nil {
		t.Fatalf("pathID() error = %v", err)
	}
	if got != id {
		t.Errorf("pathID() = %s, want %s", got, id)
	}
}

func TestPathIDInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/todos/nope", nil)
	r.SetPathValue("id", "nope")

	if _, err := pathID(r); err == nil {
		t.Error("pathID() error = nil, want parse failure")
	}
}
