package documents

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		contentType string
		want        string
	}{
		{"plain text", "hello world", "text/plain", "hello world"},
		{"plain text with charset", "hello", "text/plain; charset=utf-8", "hello"},
		{"markdown", "# Title\n\nBody", "text/markdown", "# Title\n\nBody"},
		{"json", `{"a":1}`, "application/json", `{"a":1}`},
		{"csv", "a,b\n1,2", "text/csv", "a,b\n1,2"},
		{"empty content type", "raw bytes", "", "raw bytes"},
		{"surrounding whitespace trimmed", "  text  \n", "text/plain", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.data), tt.contentType)
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextHTML(t *testing.T) {
	html := `<html><head><title>t</title><style>body{color:red}</style></head>
<body><h1>Heading</h1><p>First paragraph.</p><script>alert(1)</script></body></html>`

	got, err := ExtractText([]byte(html), "text/html")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	if !strings.Contains(got, "Heading") || !strings.Contains(got, "First paragraph.") {
		t.Errorf("ExtractText() = %q, missing visible text", got)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("ExtractText() = %q, script content leaked through", got)
	}
	if strings.Contains(got, "color:red") {
		t.Errorf("ExtractText() = %q, style content leaked through", got)
	}
}

func TestExtractTextHTMLFragment(t *testing.T) {
	got, err := ExtractText([]byte("<p>just a fragment</p>"), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if !strings.Contains(got, "just a fragment") {
		t.Errorf("ExtractText() = %q, want fragment text", got)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	for _, ct := range []string{"application/pdf", "image/png", "application/zip"} {
		if _, err := ExtractText([]byte{0x25, 0x50}, ct); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("ExtractText(%q) error = %v, want ErrUnsupportedType", ct, err)
		}
	}
}
