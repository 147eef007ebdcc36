package documents

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedType is returned when an upload's content type cannot
// be converted to plain text.
var ErrUnsupportedType = errors.New("documents: unsupported content type")

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractText converts an uploaded file's bytes into plain text for
// indexing. Plain text and markdown pass through unchanged; HTML is
// stripped to its visible text.
func ExtractText(data []byte, contentType string) (string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case mediaType == "" || strings.HasPrefix(mediaType, "text/plain"),
		mediaType == "text/markdown",
		mediaType == "application/json",
		mediaType == "text/csv":
		return strings.TrimSpace(string(data)), nil

	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return extractHTML(data)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
	})

	text := b.String()
	if text == "" {
		// Fragments without a body element still carry text.
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.TrimSpace(strings.Join(lines, "\n"))
	return blankLines.ReplaceAllString(text, "\n\n"), nil
}
