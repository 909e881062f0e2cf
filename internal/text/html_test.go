package text

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseHTML(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractTextBlocks(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain text", "  Health  tips\n are great!", "Health tips are great!"},
		{"fragment", "<p>Health tips</p>", "Health tips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTextBlocks(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractTextBlocks_HTML(t *testing.T) {
	doc := `
	<html>
	<head>
		<title>Coffee facts</title>
		<script>var claim = "Coffee cures everything.";</script>
		<style>p { color: red; }</style>
	</head>
	<body>
		<p>Health tips</p>
		<noscript>Enable JavaScript</noscript>
		<p>Drink   water.</p>
	</body>
	</html>`

	got := ExtractTextBlocks(doc)

	if !strings.Contains(got, "Health tips Drink water.") {
		t.Errorf("Expected body paragraphs, got %q", got)
	}
	for _, hidden := range []string{"Coffee cures", "color: red", "Enable JavaScript"} {
		if strings.Contains(got, hidden) {
			t.Errorf("Expected %q to be dropped, got %q", hidden, got)
		}
	}
	if got != Normalize(got) {
		t.Errorf("Expected normalized output, got %q", got)
	}
}

func TestTitle(t *testing.T) {
	doc := parseHTML(t, "<html><head><title>  Coffee \n and you </title></head><body>x</body></html>")
	if got := Title(doc); got != "Coffee and you" {
		t.Errorf("Expected 'Coffee and you', got %q", got)
	}

	if got := Title(parseHTML(t, "<p>no title</p>")); got != "" {
		t.Errorf("Expected empty title, got %q", got)
	}
}

func TestPublishedMeta(t *testing.T) {
	doc := parseHTML(t, `<html><head>
<meta name="description" content="ignored">
<meta property="article:published_time" content=" 2024-03-01T10:00:00Z ">
<meta name="date" content="2020-01-01">
</head><body></body></html>`)
	if got := PublishedMeta(doc); got != "2024-03-01T10:00:00Z" {
		t.Errorf("Expected published_time meta, got %q", got)
	}

	if got := PublishedMeta(parseHTML(t, "<p>none</p>")); got != "" {
		t.Errorf("Expected no date, got %q", got)
	}
}
