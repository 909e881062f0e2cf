package text

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractTextBlocks returns the readable text of an HTML document or plain text.
// Input without a '<' is only normalized. Otherwise script, style, noscript and
// iframe content is dropped and the remaining text nodes are joined.
func ExtractTextBlocks(htmlOrText string) string {
	if !strings.Contains(htmlOrText, "<") {
		return Normalize(htmlOrText)
	}

	doc, err := html.Parse(strings.NewReader(htmlOrText))
	if err != nil {
		// html.Parse only fails on reader errors; fall back to the raw text
		return Normalize(htmlOrText)
	}

	return Normalize(VisibleText(doc))
}

// VisibleText extracts text nodes from a parsed document, skipping scripts/styles
func VisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				buf.WriteString(t)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// Title returns the document <title>, normalized, or "" when absent
func Title(n *html.Node) string {
	var title string

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = Normalize(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return title
}

// publishedMetaKeys are the <meta> names and properties that carry a publication date
var publishedMetaKeys = map[string]bool{
	"article:published_time":    true,
	"og:published_time":         true,
	"datepublished":             true,
	"pubdate":                   true,
	"date":                      true,
	"dc.date":                   true,
	"citation_publication_date": true,
}

// PublishedMeta returns the first publication date found in <meta> tags, or ""
func PublishedMeta(n *html.Node) string {
	var found string

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name", "property", "itemprop":
					key = strings.ToLower(a.Val)
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			if publishedMetaKeys[key] && content != "" {
				found = content
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return found
}
