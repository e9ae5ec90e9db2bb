package capture

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Title returns the text of the document's <title> element.
func Title(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

// MetaDescription returns the page description, preferring the standard
// meta tag and falling back to the Open Graph one.
func MetaDescription(doc *html.Node) string {
	return metaContent(doc, "name", "description", func() string {
		return metaContent(doc, "property", "og:description", func() string { return "" })
	})
}

func metaContent(doc *html.Node, attrKey, attrVal string, fallback func() string) string {
	var content string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var matched bool
			var value string
			for _, attr := range n.Attr {
				if attr.Key == attrKey && strings.EqualFold(attr.Val, attrVal) {
					matched = true
				}
				if attr.Key == "content" {
					value = attr.Val
				}
			}
			if matched && value != "" {
				content = strings.TrimSpace(value)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if content != "" {
				return
			}
		}
	}
	traverse(doc)
	if content == "" {
		return fallback()
	}
	return content
}

// TextExcerpt returns the first maxLen runes of the page's visible body
// text, for pages that declare no description of their own.
func TextExcerpt(doc *html.Node, maxLen int) string {
	var builder strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if builder.Len() >= maxLen*utf8.UTFMax {
			return
		}
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			}
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if builder.Len() > 0 {
					builder.WriteByte(' ')
				}
				builder.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	excerpt := builder.String()
	if runes := []rune(excerpt); len(runes) > maxLen {
		cut := string(runes[:maxLen])
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		excerpt = cut
	}
	return excerpt
}

// CanonicalHref returns the page's canonical link target, if declared.
func CanonicalHref(doc *html.Node) string {
	var href string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var canonical bool
			var value string
			for _, attr := range n.Attr {
				if attr.Key == "rel" && strings.EqualFold(attr.Val, "canonical") {
					canonical = true
				}
				if attr.Key == "href" {
					value = attr.Val
				}
			}
			if canonical && value != "" {
				href = value
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if href != "" {
				return
			}
		}
	}
	traverse(doc)
	return href
}

// Render serializes the DOM back to markup.
func Render(doc *html.Node) (string, error) {
	var builder strings.Builder
	if err := html.Render(&builder, doc); err != nil {
		return "", err
	}
	return builder.String(), nil
}
