package og

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Description length cap. Longer descriptions are cut to 497 runes
// plus an ellipsis so the stored value never exceeds 500.
const maxDescriptionLen = 500

// PageMetadata holds the extracted page metadata.
type PageMetadata struct {
	Title       string
	Description string
	Image       string
	ReadingTime string // e.g. "4 min read", empty when no text found
}

// parsePage extracts Open Graph / Twitter card metadata from an HTML
// document. Open Graph tags win over Twitter tags, which win over the
// plain <title> and <meta name="description"> fallbacks.
func parsePage(body []byte) *PageMetadata {
	meta := &PageMetadata{}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	var ogTitle, twitterTitle, docTitle string
	var ogDesc, twitterDesc, metaDesc string
	var ogImage, twitterImage string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				property := attr(n, "property")
				name := attr(n, "name")
				content := strings.TrimSpace(attr(n, "content"))
				if content == "" {
					break
				}
				switch {
				case property == "og:title":
					ogTitle = content
				case property == "og:description":
					ogDesc = content
				case property == "og:image":
					ogImage = content
				case name == "twitter:title" || property == "twitter:title":
					twitterTitle = content
				case name == "twitter:description" || property == "twitter:description":
					twitterDesc = content
				case name == "twitter:image" || property == "twitter:image":
					twitterImage = content
				case name == "description":
					metaDesc = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	meta.Title = firstNonEmpty(ogTitle, twitterTitle, docTitle)
	meta.Description = TruncateDescription(firstNonEmpty(ogDesc, twitterDesc, metaDesc))
	meta.Image = firstNonEmpty(ogImage, twitterImage)
	meta.ReadingTime = estimateReadingTime(string(body))

	return meta
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TruncateDescription caps a description at 500 runes, ending with "...".
// The same budget applies to scraped and client-supplied descriptions.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen-3]) + "..."
}
