package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title returns the trimmed <title> text, or "" if the document has none.
func Title(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Description returns the meta description, falling back to og:description.
func Description(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	if desc := metaContent(doc, "name", "description"); desc != "" {
		return desc
	}
	return metaContent(doc, "property", "og:description")
}

// metaContent returns the trimmed content of the first <meta> whose attr
// equals value, ignoring case.
func metaContent(doc *goquery.Document, attr, value string) string {
	var content string
	doc.Find("meta[" + attr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr(attr, "")), value) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})
	return content
}
