package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/amosWeiskopf/companyscope/internal/models"
	"github.com/amosWeiskopf/companyscope/pkg/utils"
)

// ListLimits bounds heading-anchored list extraction.
type ListLimits struct {
	MaxItems int // total across all matching headings
	// MaxItemLength rejects items with this many characters or more.
	MaxItemLength int
}

// DefaultListLimits are the limits used when none are configured.
var DefaultListLimits = ListLimits{MaxItems: 10, MaxItemLength: 200}

// ExtractList finds every h1-h5 whose text contains one of keywords and
// collects the items of the nearest <ul> or <ol> that follows it in document
// order. A nil document or no collected items yields the NotFound sentinel.
func ExtractList(doc *goquery.Document, keywords []string, limits ListLimits) models.TextList {
	if doc == nil || len(doc.Nodes) == 0 {
		return models.Missing()
	}
	if limits.MaxItems <= 0 {
		limits.MaxItems = DefaultListLimits.MaxItems
	}
	if limits.MaxItemLength <= 0 {
		limits.MaxItemLength = DefaultListLimits.MaxItemLength
	}
	terms := lowerAll(keywords)

	headings, lists := headingsAndLists(doc.Nodes[0])

	var items []string
	for _, h := range headings {
		if !utils.ContainsAnyFold(goquery.NewDocumentFromNode(h.node).Text(), terms) {
			continue
		}
		list := nextList(lists, h.order)
		if list == nil {
			continue
		}
		goquery.NewDocumentFromNode(list).ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			text := utils.CleanText(li.Text())
			if text != "" && utf8.RuneCountInString(text) < limits.MaxItemLength {
				items = append(items, text)
			}
		})
		if len(items) >= limits.MaxItems {
			break
		}
	}

	if len(items) > limits.MaxItems {
		items = items[:limits.MaxItems]
	}
	return models.Found(items)
}

type orderedNode struct {
	node  *html.Node
	order int
}

// headingsAndLists walks the tree once, numbering elements in document order.
func headingsAndLists(root *html.Node) (headings, lists []orderedNode) {
	order := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			order++
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5":
				headings = append(headings, orderedNode{node: n, order: order})
			case "ul", "ol":
				lists = append(lists, orderedNode{node: n, order: order})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return headings, lists
}

// nextList returns the first list positioned after order.
func nextList(lists []orderedNode, order int) *html.Node {
	for _, l := range lists {
		if l.order > order {
			return l.node
		}
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
