package extractor

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"github.com/amosWeiskopf/companyscope/pkg/utils"
)

// LinkRules filters outbound links before they reach the frontier.
type LinkRules struct {
	// ExcludedPathTerms drops links whose path contains any term, ignoring case.
	ExcludedPathTerms []string
	// SkipExtensions drops links to non-page assets.
	SkipExtensions []string
}

// Page is a parsed HTML document together with what the crawler needs from it.
type Page struct {
	URL string
	Doc *goquery.Document
	// Text is every visible text node, trimmed and joined with single spaces.
	Text string
	// Links are in-scope absolute URLs in document order, deduplicated.
	Links []string
	// Social maps platform to the first matching profile link on the page.
	Social map[string]string
	// MainContent is the boilerplate-free article text, empty unless enabled.
	MainContent string
}

// Parser turns raw markup into Pages.
type Parser struct {
	scope       *Scope
	rules       LinkRules
	mainContent bool
}

// NewParser creates a parser for the given crawl scope. When mainContent is
// set every page is additionally run through trafilatura.
func NewParser(scope *Scope, rules LinkRules, mainContent bool) *Parser {
	return &Parser{
		scope:       scope,
		rules:       normalizeRules(rules),
		mainContent: mainContent,
	}
}

// Parse parses markup fetched from pageURL. Relative links resolve against
// pageURL.
func (p *Parser) Parse(markup, pageURL string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		URL:    pageURL,
		Doc:    goquery.NewDocumentFromNode(root),
		Text:   VisibleText(root),
		Social: make(map[string]string),
	}

	seen := make(map[string]bool)
	page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		matchSocial(page.Social, abs)

		// a bare "#" parses to an empty fragment but is still an in-page anchor
		if strings.Contains(href, "#") || !p.keepLink(abs) {
			return
		}
		link := utils.NormalizeURL(abs)
		if !seen[link] {
			seen[link] = true
			page.Links = append(page.Links, link)
		}
	})

	if p.mainContent {
		page.MainContent = extractMainContent(markup)
	}

	return page, nil
}

// keepLink applies the scope and link rules to a resolved anchor.
func (p *Parser) keepLink(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Fragment != "" {
		return false
	}
	if !p.scope.Contains(u) {
		return false
	}
	lowerPath := strings.ToLower(u.Path)
	if utils.ContainsAnyFold(lowerPath, p.rules.ExcludedPathTerms) {
		return false
	}
	ext := path.Ext(lowerPath)
	for _, skip := range p.rules.SkipExtensions {
		if ext == skip {
			return false
		}
	}
	return true
}

// VisibleText joins every rendered text node of the tree in document order.
func VisibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

func extractMainContent(markup string) string {
	result, err := trafilatura.Extract(strings.NewReader(markup), trafilatura.Options{})
	if err != nil || result == nil {
		return ""
	}
	return utils.CleanText(result.ContentText)
}

func normalizeRules(r LinkRules) LinkRules {
	out := LinkRules{}
	for _, t := range r.ExcludedPathTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out.ExcludedPathTerms = append(out.ExcludedPathTerms, t)
		}
	}
	for _, e := range r.SkipExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out.SkipExtensions = append(out.SkipExtensions, e)
	}
	return out
}
