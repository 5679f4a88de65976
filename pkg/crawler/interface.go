package crawler

import (
	"context"

	"github.com/amosWeiskopf/companyscope/internal/config"
	"github.com/amosWeiskopf/companyscope/pkg/extractor"
)

// Fetcher retrieves the markup of a single URL. Errors are terminal for that
// URL within a run.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Options contains configuration for the crawler
type Options struct {
	MaxPages          int      // Cap on successfully fetched pages
	Workers           int      // Concurrent fetches, 1 means strictly sequential
	PriorityPaths     []string // Paths seeded into the frontier after the start URL
	IncludeSubdomains bool     // Scope by registrable domain instead of exact host
	LinkRules         extractor.LinkRules
	MainContent       bool // Also collect trafilatura main-content text
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	d := config.Default()
	return OptionsFromConfig(d)
}

// OptionsFromConfig maps the application config onto crawler options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxPages:          cfg.Crawler.MaxPages,
		Workers:           cfg.Crawler.Workers,
		PriorityPaths:     cfg.Crawler.PriorityPaths,
		IncludeSubdomains: cfg.Crawler.IncludeSubdomains,
		LinkRules: extractor.LinkRules{
			ExcludedPathTerms: cfg.Crawler.ExcludedPathTerms,
			SkipExtensions:    cfg.Crawler.SkipExtensions,
		},
		MainContent: cfg.Extraction.SummarySource == config.SummaryFromMainContent,
	}
}
