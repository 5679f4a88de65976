package crawler

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/companyscope/internal/models"
	"github.com/amosWeiskopf/companyscope/pkg/extractor"
	"github.com/amosWeiskopf/companyscope/pkg/utils"
)

// Result is everything a run produced. It is read-only once returned.
type Result struct {
	// WebsiteURL is the seed exactly as supplied.
	WebsiteURL string
	// Base is scheme://host of the seed.
	Base  *url.URL
	State *models.CrawlState
	// Homepage is the seed fetched once more after the crawl, nil if that failed.
	Homepage *extractor.Page
}

// Crawler performs a bounded breadth-first crawl of a single site.
// A Crawler is not safe for concurrent use; Crawl may be called again and
// starts from scratch each time.
type Crawler struct {
	websiteURL string
	seedURL    string
	base       *url.URL
	opts       Options
	fetcher    Fetcher
	scope      *extractor.Scope
	parser     *extractor.Parser
	logger     *zap.Logger

	frontier []string
	// seen holds every URL ever queued, so nothing is queued or fetched twice
	seen      map[string]bool
	attempted map[string]bool
	state     *models.CrawlState
}

// New validates the seed and prepares a crawler. An unusable seed is a
// startup error, not a crawl error.
func New(seed string, opts Options, fetcher Fetcher, logger *zap.Logger) (*Crawler, error) {
	u, err := utils.ParseHTTPURL(seed)
	if err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive, got %d", opts.MaxPages)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	scope := extractor.NewScope(u, opts.IncludeSubdomains)

	return &Crawler{
		websiteURL: seed,
		seedURL:    utils.NormalizeURL(u),
		base:       base,
		opts:       opts,
		fetcher:    fetcher,
		scope:      scope,
		parser:     extractor.NewParser(scope, opts.LinkRules, opts.MainContent),
		logger:     logger.With(zap.String("site", utils.BaseURL(u))),
	}, nil
}

// Crawl runs until the frontier is empty or MaxPages pages were fetched
// successfully, then fetches the seed once more for homepage extraction.
// Per-page failures are recorded in the state and never abort the run.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	c.reset()

	for len(c.frontier) > 0 && len(c.state.Visited) < c.opts.MaxPages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crawl interrupted: %w", err)
		}

		batch := c.nextBatch()
		for _, r := range c.fetchAll(ctx, batch) {
			c.absorb(r)
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("pages", len(c.state.Visited)),
		zap.Int("errors", len(c.state.Errors)),
		zap.Int("unvisited", len(c.frontier)))

	return &Result{
		WebsiteURL: c.websiteURL,
		Base:       c.base,
		State:      c.state,
		Homepage:   c.fetchHomepage(ctx),
	}, nil
}

func (c *Crawler) reset() {
	c.frontier = nil
	c.seen = make(map[string]bool)
	c.attempted = make(map[string]bool)
	c.state = models.NewCrawlState()

	c.enqueue(c.seedURL)
	for _, p := range c.opts.PriorityPaths {
		c.enqueue(utils.JoinPath(c.base, p))
	}
}

// enqueue appends link unless it was queued before or is out of scope.
func (c *Crawler) enqueue(link string) {
	if c.seen[link] || !c.scope.ContainsRaw(link) {
		return
	}
	c.seen[link] = true
	c.frontier = append(c.frontier, link)
}

// nextBatch dequeues up to as many fetchable URLs as there are workers,
// never more than the pages still allowed under the cap.
func (c *Crawler) nextBatch() []string {
	limit := c.opts.MaxPages - len(c.state.Visited)
	if c.opts.Workers < limit {
		limit = c.opts.Workers
	}

	var batch []string
	for len(c.frontier) > 0 && len(batch) < limit {
		link := c.frontier[0]
		c.frontier = c.frontier[1:]

		if c.attempted[link] || !c.scope.ContainsRaw(link) {
			continue
		}
		c.attempted[link] = true
		batch = append(batch, link)
	}
	return batch
}

// fetchAll fetches batch concurrently; results keep the batch order.
func (c *Crawler) fetchAll(ctx context.Context, batch []string) []models.PageResult {
	results := make([]models.PageResult, len(batch))
	if len(batch) == 1 {
		results[0] = c.fetch(ctx, batch[0])
		return results
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, link := range batch {
		g.Go(func() error {
			results[i] = c.fetch(ctx, link)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Crawler) fetch(ctx context.Context, link string) models.PageResult {
	markup, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return models.PageResult{URL: link, Err: err}
	}
	return models.PageResult{URL: link, Markup: markup}
}

// absorb folds one fetch outcome into the crawl state. Only the crawl
// goroutine calls it.
func (c *Crawler) absorb(r models.PageResult) {
	if !r.OK() {
		c.logger.Warn("fetch failed", zap.String("url", r.URL), zap.Error(r.Err))
		c.state.Errors = append(c.state.Errors, models.FetchError{URL: r.URL, Message: r.Err.Error()})
		return
	}

	page, err := c.parser.Parse(r.Markup, r.URL)
	if err != nil {
		c.logger.Warn("parse failed", zap.String("url", r.URL), zap.Error(err))
		c.state.Errors = append(c.state.Errors, models.FetchError{URL: r.URL, Message: err.Error()})
		return
	}

	c.state.Visited = append(c.state.Visited, r.URL)
	c.state.AppendText(page.Text)
	c.state.AppendMainContent(page.MainContent)
	c.state.MergeSocial(page.Social)

	before := len(c.frontier)
	for _, link := range page.Links {
		if !c.attempted[link] {
			c.enqueue(link)
		}
	}

	c.logger.Debug("page crawled",
		zap.String("url", r.URL),
		zap.Int("links", len(page.Links)),
		zap.Int("queued", len(c.frontier)-before))
}

// fetchHomepage refetches the seed regardless of cap and visited state.
// Failure only degrades homepage-derived fields.
func (c *Crawler) fetchHomepage(ctx context.Context) *extractor.Page {
	markup, err := c.fetcher.Fetch(ctx, c.seedURL)
	if err != nil {
		c.logger.Warn("homepage fetch failed", zap.String("url", c.seedURL), zap.Error(err))
		return nil
	}
	page, err := c.parser.Parse(markup, c.seedURL)
	if err != nil {
		c.logger.Warn("homepage parse failed", zap.String("url", c.seedURL), zap.Error(err))
		return nil
	}
	return page
}
