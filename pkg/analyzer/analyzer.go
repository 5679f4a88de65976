package analyzer

import (
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amosWeiskopf/companyscope/internal/config"
	"github.com/amosWeiskopf/companyscope/internal/models"
	"github.com/amosWeiskopf/companyscope/pkg/crawler"
	"github.com/amosWeiskopf/companyscope/pkg/extractor"
	"github.com/amosWeiskopf/companyscope/pkg/utils"
)

const (
	contactPath = "/contact"
	careersPath = "/careers"
	jobsPath    = "/jobs"
)

// Analyzer reduces a finished crawl into a business profile report
type Analyzer struct {
	priorityPaths []string
	extraction    config.ExtractionConfig
	entities      *extractor.Extractor
	now           func() time.Time
}

// New creates an Analyzer. A nil clock uses time.Now.
func New(cfg *config.Config, clock func() time.Time) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Analyzer{
		priorityPaths: cfg.Crawler.PriorityPaths,
		extraction:    cfg.Extraction,
		entities:      extractor.New(),
		now:           clock,
	}
}

// Analyze builds the report. It never fails: anything that could not be
// extracted is reported as not found.
func (a *Analyzer) Analyze(result *crawler.Result) *models.Report {
	state := result.State
	if state == nil {
		state = models.NewCrawlState()
	}

	keyPages := a.detectKeyPages(result.Base, state.Visited)
	careersURL := a.careersPageURL(result.Base, keyPages)

	doc := homepageDoc(result.Homepage)
	limits := extractor.ListLimits{
		MaxItems:      a.extraction.MaxListItems,
		MaxItemLength: a.extraction.MaxItemLength,
	}

	roles := models.Missing()
	if careersURL != models.NotFound {
		roles = extractor.ExtractList(doc, a.extraction.RoleKeywords, limits)
	}

	entities := a.entities.ExtractEntities(state.Text)

	return &models.Report{
		Identity: models.Identity{
			CompanyName: orNotFound(extractor.Title(doc)),
			WebsiteURL:  result.WebsiteURL,
			Tagline:     orNotFound(extractor.Description(doc)),
		},
		BusinessSummary: models.BusinessSummary{
			WhatTheyDo:       a.summarize(state),
			PrimaryOfferings: extractor.ExtractList(doc, a.extraction.OfferingKeywords, limits),
			TargetSegments:   extractor.ExtractList(doc, a.extraction.SegmentKeywords, limits),
		},
		EvidenceProof: models.EvidenceProof{
			KeyPagesDetected: keyPages,
			SignalsFound:     extractor.MatchSignals(state.Text, a.extraction.SignalKeywords),
			SocialLinks:      copySocial(state.SocialLinks),
		},
		ContactLocation: models.ContactLocation{
			Emails:         nonNil(entities.Emails),
			Phones:         nonNil(entities.Phones),
			ContactPageURL: pageURL(result.Base, keyPages, contactPath),
		},
		TeamHiring: models.TeamHiring{
			CareersPageURL:  careersURL,
			OpenRolesSample: roles,
		},
		Metadata: models.Metadata{
			Timestamp:    a.now().Format(time.RFC3339),
			PagesCrawled: nonNil(append([]string(nil), state.Visited...)),
			TotalPages:   len(state.Visited),
			Errors:       formatErrors(state.Errors),
		},
	}
}

// detectKeyPages returns the priority paths that were fetched successfully,
// in priority order.
func (a *Analyzer) detectKeyPages(base *url.URL, visited []string) []string {
	detected := []string{}
	if base == nil {
		return detected
	}
	seen := make(map[string]bool, len(visited))
	for _, v := range visited {
		seen[v] = true
	}
	for _, p := range a.priorityPaths {
		if seen[utils.JoinPath(base, p)] {
			detected = append(detected, p)
		}
	}
	return detected
}

func (a *Analyzer) careersPageURL(base *url.URL, keyPages []string) string {
	if u := pageURL(base, keyPages, careersPath); u != models.NotFound {
		return u
	}
	return pageURL(base, keyPages, jobsPath)
}

// summarize truncates the crawl text. Boilerplate-free text is preferred
// when configured and available.
func (a *Analyzer) summarize(state *models.CrawlState) string {
	text := state.Text
	if a.extraction.SummarySource == config.SummaryFromMainContent && state.MainContent != "" {
		text = state.MainContent
	}
	if text == "" {
		return models.NotFound
	}
	return utils.TruncateText(text, a.extraction.SummaryLength)
}

func pageURL(base *url.URL, keyPages []string, path string) string {
	if base == nil {
		return models.NotFound
	}
	for _, p := range keyPages {
		if p == path {
			return utils.BaseURL(base) + path
		}
	}
	return models.NotFound
}

func homepageDoc(page *extractor.Page) *goquery.Document {
	if page == nil {
		return nil
	}
	return page.Doc
}

func orNotFound(s string) string {
	if s == "" {
		return models.NotFound
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func copySocial(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func formatErrors(errs []models.FetchError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.String())
	}
	return out
}
