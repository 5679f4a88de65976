package models

// PageResult is the outcome of a single fetch attempt. Exactly one of
// Markup and Err is set.
type PageResult struct {
	URL    string
	Markup string
	Err    error
}

// OK reports whether the fetch succeeded.
func (r PageResult) OK() bool {
	return r.Err == nil
}

// FetchError records a failed fetch.
type FetchError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (e FetchError) String() string {
	return e.URL + ": " + e.Message
}

// CrawlState accumulates everything learnt from successfully fetched pages.
type CrawlState struct {
	// Text is the visible text of every page joined with single spaces.
	Text string
	// MainContent is the boilerplate-free text, only filled when enabled.
	MainContent string
	// SocialLinks maps platform to the first profile URL seen during the run.
	SocialLinks map[string]string
	// Visited lists successfully fetched URLs in fetch order.
	Visited []string
	Errors  []FetchError
}

// NewCrawlState returns an empty state with non-nil collections.
func NewCrawlState() *CrawlState {
	return &CrawlState{
		SocialLinks: make(map[string]string),
		Visited:     []string{},
		Errors:      []FetchError{},
	}
}

// MergeSocial inserts links for platforms not yet present. Earlier entries
// always win.
func (s *CrawlState) MergeSocial(links map[string]string) {
	for platform, link := range links {
		if _, exists := s.SocialLinks[platform]; !exists {
			s.SocialLinks[platform] = link
		}
	}
}

// AppendText adds page text, separating pages with a single space.
func (s *CrawlState) AppendText(text string) {
	s.Text = joinText(s.Text, text)
}

// AppendMainContent adds boilerplate-free page text.
func (s *CrawlState) AppendMainContent(text string) {
	s.MainContent = joinText(s.MainContent, text)
}

func joinText(acc, text string) string {
	if text == "" {
		return acc
	}
	if acc == "" {
		return text
	}
	return acc + " " + text
}
