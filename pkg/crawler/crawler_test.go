package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/companyscope/pkg/extractor"
	"github.com/amosWeiskopf/companyscope/pkg/fetcher"
)

// stubSite serves canned markup keyed by absolute URL and records every call.
type stubSite struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newStubSite(pages map[string]string) *stubSite {
	return &stubSite{pages: pages, errs: make(map[string]error)}
}

func (s *stubSite) Fetch(ctx context.Context, pageURL string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pageURL)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := s.errs[pageURL]; ok {
		return "", err
	}
	markup, ok := s.pages[pageURL]
	if !ok {
		return "", &fetcher.TransportError{URL: pageURL, StatusCode: http.StatusNotFound}
	}
	return markup, nil
}

func (s *stubSite) count(pageURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == pageURL {
			n++
		}
	}
	return n
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	args := m.Called(ctx, pageURL)
	return args.String(0), args.Error(1)
}

func testOptions(maxPages, workers int, priority ...string) Options {
	return Options{
		MaxPages:      maxPages,
		Workers:       workers,
		PriorityPaths: priority,
		LinkRules: extractor.LinkRules{
			ExcludedPathTerms: []string{"login", "signup", "cart"},
			SkipExtensions:    []string{".pdf", ".png"},
		},
	}
}

func links(paths ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paths {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, p, p)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestNewCrawler(t *testing.T) {
	site := newStubSite(nil)

	tests := []struct {
		name    string
		url     string
		opts    Options
		fetcher Fetcher
		wantErr bool
	}{
		{
			name:    "valid URL",
			url:     "https://example.com",
			opts:    testOptions(15, 1),
			fetcher: site,
		},
		{
			name:    "invalid URL",
			url:     "not-a-url",
			opts:    testOptions(15, 1),
			fetcher: site,
			wantErr: true,
		},
		{
			name:    "empty URL",
			url:     "",
			opts:    testOptions(15, 1),
			fetcher: site,
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			url:     "ftp://example.com",
			opts:    testOptions(15, 1),
			fetcher: site,
			wantErr: true,
		},
		{
			name:    "zero page cap",
			url:     "https://example.com",
			opts:    testOptions(0, 1),
			fetcher: site,
			wantErr: true,
		},
		{
			name:    "missing fetcher",
			url:     "https://example.com",
			opts:    testOptions(15, 1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url, tt.opts, tt.fetcher, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func TestCrawlSite(t *testing.T) {
	var (
		mu   sync.Mutex
		hits = make(map[string]int)
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`
				<html><head><title>Acme</title></head>
				<body>
					<h1>Acme builds rockets</h1>
					<a href="/about">About</a>
					<a href="/contact">Contact</a>
					<a href="/login">Log in</a>
					<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
				</body></html>`))
		case "/about":
			w.Write([]byte(`<html><body><p>About Acme</p><a href="/">Home</a></body></html>`))
		case "/contact":
			w.Write([]byte(`<html><body><p>Write to sales@acme.test</p></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Options{Timeout: 2 * time.Second, UserAgents: fetcher.FixedSelector("test-agent/1.0")})
	c, err := New(server.URL, testOptions(15, 1, "/about"), f, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, server.URL, result.WebsiteURL)
	assert.Equal(t, server.URL, result.Base.String())
	assert.Equal(t, []string{
		server.URL + "/",
		server.URL + "/about",
		server.URL + "/contact",
	}, result.State.Visited)
	assert.Empty(t, result.State.Errors)
	assert.Contains(t, result.State.Text, "Acme builds rockets")
	assert.Contains(t, result.State.Text, "About Acme")
	assert.Contains(t, result.State.Text, "sales@acme.test")
	assert.Equal(t, "https://www.linkedin.com/company/acme", result.State.SocialLinks["linkedin"])

	require.NotNil(t, result.Homepage)
	assert.Equal(t, "Acme", extractor.Title(result.Homepage.Doc))

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, hits["/login"])
	assert.Equal(t, 1, hits["/about"])
	// once during the crawl, once more for homepage extraction
	assert.Equal(t, 2, hits["/"])
}

func TestCrawlRespectsPageCap(t *testing.T) {
	pages := make(map[string]string)
	for i := 0; i < 10; i++ {
		pages[fmt.Sprintf("https://example.com/p%d", i)] = links(fmt.Sprintf("/p%d", i+1))
	}
	pages["https://example.com/"] = links("/p0")

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			site := newStubSite(pages)
			c, err := New("https://example.com", testOptions(3, workers), site, zap.NewNop())
			require.NoError(t, err)

			result, err := c.Crawl(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []string{
				"https://example.com/",
				"https://example.com/p0",
				"https://example.com/p1",
			}, result.State.Visited)
			assert.Zero(t, site.count("https://example.com/p2"))
		})
	}
}

func TestCrawlNoDuplicatesSameHost(t *testing.T) {
	site := newStubSite(map[string]string{
		"https://example.com/":      links("/a", "/b", "/a", "https://example.com/b#frag", "https://other.com/x"),
		"https://example.com/a":     links("/", "/b", "/c"),
		"https://example.com/b":     links("/a", "/c", "https://blog.example.com/"),
		"https://example.com/c":     links("/"),
		"https://other.com/x":       links("/"),
		"https://blog.example.com/": links("/"),
	})
	c, err := New("https://example.com", testOptions(15, 2, "/", "/a"), site, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, result.State.Visited)
	assert.Zero(t, site.count("https://other.com/x"))
	assert.Zero(t, site.count("https://blog.example.com/"))
}

func TestCrawlBlockedEverywhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Options{Timeout: 2 * time.Second})
	c, err := New(server.URL, testOptions(15, 1, "/about", "/contact"), f, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.State.Visited)
	assert.NotNil(t, result.State.Visited)
	assert.Empty(t, result.State.Text)
	assert.Nil(t, result.Homepage)

	require.Len(t, result.State.Errors, 3)
	for i, path := range []string{"/", "/about", "/contact"} {
		assert.Equal(t, server.URL+path, result.State.Errors[i].URL)
		assert.Equal(t, "Blocked: 429", result.State.Errors[i].Message)
	}
}

func TestCrawlFailedURLsNotRefetched(t *testing.T) {
	site := newStubSite(map[string]string{
		"https://example.com/":      links("/broken", "/ok"),
		"https://example.com/ok":    links("/broken", "/"),
		"https://example.com/other": links("/broken"),
	})
	site.errs["https://example.com/broken"] = &fetcher.TransportError{URL: "https://example.com/broken", Err: errors.New("connection reset")}

	c, err := New("https://example.com", testOptions(15, 1, "/broken", "/other"), site, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, site.count("https://example.com/broken"))
	require.Len(t, result.State.Errors, 1)
	assert.Equal(t, "https://example.com/broken: connection reset", result.State.Errors[0].String())
	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/other",
		"https://example.com/ok",
	}, result.State.Visited)
}

func TestCrawlSocialLinksFirstSeen(t *testing.T) {
	site := newStubSite(map[string]string{
		"https://example.com/": `<a href="https://www.linkedin.com/company/acme">in</a>
			<a href="/about">About</a>`,
		"https://example.com/about": `<a href="https://www.linkedin.com/company/impostor">in</a>
			<a href="https://github.com/acme">gh</a>`,
	})
	c, err := New("https://example.com", testOptions(15, 1), site, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"linkedin": "https://www.linkedin.com/company/acme",
		"github":   "https://github.com/acme",
	}, result.State.SocialLinks)
}

func TestCrawlWorkersMatchSequential(t *testing.T) {
	pages := map[string]string{
		"https://example.com/": links("/a", "/b", "/c", "/d"),
	}
	for _, p := range []string{"a", "b", "c", "d"} {
		pages["https://example.com/"+p] = fmt.Sprintf("<p>page %s</p>", p) + links("/"+p+"/1", "/"+p+"/2")
		pages["https://example.com/"+p+"/1"] = fmt.Sprintf("<p>page %s one</p>", p)
		pages["https://example.com/"+p+"/2"] = fmt.Sprintf("<p>page %s two</p>", p)
	}

	run := func(workers int) *Result {
		c, err := New("https://example.com", testOptions(7, workers, "/c", "/missing"), newStubSite(pages), zap.NewNop())
		require.NoError(t, err)
		result, err := c.Crawl(context.Background())
		require.NoError(t, err)
		return result
	}

	sequential := run(1)
	require.Len(t, sequential.State.Visited, 7)

	for _, workers := range []int{2, 3, 8} {
		parallel := run(workers)
		assert.Equal(t, sequential.State.Visited, parallel.State.Visited, "workers=%d", workers)
		assert.Equal(t, sequential.State.Text, parallel.State.Text, "workers=%d", workers)
		assert.Equal(t, sequential.State.Errors, parallel.State.Errors, "workers=%d", workers)
	}
}

func TestCrawlHomepageAlwaysRefetched(t *testing.T) {
	m := new(mockFetcher)
	m.On("Fetch", mock.Anything, "https://example.com/").
		Return(`<html><head><title>Acme</title></head><body><a href="/about">About</a></body></html>`, nil).
		Twice()

	c, err := New("https://example.com", testOptions(1, 1), m, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	m.AssertExpectations(t)
	m.AssertNotCalled(t, "Fetch", mock.Anything, "https://example.com/about")
	assert.Equal(t, []string{"https://example.com/"}, result.State.Visited)
	require.NotNil(t, result.Homepage)
	assert.Equal(t, "Acme", extractor.Title(result.Homepage.Doc))
}

func TestCrawlHomepageRefetchFailure(t *testing.T) {
	m := new(mockFetcher)
	m.On("Fetch", mock.Anything, "https://example.com/").Return("<p>home</p>", nil).Once()
	m.On("Fetch", mock.Anything, "https://example.com/").
		Return("", &fetcher.BlockedError{URL: "https://example.com/", StatusCode: http.StatusForbidden}).
		Once()

	c, err := New("https://example.com", testOptions(15, 1), m, zap.NewNop())
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	m.AssertExpectations(t)
	assert.Nil(t, result.Homepage)
	assert.Equal(t, []string{"https://example.com/"}, result.State.Visited)
	assert.Empty(t, result.State.Errors)
}

func TestCrawlIsRepeatable(t *testing.T) {
	site := newStubSite(map[string]string{
		"https://example.com/":  links("/a"),
		"https://example.com/a": "<p>a</p>",
	})
	c, err := New("https://example.com", testOptions(15, 1), site, zap.NewNop())
	require.NoError(t, err)

	first, err := c.Crawl(context.Background())
	require.NoError(t, err)
	second, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.State, second.State)
}

func TestCrawlCancelled(t *testing.T) {
	site := newStubSite(map[string]string{"https://example.com/": "<p>home</p>"})
	c, err := New("https://example.com", testOptions(15, 1), site, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Crawl(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Zero(t, site.count("https://example.com/"))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 15, opts.MaxPages)
	assert.Equal(t, 1, opts.Workers)
	assert.Contains(t, opts.PriorityPaths, "/about")
	assert.Contains(t, opts.LinkRules.ExcludedPathTerms, "login")
	assert.False(t, opts.MainContent)
}
