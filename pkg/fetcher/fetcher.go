package fetcher

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// Options controls HTTP fetching behaviour.
type Options struct {
	Timeout           time.Duration
	Delay             time.Duration
	RequestsPerSecond float64
	MaxBodyBytes      int64
	UserAgents        UserAgentSelector
}

// HTTPFetcher issues paced GET requests with a rotating browser identity.
type HTTPFetcher struct {
	client       *http.Client
	pacer        *Pacer
	userAgents   UserAgentSelector
	maxBodyBytes int64
}

// New constructs an HTTP fetcher using the provided options.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.UserAgents == nil {
		opts.UserAgents = FixedSelector("")
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   opts.Timeout,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   50,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &HTTPFetcher{
		client:       &http.Client{Transport: transport, Timeout: opts.Timeout, Jar: jar},
		pacer:        NewPacer(opts.Delay, opts.RequestsPerSecond),
		userAgents:   opts.UserAgents,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch waits for the politeness delay, then downloads pageURL and returns
// its markup decoded to UTF-8. Failures are *BlockedError or *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.pacer.Wait(ctx); err != nil {
		return "", &TransportError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: err}
	}
	if ua := f.userAgents.Next(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if isBlockedStatus(resp.StatusCode) {
		return "", &BlockedError{URL: pageURL, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isWebpageMIME(contentType) {
		return "", &TransportError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unsupported content type %q", contentType),
		}
	}

	body, err := f.readBody(resp, contentType)
	if err != nil {
		return "", &TransportError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response, contentType string) (string, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		dr, err := deflateReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("deflate decode: %w", err)
		}
		defer dr.Close()
		reader = dr
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	limited := io.LimitReader(reader, f.maxBodyBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > f.maxBodyBytes {
		return "", fmt.Errorf("response body exceeds limit of %d bytes", f.maxBodyBytes)
	}

	utf8Reader, err := charset.NewReader(strings.NewReader(string(raw)), contentType)
	if err != nil {
		// Unknown charset label, hand back the bytes untouched.
		return string(raw), nil
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	return string(decoded), nil
}

// deflateReader decodes an HTTP deflate body. That is zlib-wrapped data, but
// some servers send a raw deflate stream instead.
func deflateReader(body io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair.
func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}

func isWebpageMIME(contentType string) bool {
	mimeType := strings.TrimSpace(strings.Split(strings.ToLower(contentType), ";")[0])
	if mimeType == "" {
		return true
	}
	webpageMIMEs := []string{"text/html", "application/xhtml+xml", "application/xhtml", "text/xml", "application/xml"}
	for _, mime := range webpageMIMEs {
		if mime == mimeType {
			return true
		}
	}
	return false
}
