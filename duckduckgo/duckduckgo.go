// Package duckduckgo implements [chatstream.Searcher] by scraping the
// DuckDuckGo HTML endpoint, which needs no API key.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/chatstream"
	"github.com/rivo/uniseg"
)

const (
	defaultBaseURL   = "https://html.duckduckgo.com/html/"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 5 << 20
	maxSnippetChars  = 300
)

// Interface compliance check.
var _ chatstream.Searcher = (*Searcher)(nil)

// Result is a single search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher queries DuckDuckGo.
type Searcher struct {
	baseURL    string
	userAgent  string
	maxResults int
	httpClient *http.Client
}

// Option configures a [Searcher].
type Option func(*Searcher)

// WithBaseURL sets the search endpoint. Empty keeps the default.
func WithBaseURL(u string) Option {
	return func(s *Searcher) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithMaxResults limits the number of results included in the digest.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Searcher) { s.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Searcher) { s.userAgent = ua }
}

// New creates a [Searcher].
func New(opts ...Option) *Searcher {
	s := &Searcher{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		maxResults: chatstream.DefaultSearchMaxResults,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search runs query and returns a numbered digest of the results. It
// returns an empty string when nothing was found.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	results, err := s.Results(ctx, query)
	if err != nil {
		return "", err
	}
	return Format(results), nil
}

// Results runs query and returns the parsed hits.
func (s *Searcher) Results(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("duckduckgo: empty query: %w", chatstream.ErrValidation)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse: %w", err)
	}
	return s.parse(doc), nil
}

func (s *Searcher) parse(doc *goquery.Document) []Result {
	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		title := collapse(link.Text())
		href, _ := link.Attr("href")
		target := resolveURL(href)
		if title == "" || target == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     target,
			Snippet: collapse(sel.Find(".result__snippet").First().Text()),
		})
		return len(results) < s.maxResults
	})
	return results
}

// Format renders results as the digest handed to the model.
func Format(results []Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(r.Snippet, maxSnippetChars))
		}
	}
	return b.String()
}

// resolveURL unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<escaped target>.
func resolveURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n user-perceived characters.
func truncate(s string, n int) string {
	if uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return strings.TrimSpace(b.String()) + "…"
}
