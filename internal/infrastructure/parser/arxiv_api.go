package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"golang.org/x/time/rate"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/scanner"
)

const defaultAPIURL = "https://export.arxiv.org/api/query"

// ArxivAPISearcher queries the arXiv Atom API sorted by submission date.
type ArxivAPISearcher struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

var _ scanner.Scanner = (*ArxivAPISearcher)(nil)
var _ ports.PaperSearcher = (*ArxivAPISearcher)(nil)

// NewArxivAPISearcher wires an HTTP client; minInterval paces consecutive calls.
func NewArxivAPISearcher(endpoint string, client *http.Client, minInterval time.Duration) *ArxivAPISearcher {
	if endpoint == "" {
		endpoint = defaultAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArxivAPISearcher{
		endpoint: endpoint,
		client:   client,
		limiter:  newLimiter(minInterval),
	}
}

// Name identifies the strategy inside the registry.
func (a *ArxivAPISearcher) Name() string {
	return "api"
}

// Search runs one API query and maps every Atom entry to a paper.
func (a *ArxivAPISearcher) Search(ctx context.Context, req ports.SearchRequest) ([]domain.Paper, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	reqURL, err := buildQueryURL(a.endpoint, req.Query, req.MaxResults)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("query arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return parseFeed(resp.Body)
}

func parseFeed(r io.Reader) ([]domain.Paper, error) {
	fp := &atom.Parser{}
	feed, err := fp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry == nil {
			continue
		}
		// The API reports malformed queries as a single entry under /api/errors.
		if strings.Contains(entry.ID, "/api/errors") {
			return nil, fmt.Errorf("arxiv query error: %s", collapseSpace(entry.Summary))
		}
		papers = append(papers, entryToPaper(entry))
	}

	return papers, nil
}

func entryToPaper(entry *atom.Entry) domain.Paper {
	paper := domain.Paper{
		ID:       strings.TrimSpace(entry.ID),
		Title:    collapseSpace(entry.Title),
		Abstract: collapseSpace(entry.Summary),
		AbsURL:   strings.TrimSpace(entry.ID),
	}

	for _, author := range entry.Authors {
		if author == nil {
			continue
		}
		if name := collapseSpace(author.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	for _, link := range entry.Links {
		if link == nil {
			continue
		}
		switch {
		case link.Title == "pdf" || link.Type == "application/pdf":
			paper.PDFURL = link.Href
		case link.Rel == "alternate" || (link.Rel == "" && link.Type == "text/html"):
			paper.AbsURL = link.Href
		}
	}
	if paper.PDFURL == "" && strings.Contains(paper.AbsURL, "/abs/") {
		paper.PDFURL = strings.Replace(paper.AbsURL, "/abs/", "/pdf/", 1)
	}

	for _, cat := range entry.Categories {
		if cat != nil && cat.Term != "" {
			paper.Categories = append(paper.Categories, cat.Term)
		}
	}

	switch {
	case entry.PublishedParsed != nil:
		paper.PublishedAt = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		paper.PublishedAt = entry.UpdatedParsed.UTC()
	}

	return paper
}

func buildQueryURL(endpoint, query string, maxResults int) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid api url %s: %w", endpoint, err)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	q := parsed.Query()
	q.Set("search_query", query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func newLimiter(minInterval time.Duration) *rate.Limiter {
	if minInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
