package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/scanner"
)

const (
	arxivBaseURL      = "https://arxiv.org"
	defaultListingURL = "https://arxiv.org/list"
	userAgent         = "PaperDigest/1.0 (+https://arxiv.org/help/api)"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivListingSearcher crawls /list/<category>/pastweek pages and keeps the
// entries whose title or abstract mentions one of the keywords.
type ArxivListingSearcher struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	pageSize int
}

var _ scanner.Scanner = (*ArxivListingSearcher)(nil)
var _ ports.PaperSearcher = (*ArxivListingSearcher)(nil)

// NewArxivListingSearcher wires an HTTP client; pageSize defaults to 200.
func NewArxivListingSearcher(baseURL string, client *http.Client, minInterval time.Duration) *ArxivListingSearcher {
	if baseURL == "" {
		baseURL = defaultListingURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivListingSearcher{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   client,
		limiter:  newLimiter(minInterval),
		pageSize: 200,
	}
}

// Name identifies the strategy inside the registry.
func (a *ArxivListingSearcher) Name() string {
	return "listing"
}

// Search walks each category listing and returns matching papers newest first.
func (a *ArxivListingSearcher) Search(ctx context.Context, req ports.SearchRequest) ([]domain.Paper, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for listing search")
	}

	limit := req.MaxResults
	results := make([]domain.Paper, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		skip := 0
		for {
			pageURL, err := buildPageURL(a.baseURL+"/"+cat+"/pastweek", skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			pagePapers, processed := extractPapers(doc, cat)
			for _, paper := range pagePapers {
				if _, ok := seen[paper.ID]; ok {
					continue
				}
				if !matchesAny(paper, req.Keywords) {
					continue
				}
				seen[paper.ID] = struct{}{}
				results = append(results, paper)
			}

			if (limit > 0 && len(results) >= limit) || processed < a.pageSize {
				break
			}
			skip += a.pageSize
		}
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PublishedAt.After(results[j].PublishedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (a *ArxivListingSearcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractPapers(doc *goquery.Document, category string) ([]domain.Paper, int) {
	var (
		collected []domain.Paper
		processed int
	)

	doc.Find("dl > dt").Each(func(i int, dt *goquery.Selection) {
		dd := dt.Next()
		processed++

		paper, ok := parseEntry(dt, dd, category)
		if ok {
			collected = append(collected, paper)
		}
	})

	return collected, processed
}

func parseEntry(dt, dd *goquery.Selection, category string) (domain.Paper, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.Paper{}, false
	}
	href = absolute(href)

	pdf, _ := dt.Find("a[href*=\"/pdf/\"]").First().Attr("href")
	if pdf == "" {
		pdf = strings.Replace(href, "/abs/", "/pdf/", 1)
	}

	title := collapseSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := collapseSpace(dd.Find("p.mathjax").First().Text())
	abstract = strings.TrimSpace(strings.TrimPrefix(abstract, "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, a *goquery.Selection) {
		if name := collapseSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	var publishedAt time.Time
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return domain.Paper{
		ID:          href,
		Title:       title,
		Abstract:    abstract,
		Authors:     authors,
		PublishedAt: publishedAt,
		PDFURL:      absolute(pdf),
		AbsURL:      href,
		Categories:  []string{category},
	}, true
}

func matchesAny(paper domain.Paper, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(paper.Title + " " + paper.Abstract)
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func absolute(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(arxivBaseURL, "/") + href
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
