package base

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-tryon/models"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BaseScraper handles common scraping logic
type BaseScraper struct {
	Client *http.Client
}

// NewBaseScraper creates a new BaseScraper instance
func NewBaseScraper() *BaseScraper {
	return &BaseScraper{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchDocument fetches the page and checks it with validator. Pages that
// only render in a browser fail here.
func (b *BaseScraper) FetchDocument(ctx context.Context, pageURL string, validator func(*goquery.Document) bool) (*goquery.Document, error) {
	doc, err := b.FetchDocumentHTTP(ctx, pageURL)
	if err != nil {
		fmt.Printf("[BaseScraper] HTTP Failed: %v\n", err)
		return nil, err
	}
	if !isValidDocument(doc) {
		return nil, fmt.Errorf("blocked or empty page: %s", pageURL)
	}
	if validator != nil && !validator(doc) {
		return nil, fmt.Errorf("no product details on %s", pageURL)
	}
	fmt.Printf("[BaseScraper] HTTP Success: %s\n", pageURL)
	return doc, nil
}

func isValidDocument(doc *goquery.Document) bool {
	lowerTitle := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	if strings.Contains(lowerTitle, "robot check") ||
		strings.Contains(lowerTitle, "captcha") ||
		strings.Contains(lowerTitle, "access denied") {
		return false
	}
	return doc.Find("head meta").Length() > 0 || strings.TrimSpace(doc.Find("body").Text()) != ""
}

// FetchDocumentHTTP fetches the URL and returns a GoQuery document via standard HTTP
func (b *BaseScraper) FetchDocumentHTTP(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}
	doc.Url = res.Request.URL
	return doc, nil
}

// OpenGraph reads the og:* and product:* meta tags most shops publish.
func OpenGraph(doc *goquery.Document) *models.Product {
	meta := func(names ...string) string {
		for _, name := range names {
			sel := fmt.Sprintf("meta[property='%s'], meta[name='%s']", name, name)
			if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
				return v
			}
		}
		return ""
	}

	product := &models.Product{
		Title:       meta("og:title", "twitter:title"),
		Description: meta("og:description", "description", "twitter:description"),
		Category:    meta("product:category", "og:product:category"),
	}
	if product.Title == "" {
		product.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	doc.Find("meta[property='og:image'], meta[property='og:image:secure_url'], meta[name='twitter:image']").Each(func(i int, s *goquery.Selection) {
		product.Images = AppendImage(product.Images, Absolute(doc, s.AttrOr("content", "")))
	})
	if doc.Url != nil {
		product.SourceURL = doc.Url.String()
	}
	return product
}

// Absolute resolves src against the page URL.
func Absolute(doc *goquery.Document, src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if doc.Url == nil || ref.IsAbs() {
		return ref.String()
	}
	return doc.Url.ResolveReference(ref).String()
}

// AppendImage appends src unless it is empty or already listed.
func AppendImage(images []string, src string) []string {
	if src == "" {
		return images
	}
	for _, existing := range images {
		if existing == src {
			return images
		}
	}
	return append(images, src)
}

// ResolveShortenedURL follows redirects to find the final URL
func ResolveShortenedURL(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return pageURL, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		// Some servers refuse HEAD; retry with GET
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return pageURL, err
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err = client.Do(req)
		if err != nil {
			return pageURL, err
		}
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}
