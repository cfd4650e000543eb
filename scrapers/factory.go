package scrapers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
	"github.com/raushankrgupta/fitly-tryon/scrapers/flipkart"
	"github.com/raushankrgupta/fitly-tryon/scrapers/myntra"
	"github.com/raushankrgupta/fitly-tryon/scrapers/opengraph"
)

// Importer picks the scraper for a page. Pages of unknown shops are read
// from their OpenGraph tags.
type Importer struct {
	Scrapers []Scraper
	Fallback Scraper
	Client   *http.Client
}

func NewImporter() *Importer {
	return &Importer{
		// Register scrapers here
		Scrapers: []Scraper{
			flipkart.NewFlipkartScraper(),
			myntra.NewMyntraScraper(),
		},
		Fallback: opengraph.NewOpenGraphScraper(),
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// GetScraper returns the appropriate scraper and the resolved URL
func (i *Importer) GetScraper(ctx context.Context, url string) (Scraper, string, error) {
	// Resolve shortened URLs (e.g., dl.flipkart.com, bit.ly)
	resolvedURL, err := base.ResolveShortenedURL(ctx, i.Client, url)
	if err != nil {
		return nil, url, fmt.Errorf("error resolving url: %v", err)
	}

	for _, s := range i.Scrapers {
		if s.CanScrape(resolvedURL) {
			return s, resolvedURL, nil
		}
	}
	if i.Fallback != nil {
		return i.Fallback, resolvedURL, nil
	}
	return nil, resolvedURL, fmt.Errorf("no scraper found for url: %s", resolvedURL)
}

func (i *Importer) ScrapeProduct(ctx context.Context, url string) (*models.Product, error) {
	s, resolvedURL, err := i.GetScraper(ctx, url)
	if err != nil {
		return nil, err
	}
	product, err := s.ScrapeProduct(ctx, resolvedURL)
	if err != nil {
		return nil, err
	}
	if product.SourceURL == "" {
		product.SourceURL = resolvedURL
	}
	return product, nil
}
