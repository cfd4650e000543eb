package opengraph

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

// OpenGraphScraper reads any page that publishes og:* meta tags.
type OpenGraphScraper struct {
	*base.BaseScraper
}

func NewOpenGraphScraper() *OpenGraphScraper {
	return &OpenGraphScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *OpenGraphScraper) CanScrape(url string) bool {
	return true
}

func (s *OpenGraphScraper) ScrapeProduct(ctx context.Context, url string) (*models.Product, error) {
	doc, err := s.FetchDocument(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	product := base.OpenGraph(doc)
	if product.Title == "" && len(product.Images) == 0 {
		return nil, fmt.Errorf("no product details on %s", url)
	}
	return product, nil
}
