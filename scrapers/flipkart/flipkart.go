package flipkart

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

type FlipkartScraper struct {
	*base.BaseScraper
}

func NewFlipkartScraper() *FlipkartScraper {
	return &FlipkartScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *FlipkartScraper) CanScrape(url string) bool {
	return strings.Contains(url, "flipkart.com")
}

func (s *FlipkartScraper) ScrapeProduct(ctx context.Context, url string) (*models.Product, error) {
	doc, err := s.FetchDocument(ctx, url, func(doc *goquery.Document) bool {
		return doc.Find("h1").Length() > 0 || doc.Find(".B_NuCI").Length() > 0
	})
	if err != nil {
		return nil, err
	}
	return Parse(doc), nil
}

// Parse reads a product page, old and new layouts.
func Parse(doc *goquery.Document) *models.Product {
	product := base.OpenGraph(doc)

	title := strings.TrimSpace(doc.Find(".B_NuCI").Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1.yhB1nd span").Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title != "" {
		product.Title = title
	}

	desc := strings.TrimSpace(doc.Find("div._1mXcCf").Text())
	if desc == "" {
		desc = strings.TrimSpace(doc.Find("div.yN5-Ad").Text())
	}
	if desc != "" {
		product.Description = desc
	}

	// breadcrumb: Home > Clothing > Men > Shirts > ...
	crumbs := doc.Find("div._1MR4o5 a, div.r2CdBx a")
	if crumbs.Length() > 1 {
		product.Category = strings.TrimSpace(crumbs.Eq(crumbs.Length() - 1).Text())
	}

	// Thumbnails are 128x128; the same path serves 832x832
	var images []string
	doc.Find("ul._3GnUWp li._20Gt85 img, ul.ZqtVYK li img").Each(func(i int, s *goquery.Selection) {
		src := base.Absolute(doc, s.AttrOr("src", ""))
		images = base.AppendImage(images, strings.Replace(src, "/128/128/", "/832/832/", 1))
	})
	if len(images) == 0 {
		images = base.AppendImage(images, base.Absolute(doc, doc.Find("img._396cs4, img.DByuf4").First().AttrOr("src", "")))
	}
	for _, img := range product.Images {
		images = base.AppendImage(images, img)
	}
	product.Images = images
	return product
}
