package myntra

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

type MyntraScraper struct {
	*base.BaseScraper
}

func NewMyntraScraper() *MyntraScraper {
	return &MyntraScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *MyntraScraper) CanScrape(url string) bool {
	return strings.Contains(url, "myntra.com")
}

func (s *MyntraScraper) ScrapeProduct(ctx context.Context, url string) (*models.Product, error) {
	doc, err := s.FetchDocument(ctx, url, func(doc *goquery.Document) bool {
		return strings.Contains(doc.Text(), "window.__myx") || doc.Find("h1").Length() > 0
	})
	if err != nil {
		return nil, err
	}
	return Parse(doc), nil
}

// pdpData is the part of window.__myx we read.
type pdpData struct {
	Name           string `json:"name"`
	Title          string `json:"title"`
	ProductDetails []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"productDetails"`
	Analytics struct {
		ArticleType string `json:"articleType"`
	} `json:"analytics"`
	Media struct {
		Albums []struct {
			Images []struct {
				Src string `json:"src"`
			} `json:"images"`
		} `json:"albums"`
	} `json:"media"`
}

// Parse reads the embedded page state and falls back to the rendered markup.
func Parse(doc *goquery.Document) *models.Product {
	product := base.OpenGraph(doc)

	if pd, ok := embeddedState(doc); ok {
		if pd.Name != "" {
			product.Title = pd.Name
		} else if pd.Title != "" {
			product.Title = pd.Title
		}
		for _, d := range pd.ProductDetails {
			if d.Description != "" {
				product.Description = d.Description
				break
			}
		}
		if pd.Analytics.ArticleType != "" {
			product.Category = pd.Analytics.ArticleType
		}
		var images []string
		for _, album := range pd.Media.Albums {
			for _, img := range album.Images {
				// ($height) and ($width) are size placeholders
				src := strings.NewReplacer("($height)", "1080", "($width)", "720", "($qualityPercentage)", "90").Replace(img.Src)
				images = base.AppendImage(images, base.Absolute(doc, src))
			}
		}
		if len(images) > 0 {
			product.Images = images
		}
		return product
	}

	if title := strings.TrimSpace(doc.Find(".pdp-title").Text()); title != "" {
		name := strings.TrimSpace(doc.Find(".pdp-name").Text())
		product.Title = strings.TrimSpace(title + " " + name)
	}
	if desc := strings.TrimSpace(doc.Find(".pdp-product-description-content").Text()); desc != "" {
		product.Description = desc
	}
	var images []string
	doc.Find(".image-grid-image").Each(func(i int, s *goquery.Selection) {
		images = base.AppendImage(images, base.Absolute(doc, backgroundURL(s.AttrOr("style", ""))))
	})
	if len(images) > 0 {
		product.Images = images
	}
	return product
}

func embeddedState(doc *goquery.Document) (pdpData, bool) {
	var state struct {
		PdpData *pdpData `json:"pdpData"`
	}
	found := false
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		start := strings.Index(text, "window.__myx =")
		if start < 0 {
			return true
		}
		raw := strings.TrimSpace(text[start+len("window.__myx ="):])
		raw = strings.TrimSuffix(raw, ";")
		found = json.Unmarshal([]byte(raw), &state) == nil && state.PdpData != nil
		return false
	})
	if !found {
		return pdpData{}, false
	}
	return *state.PdpData, true
}

// backgroundURL extracts the url from `background-image: url("...")`.
func backgroundURL(style string) string {
	start := strings.Index(style, "url(")
	if start < 0 {
		return ""
	}
	start += len("url(")
	end := strings.Index(style[start:], ")")
	if end < 0 {
		return ""
	}
	return strings.Trim(style[start:start+end], "\"'")
}
