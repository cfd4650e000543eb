package models

// Product is what a shop page tells about a garment.
type Product struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"image_paths"` // absolute image URLs, best first
	SourceURL   string   `json:"source_url"`
}
