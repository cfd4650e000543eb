package models

import "time"

// CatalogItem is an admin-curated garment visible to every user.
type CatalogItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url"`

	ObjectKey string `json:"object_key,omitempty"`
	Format    string `json:"format,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	// DeleteToken is admin-only and never serialized.
	DeleteToken string `json:"-"`

	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Catalog categories offered in the admin form. Stored as free text.
var CatalogCategories = []string{"shirt", "t-shirt", "polo", "jacket", "hoodie", "dress", "other"}
