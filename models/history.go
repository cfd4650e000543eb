package models

import "time"

// HistoryRecord is one saved try-on result in the user's wardrobe.
type HistoryRecord struct {
	ID            string    `json:"id"`
	ImageURL      string    `json:"image_url,omitempty"`
	LocalURI      string    `json:"local_uri,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	GarmentURL    string    `json:"garment_url,omitempty"`
	HasGarmentB64 bool      `json:"has_garment_b64"`
}

// DisplayURI prefers the cloud copy and falls back to the local file.
func (h HistoryRecord) DisplayURI() string {
	if h.ImageURL != "" {
		return h.ImageURL
	}
	return h.LocalURI
}
