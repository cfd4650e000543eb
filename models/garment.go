package models

import "time"

// GarmentSource tags where a garment option came from.
type GarmentSource string

const (
	SourceUploaded GarmentSource = "uploaded"
	SourceMine     GarmentSource = "mine"
	SourceCatalog  GarmentSource = "catalog"
)

// keyPrefixLen is how much of an uploaded payload identifies it.
const keyPrefixLen = 24

// GarmentOption is one entry of the garment picker. Uploaded options carry
// the image payload, mine/catalog options carry a URL; never both.
type GarmentOption struct {
	Key      string        `json:"key"`
	Source   GarmentSource `json:"source"`
	Base64   string        `json:"base64,omitempty"`
	ImageURL string        `json:"image_url,omitempty"`
}

func UploadedOption(base64 string) GarmentOption {
	return GarmentOption{Key: "up_" + Prefix(base64), Source: SourceUploaded, Base64: base64}
}

func MineOption(id, imageURL string) GarmentOption {
	return GarmentOption{Key: "m_" + id, Source: SourceMine, ImageURL: imageURL}
}

func CatalogOption(key, imageURL string) GarmentOption {
	return GarmentOption{Key: key, Source: SourceCatalog, ImageURL: imageURL}
}

// ComparisonKey identifies the option by content so it can be matched
// against the current selection.
func (o GarmentOption) ComparisonKey() string {
	switch o.Source {
	case SourceUploaded:
		return "up_" + Prefix(o.Base64)
	case SourceMine, SourceCatalog:
		return "url_" + o.ImageURL
	default:
		panic("models: unknown garment source " + string(o.Source))
	}
}

// Prefix returns the first 24 characters of an image payload.
func Prefix(payload string) string {
	if len(payload) <= keyPrefixLen {
		return payload
	}
	return payload[:keyPrefixLen]
}

// UserGarment is a garment image a user uploaded and kept ("My Shirts").
type UserGarment struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ImageURL string `json:"image_url"`
	// CreatedAt is nil until the store has resolved the server timestamp.
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	CreatedAtLocal int64      `json:"created_at_local"` // epoch ms, client clock
}
