package models

// PersonPhoto is the photo of the user chosen for the current try-on.
type PersonPhoto struct {
	Base64   string `json:"base64,omitempty"`
	LocalURI string `json:"local_uri,omitempty"`
}

// GarmentSelection is the garment chosen for the current try-on. Exactly one
// of Base64 (own upload) or ImageURL (catalog / saved garment) is set.
type GarmentSelection struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Selection is the in-progress try-on session state.
type Selection struct {
	Person  *PersonPhoto      `json:"person,omitempty"`
	Garment *GarmentSelection `json:"garment,omitempty"`
}

// HasGarment reports whether a garment payload is selected.
func (s Selection) HasGarment() bool {
	return s.Garment != nil && (s.Garment.Base64 != "" || s.Garment.ImageURL != "")
}

// HasPerson reports whether a person photo is selected.
func (s Selection) HasPerson() bool {
	return s.Person != nil && s.Person.Base64 != ""
}
