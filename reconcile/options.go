// Package reconcile merges the garment sources of the picker into one list.
package reconcile

import (
	"sort"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// newKey names the option injected for a selection no source lists yet.
var newKey = func() string { return "sel_" + uuid.NewString() }

// Options builds the picker list: the uploaded garment of the selection,
// then the user's garments, then the catalog. A URL selection missing from
// all of them is injected at the front. Entries matching the selection move
// to the front, everything else keeps its order.
func Options(sel models.Selection, mine []models.UserGarment, catalog []models.CatalogItem) []models.GarmentOption {
	out := make([]models.GarmentOption, 0, len(mine)+len(catalog)+1)

	var selectedURL, selectedB64 string
	if sel.Garment != nil {
		selectedB64 = sel.Garment.Base64
		if selectedB64 == "" {
			selectedURL = sel.Garment.ImageURL
		}
	}

	if selectedB64 != "" {
		out = append(out, models.UploadedOption(selectedB64))
	}
	for _, g := range mine {
		out = append(out, models.MineOption(g.ID, g.ImageURL))
	}
	for _, c := range catalog {
		out = append(out, models.CatalogOption("c_"+c.ID, c.ImageURL))
	}

	if selectedURL != "" && !listsURL(out, selectedURL) {
		out = append([]models.GarmentOption{models.CatalogOption(newKey(), selectedURL)}, out...)
	}

	selectedKey := ""
	switch {
	case selectedB64 != "":
		selectedKey = "up_" + models.Prefix(selectedB64)
	case selectedURL != "":
		selectedKey = "url_" + selectedURL
	}
	if selectedKey != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ComparisonKey() == selectedKey && out[j].ComparisonKey() != selectedKey
		})
	}
	return out
}

func listsURL(options []models.GarmentOption, url string) bool {
	for _, o := range options {
		switch o.Source {
		case models.SourceMine, models.SourceCatalog:
			if o.ImageURL == url {
				return true
			}
		case models.SourceUploaded:
		}
	}
	return false
}
