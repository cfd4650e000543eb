// Package catalog reads the public garment catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
)

// Collection is the document store collection holding catalog items.
const Collection = "catalog"

// Reader performs one-shot reads of the catalog. It neither caches nor
// retries; callers keep their previous list when a read fails.
type Reader struct {
	Store docstore.Store
}

func NewReader(store docstore.Store) *Reader {
	return &Reader{Store: store}
}

// List returns up to max newest items.
func (r *Reader) List(ctx context.Context, max int) ([]models.CatalogItem, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{
		Collection: Collection,
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      max,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	items := make([]models.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		item := FromDoc(doc)
		item.DeleteToken = ""
		items = append(items, item)
	}
	return items, nil
}

// Get returns one item for the "try this item" flow.
func (r *Reader) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	doc, err := r.Store.Get(ctx, docstore.Join(Collection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog item %s: %w", id, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("catalog item %s: %w", id, errs.ErrNotFound)
	}
	item := FromDoc(*doc)
	item.DeleteToken = ""
	return &item, nil
}

// FromDoc maps a stored document, delete token included.
func FromDoc(doc docstore.Doc) models.CatalogItem {
	f := doc.Fields
	return models.CatalogItem{
		ID:          doc.ID,
		Title:       f.String("title"),
		Description: f.String("description"),
		Category:    f.String("category"),
		ImageURL:    f.String("imageUrl"),
		ObjectKey:   f.String("objectKey"),
		Format:      f.String("format"),
		Width:       int(f.Int64("width")),
		Height:      int(f.Int64("height")),
		DeleteToken: f.String("deleteToken"),
		CreatedBy:   f.String("createdBy"),
		UpdatedBy:   f.String("updatedBy"),
		CreatedAt:   f.Time("createdAt"),
		UpdatedAt:   f.Time("updatedAt"),
	}
}
