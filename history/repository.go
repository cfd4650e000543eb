// Package history stores the user's saved try-on results (the wardrobe).
package history

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/models"
)

type Repository struct {
	Store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{Store: store}
}

func collection(uid string) string {
	return docstore.Join("users", uid, "wardrobe")
}

// Add appends a record and returns its id.
func (r *Repository) Add(ctx context.Context, uid string, rec models.HistoryRecord) (string, error) {
	fields := docstore.Fields{
		"imageUrl":      nullable(rec.ImageURL),
		"localUri":      nullable(rec.LocalURI),
		"garmentUrl":    nullable(rec.GarmentURL),
		"hasGarmentB64": rec.HasGarmentB64,
		"createdAt":     docstore.ServerTimestamp,
	}
	id, err := r.Store.Create(ctx, collection(uid), fields)
	if err != nil {
		return "", fmt.Errorf("failed to add history record: %w", err)
	}
	return id, nil
}

// SetImageURL attaches the cloud copy to an existing record.
func (r *Repository) SetImageURL(ctx context.Context, uid, id, imageURL string) error {
	if err := r.Store.Update(ctx, docstore.Join(collection(uid), id), docstore.Fields{"imageUrl": imageURL}); err != nil {
		return fmt.Errorf("failed to update history record %s: %w", id, err)
	}
	return nil
}

func (r *Repository) query(uid string, max int) docstore.Query {
	return docstore.Query{
		Collection: collection(uid),
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      max,
	}
}

// List returns the newest records first.
func (r *Repository) List(ctx context.Context, uid string, max int) ([]models.HistoryRecord, error) {
	docs, err := r.Store.Query(ctx, r.query(uid, max))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return fromDocs(docs), nil
}

// Watch streams the wardrobe until stop is called.
func (r *Repository) Watch(ctx context.Context, uid string, max int, onChange func([]models.HistoryRecord), onError func(error)) (stop func()) {
	return r.Store.Watch(ctx, r.query(uid, max),
		func(docs []docstore.Doc) { onChange(fromDocs(docs)) },
		onError,
	)
}

func (r *Repository) Delete(ctx context.Context, uid, id string) error {
	if err := r.Store.Delete(ctx, docstore.Join(collection(uid), id)); err != nil {
		return fmt.Errorf("failed to delete history record %s: %w", id, err)
	}
	return nil
}

// Clear deletes every record of the user and returns how many went away.
func (r *Repository) Clear(ctx context.Context, uid string) (int, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{Collection: collection(uid)})
	if err != nil {
		return 0, fmt.Errorf("failed to list history: %w", err)
	}
	for i, doc := range docs {
		if err := r.Store.Delete(ctx, doc.Path); err != nil {
			return i, fmt.Errorf("failed to delete history record %s: %w", doc.ID, err)
		}
	}
	return len(docs), nil
}

func fromDocs(docs []docstore.Doc) []models.HistoryRecord {
	out := make([]models.HistoryRecord, 0, len(docs))
	for _, doc := range docs {
		rec := models.HistoryRecord{
			ID:            doc.ID,
			ImageURL:      doc.Fields.String("imageUrl"),
			LocalURI:      doc.Fields.String("localUri"),
			GarmentURL:    doc.Fields.String("garmentUrl"),
			HasGarmentB64: doc.Fields.Bool("hasGarmentB64"),
		}
		if t := doc.Fields.Time("createdAt"); t != nil {
			rec.CreatedAt = *t
		}
		out = append(out, rec)
	}
	return out
}

// nullable stores absent strings as null, the way the mobile client did.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
