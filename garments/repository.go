// Package garments keeps the garments a user uploaded ("My Shirts").
package garments

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
)

// Collection holds every user's garments, scoped by the userId field.
const Collection = "garments"

type Repository struct {
	Store   docstore.Store
	Objects objectstore.Store
	// Folder is the object store prefix; uploads land in Folder/{uid}.
	Folder string

	now func() time.Time
}

func NewRepository(store docstore.Store, objects objectstore.Store, folder string) *Repository {
	return &Repository{Store: store, Objects: objects, Folder: folder, now: time.Now}
}

// Create uploads the image and then records it. An upload failure writes
// nothing. A record failure leaves the uploaded object behind.
func (r *Repository) Create(ctx context.Context, ownerID string, image []byte) (*models.UserGarment, error) {
	if ownerID == "" {
		return nil, errs.Required("owner")
	}
	if len(image) == 0 {
		return nil, errs.Required("image")
	}
	if r.Objects == nil {
		return nil, &errs.UploadError{Op: "create garment", Err: errs.ErrCloudNotConfigured}
	}

	obj, err := r.Objects.Upload(ctx, image, objectstore.UploadOptions{
		Folder:      path.Join(r.Folder, ownerID),
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, &errs.UploadError{Op: "create garment", Err: err}
	}
	return r.record(ctx, ownerID, obj.URL)
}

// CreateFromURL records an image that is already hosted somewhere.
func (r *Repository) CreateFromURL(ctx context.Context, ownerID, imageURL string) (*models.UserGarment, error) {
	if ownerID == "" {
		return nil, errs.Required("owner")
	}
	if imageURL == "" {
		return nil, errs.Required("image_url")
	}
	return r.record(ctx, ownerID, imageURL)
}

func (r *Repository) record(ctx context.Context, ownerID, imageURL string) (*models.UserGarment, error) {
	local := r.now().UnixMilli()
	id, err := r.Store.Create(ctx, Collection, docstore.Fields{
		"userId":         ownerID,
		"imageUrl":       imageURL,
		"createdAt":      docstore.ServerTimestamp,
		"createdAtLocal": local,
	})
	if err != nil {
		return nil, &errs.PersistError{Op: "create garment", Err: err}
	}
	return &models.UserGarment{ID: id, UserID: ownerID, ImageURL: imageURL, CreatedAtLocal: local}, nil
}

// Remove deletes the record only. The uploaded object stays, no delete
// credential is kept for user garments.
func (r *Repository) Remove(ctx context.Context, ownerID, id string) error {
	p := docstore.Join(Collection, id)
	doc, err := r.Store.Get(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to load garment %s: %w", id, err)
	}
	if doc == nil {
		return fmt.Errorf("garment %s: %w", id, errs.ErrNotFound)
	}
	if doc.Fields.String("userId") != ownerID {
		return fmt.Errorf("garment %s: %w", id, errs.ErrForbidden)
	}
	if err := r.Store.Delete(ctx, p); err != nil {
		return fmt.Errorf("failed to delete garment %s: %w", id, err)
	}
	return nil
}

// List is the one-shot read. It falls back to an unordered read plus
// client-side sort when the ordered query needs a missing index.
func (r *Repository) List(ctx context.Context, ownerID string, max int) ([]models.UserGarment, error) {
	docs, err := r.Store.Query(ctx, r.query(ownerID, max, OrderedMode))
	if err == nil {
		return fromDocs(docs), nil
	}
	if !docstore.IndexMissing(err) {
		return nil, fmt.Errorf("failed to list garments: %w", err)
	}

	log.Printf("garments: ordered list for %s needs an index, sorting locally", ownerID)
	docs, err = r.Store.Query(ctx, r.query(ownerID, max, FallbackMode))
	if err != nil {
		return nil, fmt.Errorf("failed to list garments: %w", err)
	}
	return sortAndTrim(fromDocs(docs), max), nil
}

// query builds the listing query for a mode. The fallback reads every
// garment of the owner so the newest survive the client-side limit.
func (r *Repository) query(ownerID string, max int, mode Mode) docstore.Query {
	q := docstore.Query{Collection: Collection}.Where("userId", "==", ownerID)
	if mode == FallbackMode {
		return q
	}
	q.OrderBy = "createdAt"
	q.Direction = docstore.Desc
	q.Limit = max
	return q
}

func fromDocs(docs []docstore.Doc) []models.UserGarment {
	out := make([]models.UserGarment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.UserGarment{
			ID:             doc.ID,
			UserID:         doc.Fields.String("userId"),
			ImageURL:       doc.Fields.String("imageUrl"),
			CreatedAt:      doc.Fields.Time("createdAt"),
			CreatedAtLocal: doc.Fields.Int64("createdAtLocal"),
		})
	}
	return out
}

func sortAndTrim(items []models.UserGarment, max int) []models.UserGarment {
	SortNewestFirst(items)
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return items
}
