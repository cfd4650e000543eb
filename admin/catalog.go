// Package admin lets catalog administrators create, edit and delete catalog
// items.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/catalog"
	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
)

// RoleSource looks up a user's role.
type RoleSource interface {
	Role(ctx context.Context, uid string) (models.Role, error)
}

// PageScraper extracts product details from a shop page.
type PageScraper interface {
	ScrapeProduct(ctx context.Context, url string) (*models.Product, error)
}

// CatalogService runs catalog mutations. Images are always uploaded before
// any document write that references them.
type CatalogService struct {
	Store   docstore.Store
	Objects objectstore.Store
	Roles   RoleSource
	Scraper PageScraper
	Folder  string
}

func NewCatalogService(store docstore.Store, objects objectstore.Store, roles RoleSource, folder string) *CatalogService {
	return &CatalogService{Store: store, Objects: objects, Roles: roles, Folder: folder}
}

// Item is the admin form.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Changes holds the edited fields; nil fields keep their stored value.
type Changes struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// RequireAdmin fails with errs.ErrForbidden unless uid has the admin role.
func (s *CatalogService) RequireAdmin(ctx context.Context, uid string) error {
	if s.Roles == nil {
		return nil
	}
	role, err := s.Roles.Role(ctx, uid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrForbidden
		}
		return err
	}
	if role != models.RoleAdmin {
		return errs.ErrForbidden
	}
	return nil
}

func (s *CatalogService) upload(ctx context.Context, op, editorID string, image []byte) (*objectstore.Object, error) {
	if s.Objects == nil {
		return nil, &errs.UploadError{Op: op, Err: errs.ErrCloudNotConfigured}
	}
	obj, err := s.Objects.Upload(ctx, image, objectstore.UploadOptions{Folder: path.Join(s.Folder, editorID)})
	if err != nil {
		return nil, &errs.UploadError{Op: op, Err: err}
	}
	return obj, nil
}

// Create uploads the image and then writes the catalog document. A failed
// upload writes nothing; a failed write leaves the uploaded object behind.
func (s *CatalogService) Create(ctx context.Context, editorID string, in Item, image []byte) (*models.CatalogItem, error) {
	if err := s.RequireAdmin(ctx, editorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errs.Required("title")
	}
	if len(image) == 0 {
		return nil, errs.Required("image")
	}
	obj, err := s.upload(ctx, "create catalog item", editorID, image)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, editorID, in, obj)
}

func (s *CatalogService) insert(ctx context.Context, editorID string, in Item, obj *objectstore.Object) (*models.CatalogItem, error) {
	fields := docstore.Fields{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"category":    in.Category,
		"createdBy":   editorID,
		"createdAt":   docstore.ServerTimestamp,
	}
	for k, v := range imageFields(obj) {
		fields[k] = v
	}
	id, err := s.Store.Create(ctx, catalog.Collection, fields)
	if err != nil {
		return nil, &errs.PersistError{Op: "create catalog item", Err: err}
	}
	return s.get(ctx, id)
}

// Update reads the item, uploads a new image when one is given, tries to
// delete the replaced object and finally writes every change in one call.
// Failing to delete the old object never fails the update.
func (s *CatalogService) Update(ctx context.Context, editorID, id string, c Changes, image []byte) (*models.CatalogItem, error) {
	if err := s.RequireAdmin(ctx, editorID); err != nil {
		return nil, err
	}
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return nil, errs.Required("title")
	}
	before, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := docstore.Fields{
		"updatedBy": editorID,
		"updatedAt": docstore.ServerTimestamp,
	}
	if c.Title != nil {
		patch["title"] = strings.TrimSpace(*c.Title)
	}
	if c.Description != nil {
		patch["description"] = *c.Description
	}
	if c.Category != nil {
		patch["category"] = *c.Category
	}

	if len(image) > 0 {
		obj, err := s.upload(ctx, "update catalog item", editorID, image)
		if err != nil {
			return nil, err
		}
		for k, v := range imageFields(obj) {
			patch[k] = v
		}
		if before.DeleteToken != "" {
			if err := s.Objects.DeleteByToken(ctx, before.DeleteToken); err != nil {
				log.Printf("failed to delete old image of catalog item %s: %v", id, err)
			}
		}
	}

	if err := s.Store.Update(ctx, docstore.Join(catalog.Collection, id), patch); err != nil {
		return nil, &errs.PersistError{Op: "update catalog item", Err: err}
	}
	return s.get(ctx, id)
}

// Delete removes the item's object when a delete token is stored, then the
// document. The document is deleted even when the object delete fails.
func (s *CatalogService) Delete(ctx context.Context, editorID, id string) error {
	if err := s.RequireAdmin(ctx, editorID); err != nil {
		return err
	}
	p := docstore.Join(catalog.Collection, id)
	doc, err := s.Store.Get(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to load catalog item %s: %w", id, err)
	}
	if doc != nil && s.Objects != nil {
		if token := doc.Fields.String("deleteToken"); token != "" {
			if err := s.Objects.DeleteByToken(ctx, token); err != nil {
				log.Printf("failed to delete image of catalog item %s: %v", id, err)
			}
		}
	}
	if err := s.Store.Delete(ctx, p); err != nil {
		return &errs.PersistError{Op: "delete catalog item", Err: err}
	}
	return nil
}

// ImportFromPage scrapes a product page and adds its first image to the
// catalog. Form fields left empty are taken from the page.
func (s *CatalogService) ImportFromPage(ctx context.Context, editorID, pageURL string, in Item) (*models.CatalogItem, error) {
	if err := s.RequireAdmin(ctx, editorID); err != nil {
		return nil, err
	}
	if pageURL == "" {
		return nil, errs.Required("url")
	}
	if s.Scraper == nil {
		return nil, fmt.Errorf("page import is not configured")
	}
	product, err := s.Scraper.ScrapeProduct(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", pageURL, err)
	}
	if len(product.Images) == 0 {
		return nil, &errs.ValidationError{Field: "url", Message: "no product image found on the page"}
	}
	if in.Title == "" {
		in.Title = product.Title
	}
	if in.Description == "" {
		in.Description = product.Description
	}
	if in.Category == "" {
		in.Category = product.Category
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errs.Required("title")
	}
	if s.Objects == nil {
		return nil, &errs.UploadError{Op: "import catalog item", Err: errs.ErrCloudNotConfigured}
	}

	obj, err := objectstore.UploadURI(ctx, s.Objects, product.Images[0], objectstore.UploadOptions{Folder: path.Join(s.Folder, editorID)})
	if err != nil {
		return nil, &errs.UploadError{Op: "import catalog item", Err: err}
	}
	return s.insert(ctx, editorID, in, obj)
}

// get reads an item, delete token included.
func (s *CatalogService) get(ctx context.Context, id string) (*models.CatalogItem, error) {
	doc, err := s.Store.Get(ctx, docstore.Join(catalog.Collection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog item %s: %w", id, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("catalog item %s: %w", id, errs.ErrNotFound)
	}
	item := catalog.FromDoc(*doc)
	return &item, nil
}

func imageFields(obj *objectstore.Object) docstore.Fields {
	return docstore.Fields{
		"imageUrl":    obj.URL,
		"objectKey":   obj.Key,
		"format":      obj.Format,
		"width":       int64(obj.Width),
		"height":      int64(obj.Height),
		"deleteToken": nullable(obj.DeleteToken),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
