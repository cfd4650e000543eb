package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raushankrgupta/fitly-tryon/admin"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// ImportRequest asks the server to build a catalog item from a shop page.
// Form fields left empty are filled from the page.
type ImportRequest struct {
	URL string `json:"url"`
	admin.Item
}

// CreateCatalogItem takes a multipart form: title, description, category
// and the "image" file.
func (h *Handler) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Admin Catalog", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	image, err := readImage(r, "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	in := admin.Item{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	item, err := h.Admin.Create(r.Context(), uid, in, image)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "Created catalog item "+item.ID)
	utils.RespondJSON(w, http.StatusCreated, item)
}

// ImportCatalogItem scrapes a product page into a new catalog item.
func (h *Handler) ImportCatalogItem(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Admin Catalog Import", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	var req ImportRequest
	if !decodeJSON(w, r, &logMessageBuilder, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		utils.RespondError(w, &logMessageBuilder, "url is required", http.StatusBadRequest)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Importing %s", req.URL))

	item, err := h.Admin.ImportFromPage(r.Context(), uid, req.URL, req.Item)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "Created catalog item "+item.ID)
	utils.RespondJSON(w, http.StatusCreated, item)
}

// UpdateCatalogItem takes the same multipart form as create. Absent fields
// keep their value; an "image" file replaces the picture.
func (h *Handler) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Admin Catalog", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	image, err := readImage(r, "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	var c admin.Changes
	c.Title, _ = formValue(r, "title")
	c.Description, _ = formValue(r, "description")
	c.Category, _ = formValue(r, "category")

	item, err := h.Admin.Update(r.Context(), uid, chi.URLParam(r, "id"), c, image)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Admin Catalog", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	if err := h.Admin.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
