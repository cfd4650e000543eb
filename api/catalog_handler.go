package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// ListCatalog returns the newest catalog items.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Catalog", r)

	items, err := h.Catalog.List(r.Context(), limitParam(r, h.CatalogLimit))
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d items", len(items)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Catalog", r)

	item, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

// ListCategories returns the categories offered by the admin form.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"categories": models.CatalogCategories})
}
