package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/reconcile"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

type garmentsEvent struct {
	Items []models.UserGarment `json:"items"`
}

type optionsEvent struct {
	Options []models.GarmentOption `json:"options"`
}

// ListGarments returns the caller's saved garments, newest first.
func (h *Handler) ListGarments(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Garments", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	items, err := h.Garments.List(r.Context(), uid, limitParam(r, h.GarmentLimit))
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, garmentsEvent{Items: items})
}

// CreateGarment stores a garment from a multipart "image" file or an
// "image_url" form field.
func (h *Handler) CreateGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Garments", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	image, err := readImage(r, "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	var garment *models.UserGarment
	if image != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Uploading %d bytes", len(image)))
		garment, err = h.Garments.Create(r.Context(), uid, image)
	} else {
		imageURL := strings.TrimSpace(r.FormValue("image_url"))
		if imageURL == "" {
			utils.RespondError(w, &logMessageBuilder, "image or image_url is required", http.StatusBadRequest)
			return
		}
		garment, err = h.Garments.CreateFromURL(r.Context(), uid, imageURL)
	}
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "Created garment "+garment.ID)
	utils.RespondJSON(w, http.StatusCreated, garment)
}

func (h *Handler) DeleteGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Garments", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	if err := h.Garments.Remove(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamGarments pushes the caller's garment list whenever it changes.
func (h *Handler) StreamGarments(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Garments Stream", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	limit := limitParam(r, h.GarmentLimit)
	streamSnapshots(w, r, "garments", func(send func(garmentsEvent)) func() {
		sub := h.Garments.Subscribe(r.Context(), uid, limit, func(items []models.UserGarment) {
			send(garmentsEvent{Items: items})
		})
		return sub.Unsubscribe
	})
}

// GetOptions returns the garment picker: the current upload, the caller's
// garments and the catalog, deduplicated.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Options", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	mine, err := h.Garments.List(r.Context(), uid, h.GarmentLimit)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	items, err := h.Catalog.List(r.Context(), h.CatalogLimit)
	if err != nil {
		// the picker still works with the user's own garments
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Catalog unavailable: %v", err))
		items = nil
	}
	options := reconcile.Options(h.Selections.For(uid).Get(), mine, items)
	utils.RespondJSON(w, http.StatusOK, optionsEvent{Options: options})
}

// StreamOptions keeps the garment picker live: selection and garment
// changes recompute it. Catalog items are read once when the stream
// connects, so clients reconnect to pick up catalog edits. A failed catalog
// read leaves the catalog out of the stream until the next connect.
func (h *Handler) StreamOptions(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Options Stream", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	streamSnapshots(w, r, "options", func(send func(optionsEvent)) func() {
		live := reconcile.NewLive()
		if items, err := h.Catalog.List(r.Context(), h.CatalogLimit); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Catalog unavailable: %v", err))
		} else {
			live.SetCatalog(items)
		}
		unsubscribe := live.Subscribe(func(options []models.GarmentOption) {
			send(optionsEvent{Options: options})
		})
		live.Bind(r.Context(), h.Selections.For(uid), h.Garments, uid, h.GarmentLimit)
		send(optionsEvent{Options: live.Options()})
		return func() {
			unsubscribe()
			live.Close()
		}
	})
}
