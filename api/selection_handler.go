package api

import (
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Selection", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.Selections.For(uid).Get())
}

// ResetSelection clears both the person photo and the garment.
func (h *Handler) ResetSelection(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Selection", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	store := h.Selections.For(uid)
	store.Reset()
	utils.RespondJSON(w, http.StatusOK, store.Get())
}

// SignOut drops the caller's in-memory selection and try-on workflow.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Session", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	h.TryOn.Forget(uid)
	h.Selections.Forget(uid)
	w.WriteHeader(http.StatusNoContent)
}

// SetGarment replaces the selected garment. A JSON null body clears it.
func (h *Handler) SetGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Selection", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	var garment *models.GarmentSelection
	if !decodeJSON(w, r, &logMessageBuilder, &garment) {
		return
	}
	if garment != nil && garment.Base64 == "" && garment.ImageURL == "" {
		utils.RespondError(w, &logMessageBuilder, "image_url or base64 is required", http.StatusBadRequest)
		return
	}
	if garment != nil && garment.Base64 != "" && garment.ImageURL != "" {
		utils.RespondError(w, &logMessageBuilder, "only one of image_url and base64 may be set", http.StatusBadRequest)
		return
	}
	store := h.Selections.For(uid)
	store.SetGarment(garment)
	utils.RespondJSON(w, http.StatusOK, store.Get())
}

// SetPerson replaces the selected person photo. A JSON null body clears it.
func (h *Handler) SetPerson(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Selection", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	var person *models.PersonPhoto
	if !decodeJSON(w, r, &logMessageBuilder, &person) {
		return
	}
	if person != nil && person.Base64 == "" {
		utils.RespondError(w, &logMessageBuilder, "base64 is required", http.StatusBadRequest)
		return
	}
	store := h.Selections.For(uid)
	store.SetPerson(person)
	utils.RespondJSON(w, http.StatusOK, store.Get())
}
