package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// ActionResponse is returned by the try-on result actions.
type ActionResponse struct {
	URI   string       `json:"uri"`
	TryOn models.TryOn `json:"try_on"`
}

// SubmitTryOn sends the caller's current selection to the inference
// endpoint and waits for the rendered image.
func (h *Handler) SubmitTryOn(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Virtual Try-On", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	attempt, err := h.TryOn.For(uid).Submit(r.Context(), uid)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "Try-on succeeded: "+attempt.ID)
	utils.RespondJSON(w, http.StatusOK, attempt.View())
}

// GetCurrentTryOn describes the caller's workflow and latest result.
func (h *Handler) GetCurrentTryOn(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Virtual Try-On", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.TryOn.For(uid).View())
}

// RunTryOnAction runs save-local, save-device or upload on the current result.
func (h *Handler) RunTryOnAction(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Virtual Try-On", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	attempt := h.TryOn.For(uid).Current()
	if attempt == nil {
		utils.RespondError(w, &logMessageBuilder, "No try-on result available", http.StatusNotFound)
		return
	}

	action := models.TryOnAction(chi.URLParam(r, "action"))
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Action %s on %s", action, attempt.ID))

	var (
		uri string
		err error
	)
	switch action {
	case models.ActionSaveLocal:
		uri, err = attempt.SaveLocal(r.Context())
	case models.ActionSaveDevice:
		uri, err = attempt.SaveToDevice(r.Context())
	case models.ActionUpload:
		uri, err = attempt.UploadToCloud(r.Context())
	default:
		utils.RespondError(w, &logMessageBuilder, "Unknown action: "+string(action), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ActionResponse{URI: uri, TryOn: attempt.View()})
}
