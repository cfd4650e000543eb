package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// GalleryResponse is the caller's try-on history, newest first.
type GalleryResponse struct {
	Images []models.HistoryRecord `json:"images"`
	Total  int                    `json:"total"`
}

// ListHistory handles fetching the user's saved try-on results
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Gallery", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	records, err := h.History.List(r.Context(), uid, limitParam(r, h.HistoryLimit))
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, GalleryResponse{Images: records, Total: len(records)})
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Gallery", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	if err := h.History.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory removes every history record of the caller.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Gallery", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	n, err := h.History.Clear(r.Context(), uid)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Deleted %d records", n))
	utils.RespondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// StreamHistory pushes the caller's history whenever it changes. A store
// error ends the stream.
func (h *Handler) StreamHistory(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Gallery Stream", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	limit := limitParam(r, h.HistoryLimit)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	streamSnapshots(w, r.WithContext(ctx), "history", func(send func(GalleryResponse)) func() {
		return h.History.Watch(ctx, uid, limit, func(records []models.HistoryRecord) {
			send(GalleryResponse{Images: records, Total: len(records)})
		}, func(err error) {
			log.Printf("history stream for %s stopped: %v", uid, err)
			cancel()
		})
	})
}
