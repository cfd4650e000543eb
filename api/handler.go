package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/raushankrgupta/fitly-tryon/admin"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/catalog"
	"github.com/raushankrgupta/fitly-tryon/garments"
	"github.com/raushankrgupta/fitly-tryon/history"
	"github.com/raushankrgupta/fitly-tryon/profile"
	"github.com/raushankrgupta/fitly-tryon/selection"
	"github.com/raushankrgupta/fitly-tryon/tryon"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// maxUploadSize bounds multipart bodies (10MB).
const maxUploadSize = 10 << 20

// Handler serves the HTTP API. Every route except /healthz and /files
// requires a bearer token.
type Handler struct {
	Catalog    *catalog.Reader
	Garments   *garments.Repository
	Selections *selection.Registry
	TryOn      *tryon.Sessions
	History    *history.Repository
	Profiles   *profile.Service
	Admin      *admin.CatalogService

	GarmentLimit int
	CatalogLimit int
	HistoryLimit int
}

// NewRouter wires the routes. filesDir, when set, is served under /files
// for the local object store.
func NewRouter(h *Handler, verifier auth.TokenVerifier, filesDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(utils.LatencyMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if filesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(filesDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Get("/catalog", h.ListCatalog)
		r.Get("/catalog/categories", h.ListCategories)
		r.Get("/catalog/{id}", h.GetCatalogItem)

		r.Get("/garments", h.ListGarments)
		r.Post("/garments", h.CreateGarment)
		r.Get("/garments/stream", h.StreamGarments)
		r.Delete("/garments/{id}", h.DeleteGarment)

		r.Get("/selection", h.GetSelection)
		r.Delete("/selection", h.ResetSelection)
		r.Put("/selection/garment", h.SetGarment)
		r.Put("/selection/person", h.SetPerson)

		r.Delete("/session", h.SignOut)

		r.Get("/options", h.GetOptions)
		r.Get("/options/stream", h.StreamOptions)

		r.Post("/try-on", h.SubmitTryOn)
		r.Get("/try-on/current", h.GetCurrentTryOn)
		r.Post("/try-on/current/{action}", h.RunTryOnAction)

		r.Get("/history", h.ListHistory)
		r.Delete("/history", h.ClearHistory)
		r.Get("/history/stream", h.StreamHistory)
		r.Delete("/history/{id}", h.DeleteHistory)

		r.Get("/profile", h.GetProfile)
		r.Post("/profile", h.CreateProfile)
		r.Put("/profile", h.SaveProfile)
		r.Post("/profile/avatar", h.UploadAvatar)

		r.Post("/admin/catalog", h.CreateCatalogItem)
		r.Post("/admin/catalog/import", h.ImportCatalogItem)
		r.Put("/admin/catalog/{id}", h.UpdateCatalogItem)
		r.Delete("/admin/catalog/{id}", h.DeleteCatalogItem)
	})
	return r
}

// startLog begins the per-request log line; callers defer utils.FlushLog.
func startLog(logMessageBuilder *strings.Builder, api string, r *http.Request) {
	utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("[%s API] %s %s", api, r.Method, r.URL.Path))
}

func userID(w http.ResponseWriter, r *http.Request, logMessageBuilder *strings.Builder) (string, bool) {
	uid, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	utils.AddToLogMessage(logMessageBuilder, "User: "+uid)
	return uid, true
}

func limitParam(r *http.Request, def int) int {
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		return l
	}
	return def
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logMessageBuilder *strings.Builder, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Error decoding body: %v", err))
		utils.RespondError(w, logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// readImage returns the bytes of the multipart file field, nil when the
// field is absent.
func readImage(r *http.Request, field string) ([]byte, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("error parsing form data: %w", err)
		}
	}
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxUploadSize))
}

// formValue reports whether the multipart form carries key at all.
func formValue(r *http.Request, key string) (*string, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil, false
	}
	v := values[0]
	return &v, true
}
