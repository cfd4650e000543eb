package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-tryon/admin"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/catalog"
	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/garments"
	"github.com/raushankrgupta/fitly-tryon/history"
	"github.com/raushankrgupta/fitly-tryon/inference"
	"github.com/raushankrgupta/fitly-tryon/localstore"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
	"github.com/raushankrgupta/fitly-tryon/profile"
	"github.com/raushankrgupta/fitly-tryon/selection"
	"github.com/raushankrgupta/fitly-tryon/tryon"
)

const (
	personB64  = "cGVyc29uLXBob3RvLWJ5dGVzLWZvci10ZXN0cw=="
	garmentB64 = "Z2FybWVudC1waG90by1ieXRlcy1mb3ItdGVzdHM="
)

type testServer struct {
	*httptest.Server
	store    *docstore.Memory
	verifier *auth.JWTVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()

	store := docstore.NewMemory()
	objects, err := objectstore.NewLocal(filepath.Join(root, "objects"), "http://files.test/files")
	require.NoError(t, err)
	files, err := localstore.NewFiles(filepath.Join(root, "app"))
	require.NoError(t, err)
	verifier, err := auth.NewJWTVerifier("test-secret")
	require.NoError(t, err)

	profiles := profile.NewService(store, objects, "tryon")
	hist := history.NewRepository(store)
	selections := selection.NewRegistry()
	sessions := tryon.NewSessions(tryon.Deps{
		Inference: &inference.Mock{},
		Files:     files,
		Gallery:   &localstore.DirGallery{Dir: filepath.Join(root, "gallery"), Files: files},
		Picker:    &localstore.DirFolderPicker{},
		Objects:   objects,
		History:   hist,
		Folder:    "tryon",
	}, selections)

	h := &Handler{
		Catalog:      catalog.NewReader(store),
		Garments:     garments.NewRepository(store, objects, "tryon"),
		Selections:   selections,
		TryOn:        sessions,
		History:      hist,
		Profiles:     profiles,
		Admin:        admin.NewCatalogService(store, objects, profiles, "tryon"),
		GarmentLimit: 100,
		CatalogLimit: 60,
		HistoryLimit: 50,
	}
	srv := httptest.NewServer(NewRouter(h, verifier, filepath.Join(root, "objects")))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, verifier: verifier}
}

func (s *testServer) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := s.verifier.GenerateToken(uid, uid+"@example.com")
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, uid, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, uid))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(t *testing.T, uid, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return s.do(t, uid, method, path, "application/json", body)
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "image.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthzIsPublic(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, "", http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/catalog", "/garments", "/selection", "/try-on/current", "/history", "/profile"} {
		resp := s.do(t, "", http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestTryOnWithoutPersonIsRejected(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, "u1", http.MethodPost, "/try-on", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "photo")

	view := decode[models.TryOn](t, s.do(t, "u1", http.MethodGet, "/try-on/current", "", nil))
	assert.Equal(t, models.TryOnFailed, view.State)
	assert.NotEmpty(t, view.Error)
}

func TestTryOnFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{Base64: personB64})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{ImageURL: "https://cdn.test/shirt.jpg"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.doJSON(t, "u1", http.MethodPost, "/try-on", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.TryOn](t, resp)
	assert.Equal(t, models.TryOnSucceeded, view.State)
	assert.Equal(t, personB64, view.ResultBase64)
	assert.Equal(t, "https://cdn.test/shirt.jpg", view.GarmentURL)
	assert.Contains(t, view.Actions, models.ActionUpload)

	resp = s.doJSON(t, "u1", http.MethodPost, "/try-on/current/save-local", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[ActionResponse](t, resp)
	assert.True(t, strings.HasPrefix(saved.URI, "file://"))
	assert.NotEmpty(t, saved.TryOn.HistoryID)

	resp = s.doJSON(t, "u1", http.MethodPost, "/try-on/current/upload", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	uploaded := decode[ActionResponse](t, resp)
	assert.True(t, strings.HasPrefix(uploaded.URI, "http://files.test/files/tryon/u1/"))

	gallery := decode[GalleryResponse](t, s.do(t, "u1", http.MethodGet, "/history", "", nil))
	require.Len(t, gallery.Images, 1)
	assert.Equal(t, uploaded.URI, gallery.Images[0].ImageURL)
	assert.Equal(t, saved.URI, gallery.Images[0].LocalURI)

	resp = s.doJSON(t, "u1", http.MethodPost, "/try-on/current/print", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// results are per user
	resp = s.doJSON(t, "u2", http.MethodPost, "/try-on/current/save-local", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearHistory(t *testing.T) {
	s := newTestServer(t)
	s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{Base64: personB64})
	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64})
	require.Equal(t, http.StatusOK, s.doJSON(t, "u1", http.MethodPost, "/try-on", nil).StatusCode)
	require.Equal(t, http.StatusOK, s.doJSON(t, "u1", http.MethodPost, "/try-on/current/save-local", nil).StatusCode)

	resp := s.do(t, "u1", http.MethodDelete, "/history", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"deleted": 1}, decode[map[string]int](t, resp))

	gallery := decode[GalleryResponse](t, s.do(t, "u1", http.MethodGet, "/history", "", nil))
	assert.Empty(t, gallery.Images)
}

func TestSelectionValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Name: "no payload"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64, ImageURL: "https://cdn.test/a.jpg"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{LocalURI: "file:///me.jpg"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{Base64: personB64})
	sel := decode[models.Selection](t, s.do(t, "u1", http.MethodDelete, "/selection", "", nil))
	assert.Nil(t, sel.Person)
	assert.Nil(t, sel.Garment)
}

func TestSignOutDropsSessionState(t *testing.T) {
	s := newTestServer(t)

	s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{Base64: personB64})
	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{ImageURL: "https://cdn.test/shirt.jpg"})
	resp := s.doJSON(t, "u1", http.MethodPost, "/try-on", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, "u1", http.MethodDelete, "/session", "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	sel := decode[models.Selection](t, s.do(t, "u1", http.MethodGet, "/selection", "", nil))
	assert.Nil(t, sel.Person)
	assert.Nil(t, sel.Garment)
	view := decode[models.TryOn](t, s.do(t, "u1", http.MethodGet, "/try-on/current", "", nil))
	assert.Equal(t, models.TryOnIdle, view.State)
	assert.Empty(t, view.ResultBase64)
}

func TestGarmentsAndOptions(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, nil, []byte("shirt-bytes"))
	resp := s.do(t, "u1", http.MethodPost, "/garments", ct, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.UserGarment](t, resp)
	assert.Equal(t, "u1", created.UserID)

	body, ct = multipartBody(t, map[string]string{"image_url": "https://cdn.test/polo.jpg"}, nil)
	resp = s.do(t, "u1", http.MethodPost, "/garments", ct, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := decode[garmentsEvent](t, s.do(t, "u1", http.MethodGet, "/garments", "", nil))
	assert.Len(t, list.Items, 2)
	other := decode[garmentsEvent](t, s.do(t, "u2", http.MethodGet, "/garments", "", nil))
	assert.Empty(t, other.Items)

	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64})
	opts := decode[optionsEvent](t, s.do(t, "u1", http.MethodGet, "/options", "", nil))
	require.Len(t, opts.Options, 3)
	assert.Equal(t, models.SourceUploaded, opts.Options[0].Source)
	assert.Contains(t, opts.Options, models.MineOption(created.ID, created.ImageURL))

	resp = s.do(t, "u2", http.MethodDelete, "/garments/"+created.ID, "", nil)
	assert.NotEqual(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, "u1", http.MethodDelete, "/garments/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	list = decode[garmentsEvent](t, s.do(t, "u1", http.MethodGet, "/garments", "", nil))
	assert.Len(t, list.Items, 1)
}

func TestAdminCatalog(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.Set(ctx, "users/boss", docstore.Fields{"role": "admin"}, true))
	require.NoError(t, s.store.Set(ctx, "users/u1", docstore.Fields{"role": "user"}, true))

	body, ct := multipartBody(t, map[string]string{"title": "Linen Shirt", "category": "shirt"}, []byte("linen"))
	resp := s.do(t, "u1", http.MethodPost, "/admin/catalog", ct, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body, ct = multipartBody(t, map[string]string{"category": "shirt"}, []byte("linen"))
	resp = s.do(t, "boss", http.MethodPost, "/admin/catalog", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, map[string]string{"title": "Linen Shirt", "category": "shirt"}, []byte("linen"))
	resp = s.do(t, "boss", http.MethodPost, "/admin/catalog", ct, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[models.CatalogItem](t, resp)
	assert.Equal(t, "Linen Shirt", item.Title)

	body, ct = multipartBody(t, map[string]string{"title": "Linen Shirt II"}, nil)
	resp = s.do(t, "boss", http.MethodPut, "/admin/catalog/"+item.ID, ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.CatalogItem](t, resp)
	assert.Equal(t, "Linen Shirt II", updated.Title)
	assert.Equal(t, "shirt", updated.Category)
	assert.Equal(t, item.ImageURL, updated.ImageURL)

	list := decode[map[string][]models.CatalogItem](t, s.do(t, "u1", http.MethodGet, "/catalog", "", nil))
	require.Len(t, list["items"], 1)

	resp = s.do(t, "boss", http.MethodDelete, "/admin/catalog/"+item.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, "u1", http.MethodGet, "/catalog/"+item.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "u1", http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.doJSON(t, "u1", http.MethodPost, "/profile", profile.Signup{DisplayName: "Asha"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[models.UserProfile](t, resp)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.True(t, p.Settings.KeepUploads)

	resp = s.doJSON(t, "u1", http.MethodPut, "/profile", map[string]string{"gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.doJSON(t, "u1", http.MethodPut, "/profile", map[string]any{"bio": "hi", "role": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p = decode[models.UserProfile](t, resp)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, models.RoleUser, p.Role)

	body, ct := multipartBody(t, nil, []byte("face"))
	resp = s.do(t, "u1", http.MethodPost, "/profile/avatar", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avatar := decode[map[string]string](t, resp)
	assert.True(t, strings.HasPrefix(avatar["photo_url"], "http://files.test/files/tryon/u1/avatar/"))
}

func TestHistoryStream(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/history/stream?access_token="+s.token(t, "u1"), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	next := func() GalleryResponse {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var ev GalleryResponse
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
				return ev
			}
		}
	}

	assert.Empty(t, next().Images)

	s.doJSON(t, "u1", http.MethodPut, "/selection/person", models.PersonPhoto{Base64: personB64})
	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64})
	require.Equal(t, http.StatusOK, s.doJSON(t, "u1", http.MethodPost, "/try-on", nil).StatusCode)
	require.Equal(t, http.StatusOK, s.doJSON(t, "u1", http.MethodPost, "/try-on/current/save-local", nil).StatusCode)

	for {
		if ev := next(); ev.Total == 1 {
			assert.True(t, ev.Images[0].HasGarmentB64)
			return
		}
	}
}

func TestOptionsStream(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/options/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token(t, "u1"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextOptions := func() optionsEvent {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var ev optionsEvent
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
				return ev
			}
		}
	}

	first := nextOptions()
	assert.Empty(t, first.Options)

	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64})
	for {
		ev := nextOptions()
		if len(ev.Options) == 1 {
			assert.Equal(t, models.UploadedOption(garmentB64), ev.Options[0])
			return
		}
	}
}

func openStream(t *testing.T, s *testServer, ctx context.Context, uid, path string) *bufio.Reader {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token(t, uid))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return bufio.NewReader(resp.Body)
}

func nextEvent[T any](t *testing.T, reader *bufio.Reader) T {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev T
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
			return ev
		}
	}
}

func TestGarmentsStream(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reader := openStream(t, s, ctx, "u1", "/garments/stream")
	assert.Empty(t, nextEvent[garmentsEvent](t, reader).Items)

	body, ct := multipartBody(t, map[string]string{"image_url": "https://cdn.test/polo.jpg"}, nil)
	require.Equal(t, http.StatusCreated, s.do(t, "u1", http.MethodPost, "/garments", ct, body).StatusCode)
	for {
		if ev := nextEvent[garmentsEvent](t, reader); len(ev.Items) == 1 {
			assert.Equal(t, "https://cdn.test/polo.jpg", ev.Items[0].ImageURL)
			return
		}
	}
}

func TestOptionsStreamReadsCatalogOnConnect(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.store.Set(ctx, "users/boss", docstore.Fields{"role": "admin"}, true))

	reader := openStream(t, s, ctx, "u1", "/options/stream")
	assert.Empty(t, nextEvent[optionsEvent](t, reader).Options)

	body, ct := multipartBody(t, map[string]string{"title": "Linen Shirt", "category": "shirt"}, []byte("linen"))
	require.Equal(t, http.StatusCreated, s.do(t, "boss", http.MethodPost, "/admin/catalog", ct, body).StatusCode)

	// the open stream keeps the catalog it connected with
	s.doJSON(t, "u1", http.MethodPut, "/selection/garment", models.GarmentSelection{Base64: garmentB64})
	var ev optionsEvent
	for len(ev.Options) == 0 {
		ev = nextEvent[optionsEvent](t, reader)
	}
	assert.Equal(t, []models.GarmentOption{models.UploadedOption(garmentB64)}, ev.Options)

	again := openStream(t, s, ctx, "u1", "/options/stream")
	fresh := nextEvent[optionsEvent](t, again)
	require.Len(t, fresh.Options, 2)
	assert.Equal(t, models.SourceUploaded, fresh.Options[0].Source)
	assert.Equal(t, models.SourceCatalog, fresh.Options[1].Source)
}
