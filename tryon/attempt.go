package tryon

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/localstore"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
)

const wardrobeDir = "wardrobe"

// Attempt is a succeeded try-on and the persistence actions on its result.
// Each action has its own busy flag; different actions may run at once.
type Attempt struct {
	ID            string
	UserID        string
	ResultBase64  string
	GarmentURL    string
	HasGarmentB64 bool
	CreatedAt     time.Time

	deps Deps

	mu        sync.Mutex
	busy      map[models.TryOnAction]bool
	localURI  string
	historyID string
	deviceURI string
	imageURL  string

	// serializes the local save shared by all three actions
	saveMu sync.Mutex
}

// CloudAvailable reports whether UploadToCloud is offered.
func (a *Attempt) CloudAvailable() bool {
	return a.deps.Objects != nil
}

// Actions lists the actions offered for this result.
func (a *Attempt) Actions() []models.TryOnAction {
	actions := []models.TryOnAction{models.ActionSaveLocal, models.ActionSaveDevice}
	if a.CloudAvailable() {
		actions = append(actions, models.ActionUpload)
	}
	return actions
}

func (a *Attempt) begin(action models.TryOnAction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy[action] {
		return fmt.Errorf("%s: %w", action, errs.ErrActionBusy)
	}
	a.busy[action] = true
	return nil
}

func (a *Attempt) end(action models.TryOnAction) {
	a.mu.Lock()
	delete(a.busy, action)
	a.mu.Unlock()
}

// Busy reports whether action is currently running.
func (a *Attempt) Busy(action models.TryOnAction) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy[action]
}

// SaveLocal writes the result into the app's wardrobe directory and records
// it in the user's history. Repeated calls reuse the file written first.
func (a *Attempt) SaveLocal(ctx context.Context) (string, error) {
	if err := a.begin(models.ActionSaveLocal); err != nil {
		return "", err
	}
	defer a.end(models.ActionSaveLocal)
	return a.saveLocal(ctx)
}

func (a *Attempt) saveLocal(ctx context.Context) (string, error) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	uri, historyID := a.localURI, a.historyID
	a.mu.Unlock()

	if uri == "" {
		name := fmt.Sprintf("tryon_%d.png", a.deps.now().UnixMilli())
		written, err := a.deps.Files.WriteBase64(wardrobeDir, name, a.ResultBase64)
		if err != nil {
			return "", fmt.Errorf("failed to save try-on result: %w", err)
		}
		uri = written
		a.mu.Lock()
		a.localURI = uri
		a.mu.Unlock()
	}

	// logged-out sessions keep the file only
	if a.UserID == "" || a.deps.History == nil || historyID != "" {
		return uri, nil
	}
	id, err := a.deps.History.Add(ctx, a.UserID, models.HistoryRecord{
		LocalURI:      uri,
		GarmentURL:    a.GarmentURL,
		HasGarmentB64: a.HasGarmentB64,
	})
	if err != nil {
		return uri, &errs.PersistError{Op: "save try-on history", Err: err}
	}
	a.mu.Lock()
	a.historyID = id
	a.mu.Unlock()
	return uri, nil
}

// SaveToDevice saves locally first, then copies the file to the gallery.
// When gallery access is denied the user-chosen export folder is used
// instead; if that fails too the error is returned.
func (a *Attempt) SaveToDevice(ctx context.Context) (string, error) {
	if err := a.begin(models.ActionSaveDevice); err != nil {
		return "", err
	}
	defer a.end(models.ActionSaveDevice)

	uri, err := a.saveLocal(ctx)
	if err != nil {
		return "", err
	}

	var saved string
	err = errs.ErrPermissionDenied
	if a.deps.Gallery != nil {
		saved, err = a.deps.Gallery.Save(ctx, uri)
	}
	if errors.Is(err, errs.ErrPermissionDenied) {
		log.Printf("gallery access denied, asking for an export folder")
		saved, err = a.exportToFolder(ctx, uri)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save to device: %w", err)
	}

	a.mu.Lock()
	a.deviceURI = saved
	a.mu.Unlock()
	return saved, nil
}

func (a *Attempt) exportToFolder(ctx context.Context, uri string) (string, error) {
	if a.deps.Picker == nil {
		return "", errs.ErrPermissionDenied
	}
	data, err := a.deps.Files.Read(uri)
	if err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimPrefix(uri, "file://"))
	return a.deps.Picker.SaveTo(ctx, name, "image/png", data)
}

// UploadToCloud saves locally first, uploads the result and attaches the
// cloud URL to the history record.
func (a *Attempt) UploadToCloud(ctx context.Context) (string, error) {
	if !a.CloudAvailable() {
		return "", errs.ErrCloudNotConfigured
	}
	if err := a.begin(models.ActionUpload); err != nil {
		return "", err
	}
	defer a.end(models.ActionUpload)

	if _, err := a.saveLocal(ctx); err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(localstore.StripDataURL(a.ResultBase64))
	if err != nil {
		return "", fmt.Errorf("invalid try-on result: %w", err)
	}
	obj, err := a.deps.Objects.Upload(ctx, data, objectstore.UploadOptions{
		Folder:      path.Join(a.deps.Folder, a.UserID),
		ContentType: "image/png",
	})
	if err != nil {
		return "", &errs.UploadError{Op: "upload try-on result", Err: err}
	}

	a.mu.Lock()
	a.imageURL = obj.URL
	historyID := a.historyID
	a.mu.Unlock()

	if historyID != "" {
		if err := a.deps.History.SetImageURL(ctx, a.UserID, historyID, obj.URL); err != nil {
			return obj.URL, &errs.PersistError{Op: "save try-on history", Err: err}
		}
	}
	return obj.URL, nil
}

// View describes the attempt for clients.
func (a *Attempt) View() models.TryOn {
	a.mu.Lock()
	defer a.mu.Unlock()
	created := a.CreatedAt
	v := models.TryOn{
		ID:            a.ID,
		UserID:        a.UserID,
		State:         models.TryOnSucceeded,
		ResultBase64:  a.ResultBase64,
		GarmentURL:    a.GarmentURL,
		HasGarmentB64: a.HasGarmentB64,
		LocalURI:      a.localURI,
		DeviceURI:     a.deviceURI,
		ImageURL:      a.imageURL,
		HistoryID:     a.historyID,
		Actions:       a.Actions(),
		CreatedAt:     &created,
	}
	for _, action := range []models.TryOnAction{models.ActionSaveLocal, models.ActionSaveDevice, models.ActionUpload} {
		if a.busy[action] {
			v.Busy = append(v.Busy, action)
		}
	}
	return v
}
