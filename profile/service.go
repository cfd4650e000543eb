// Package profile manages the users/{uid} profile document.
package profile

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
)

type Service struct {
	Store   docstore.Store
	Objects objectstore.Store
	Folder  string
}

func NewService(store docstore.Store, objects objectstore.Store, folder string) *Service {
	return &Service{Store: store, Objects: objects, Folder: folder}
}

// Signup is what the client knows about a new account.
type Signup struct {
	DisplayName string                  `json:"display_name"`
	Email       string                  `json:"email"`
	PhotoURL    string                  `json:"photo_url"`
	Phone       string                  `json:"phone"`
	Bio         string                  `json:"bio"`
	Gender      models.Gender           `json:"gender"`
	Settings    *models.ProfileSettings `json:"settings"`
}

// Patch holds the fields the profile editor may change. nil fields are left
// alone. Role is deliberately absent.
type Patch struct {
	DisplayName *string                 `json:"display_name"`
	PhotoURL    *string                 `json:"photo_url"`
	Phone       *string                 `json:"phone"`
	Bio         *string                 `json:"bio"`
	Gender      *models.Gender          `json:"gender"`
	Settings    *models.ProfileSettings `json:"settings"`
}

func docPath(uid string) string {
	return docstore.Join("users", uid)
}

// CreateOnSignup writes the profile with role "user" and default settings.
// An existing profile is returned unchanged.
func (s *Service) CreateOnSignup(ctx context.Context, uid string, in Signup) (*models.UserProfile, error) {
	if uid == "" {
		return nil, errs.Required("uid")
	}
	if !in.Gender.Valid() {
		return nil, &errs.ValidationError{Field: "gender", Message: "must be male, female or other"}
	}
	if existing, err := s.Get(ctx, uid); err == nil {
		return existing, nil
	} else if !isNotFound(err) {
		return nil, err
	}

	settings := models.ProfileSettings{KeepUploads: true, ShareTelemetry: false}
	if in.Settings != nil {
		settings = *in.Settings
	}
	err := s.Store.Set(ctx, docPath(uid), docstore.Fields{
		"uid":         uid,
		"displayName": nullable(in.DisplayName),
		"email":       nullable(in.Email),
		"photoURL":    nullable(in.PhotoURL),
		"phone":       nullable(in.Phone),
		"bio":         nullable(in.Bio),
		"gender":      nullable(string(in.Gender)),
		"role":        string(models.RoleUser),
		"settings": map[string]any{
			"keepUploads":    settings.KeepUploads,
			"shareTelemetry": settings.ShareTelemetry,
		},
		"createdAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
	}, true)
	if err != nil {
		return nil, &errs.PersistError{Op: "create profile", Err: err}
	}
	return s.Get(ctx, uid)
}

func (s *Service) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	doc, err := s.Store.Get(ctx, docPath(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("profile %s: %w", uid, errs.ErrNotFound)
	}
	return fromDoc(uid, doc.Fields), nil
}

// Role returns the user's role, "user" when the profile has none.
func (s *Service) Role(ctx context.Context, uid string) (models.Role, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// Save applies the editor's patch. email refreshes the stored address when
// the identity provider knows one.
func (s *Service) Save(ctx context.Context, uid, email string, p Patch) (*models.UserProfile, error) {
	if p.Gender != nil && !p.Gender.Valid() {
		return nil, &errs.ValidationError{Field: "gender", Message: "must be male, female or other"}
	}
	if _, err := s.Get(ctx, uid); err != nil {
		return nil, err
	}

	patch := docstore.Fields{"updatedAt": docstore.ServerTimestamp}
	if p.DisplayName != nil {
		patch["displayName"] = nullable(*p.DisplayName)
	}
	if p.PhotoURL != nil {
		patch["photoURL"] = nullable(*p.PhotoURL)
	}
	if p.Phone != nil {
		patch["phone"] = nullable(*p.Phone)
	}
	if p.Bio != nil {
		patch["bio"] = nullable(*p.Bio)
	}
	if p.Gender != nil {
		patch["gender"] = nullable(string(*p.Gender))
	}
	if p.Settings != nil {
		patch["settings"] = map[string]any{
			"keepUploads":    p.Settings.KeepUploads,
			"shareTelemetry": p.Settings.ShareTelemetry,
		}
	}
	if email != "" {
		patch["email"] = email
	}

	if err := s.Store.Set(ctx, docPath(uid), patch, true); err != nil {
		return nil, &errs.PersistError{Op: "save profile", Err: err}
	}
	return s.Get(ctx, uid)
}

// UploadAvatar stores the picture under {folder}/{uid}/avatar and points
// photoURL at it.
func (s *Service) UploadAvatar(ctx context.Context, uid string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errs.Required("image")
	}
	if s.Objects == nil {
		return "", &errs.UploadError{Op: "upload avatar", Err: errs.ErrCloudNotConfigured}
	}
	obj, err := s.Objects.Upload(ctx, image, objectstore.UploadOptions{
		Folder:      path.Join(s.Folder, uid, "avatar"),
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", &errs.UploadError{Op: "upload avatar", Err: err}
	}
	url := obj.URL
	if _, err := s.Save(ctx, uid, "", Patch{PhotoURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

func fromDoc(uid string, f docstore.Fields) *models.UserProfile {
	settings := f.Map("settings")
	keep := true
	if _, ok := settings["keepUploads"]; ok {
		keep = settings.Bool("keepUploads")
	}
	role := models.Role(f.String("role"))
	if role == "" {
		role = models.RoleUser
	}
	return &models.UserProfile{
		UID:         uid,
		DisplayName: f.String("displayName"),
		Email:       f.String("email"),
		PhotoURL:    f.String("photoURL"),
		Phone:       f.String("phone"),
		Bio:         f.String("bio"),
		Gender:      models.Gender(f.String("gender")),
		Role:        role,
		Settings: models.ProfileSettings{
			KeepUploads:    keep,
			ShareTelemetry: settings.Bool("shareTelemetry"),
		},
		CreatedAt: f.Time("createdAt"),
		UpdatedAt: f.Time("updatedAt"),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
