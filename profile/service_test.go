package profile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
)

func newService(t *testing.T) (*Service, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	objects, err := objectstore.NewLocal(t.TempDir(), "http://x/files")
	require.NoError(t, err)
	return NewService(store, objects, "tryon"), store
}

func TestCreateOnSignupDefaults(t *testing.T) {
	svc, _ := newService(t)

	p, err := svc.CreateOnSignup(context.Background(), "u1", Signup{DisplayName: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.True(t, p.Settings.KeepUploads)
	assert.False(t, p.Settings.ShareTelemetry)
	assert.Equal(t, "Asha", p.DisplayName)
	assert.NotNil(t, p.CreatedAt)
}

func TestCreateOnSignupKeepsExistingProfile(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.CreateOnSignup(ctx, "u1", Signup{DisplayName: "Asha"})
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "users/u1", docstore.Fields{"role": "admin"}))

	p, err := svc.CreateOnSignup(ctx, "u1", Signup{DisplayName: "Someone else"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, "Asha", p.DisplayName)
}

func TestSaveNeverTouchesRole(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.CreateOnSignup(ctx, "u1", Signup{})
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "users/u1", docstore.Fields{"role": "staff"}))

	name, bio := "New name", ""
	gender := models.GenderFemale
	p, err := svc.Save(ctx, "u1", "new@example.com", Patch{
		DisplayName: &name,
		Bio:         &bio,
		Gender:      &gender,
		Settings:    &models.ProfileSettings{KeepUploads: false, ShareTelemetry: true},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, p.Role)
	assert.Equal(t, "New name", p.DisplayName)
	assert.Equal(t, "new@example.com", p.Email)
	assert.Equal(t, models.GenderFemale, p.Gender)
	assert.False(t, p.Settings.KeepUploads)
	assert.True(t, p.Settings.ShareTelemetry)
}

func TestSaveValidatesGender(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateOnSignup(context.Background(), "u1", Signup{})
	require.NoError(t, err)

	bad := models.Gender("robot")
	_, err = svc.Save(context.Background(), "u1", "", Patch{Gender: &bad})
	assert.True(t, errs.IsValidation(err))
}

func TestSaveMissingProfile(t *testing.T) {
	svc, _ := newService(t)
	name := "x"
	_, err := svc.Save(context.Background(), "ghost", "", Patch{DisplayName: &name})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUploadAvatar(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.CreateOnSignup(ctx, "u1", Signup{})
	require.NoError(t, err)

	url, err := svc.UploadAvatar(ctx, "u1", []byte("jpeg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://x/files/tryon/u1/avatar/"))

	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, url, p.PhotoURL)
}

func TestUploadAvatarWithoutObjectStore(t *testing.T) {
	svc := NewService(docstore.NewMemory(), nil, "tryon")
	_, err := svc.UploadAvatar(context.Background(), "u1", []byte("jpeg"))
	var uploadErr *errs.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.ErrorIs(t, err, errs.ErrCloudNotConfigured)
}
