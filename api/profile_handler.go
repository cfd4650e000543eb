package api

import (
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/profile"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// GetProfile returns the caller's profile document.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Profile", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	p, err := h.Profiles.Get(r.Context(), uid)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// CreateProfile runs on sign-up. It is idempotent: an existing profile is
// returned as is.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Profile", r)

	identity, err := auth.GetIdentityFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var in profile.Signup
	if !decodeJSON(w, r, &logMessageBuilder, &in) {
		return
	}
	if in.Email == "" {
		in.Email = identity.Email
	}
	if in.DisplayName == "" {
		in.DisplayName = identity.Name
	}
	p, err := h.Profiles.CreateOnSignup(r.Context(), identity.UserID, in)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "Profile ready for "+identity.UserID)
	utils.RespondJSON(w, http.StatusOK, p)
}

// SaveProfile applies the profile editor's changes.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Profile", r)

	identity, err := auth.GetIdentityFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var patch profile.Patch
	if !decodeJSON(w, r, &logMessageBuilder, &patch) {
		return
	}
	p, err := h.Profiles.Save(r.Context(), identity.UserID, identity.Email, patch)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// UploadAvatar stores the multipart "image" file as the profile picture.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog(&logMessageBuilder)
	startLog(&logMessageBuilder, "Profile", r)

	uid, ok := userID(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	image, err := readImage(r, "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	url, err := h.Profiles.UploadAvatar(r.Context(), uid, image)
	if err != nil {
		utils.RespondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"photo_url": url})
}
