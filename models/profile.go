package models

import "time"

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type ProfileSettings struct {
	KeepUploads    bool `json:"keep_uploads"`
	ShareTelemetry bool `json:"share_telemetry"`
}

// UserProfile is the per-user document created at signup.
type UserProfile struct {
	UID         string          `json:"uid"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email"`
	PhotoURL    string          `json:"photo_url,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Bio         string          `json:"bio,omitempty"`
	Gender      Gender          `json:"gender,omitempty"`
	Role        Role            `json:"role"`
	Settings    ProfileSettings `json:"settings"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}
