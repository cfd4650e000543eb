package models

import "time"

// TryOnState is the lifecycle of one try-on attempt.
type TryOnState string

const (
	TryOnIdle           TryOnState = "idle"
	TryOnValidating     TryOnState = "validating"
	TryOnSubmitting     TryOnState = "submitting"
	TryOnAwaitingResult TryOnState = "awaiting_result"
	TryOnSucceeded      TryOnState = "succeeded"
	TryOnFailed         TryOnState = "failed"
)

// InFlight reports whether an attempt in this state still waits for the
// inference endpoint.
func (s TryOnState) InFlight() bool {
	return s == TryOnValidating || s == TryOnSubmitting || s == TryOnAwaitingResult
}

// TryOnAction is a user-triggered persistence action on a result.
type TryOnAction string

const (
	ActionSaveLocal  TryOnAction = "save-local"
	ActionSaveDevice TryOnAction = "save-device"
	ActionUpload     TryOnAction = "upload"
)

// TryOn is the client view of the current attempt.
type TryOn struct {
	ID            string        `json:"id,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	State         TryOnState    `json:"state"`
	Error         string        `json:"error,omitempty"`
	ResultBase64  string        `json:"result_base64,omitempty"`
	GarmentURL    string        `json:"garment_url,omitempty"`
	HasGarmentB64 bool          `json:"has_garment_b64"`
	LocalURI      string        `json:"local_uri,omitempty"`
	DeviceURI     string        `json:"device_uri,omitempty"`
	ImageURL      string        `json:"image_url,omitempty"`
	HistoryID     string        `json:"history_id,omitempty"`
	Actions       []TryOnAction `json:"actions,omitempty"`
	Busy          []TryOnAction `json:"busy,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
}
