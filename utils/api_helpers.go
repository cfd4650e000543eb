package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/inference"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Fallback error logging if encoding fails, though we can't write to w anymore if headers sent
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// RespondError sends a JSON error response and logs the error to the provided logger or stdout.
// If logger is nil, it prints to stdout using fmt.Println.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		fmt.Println("[Error]", message)
	}
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a workflow error to its HTTP status.
func RespondServiceError(w http.ResponseWriter, logger *strings.Builder, err error) {
	if logger != nil {
		AddToLogMessage(logger, fmt.Sprintf("Error: %v", err))
	}
	RespondJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	var endpointErr *inference.EndpointError
	var uploadErr *errs.UploadError
	var persistErr *errs.PersistError
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrPermissionDenied), errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrActionBusy), errors.Is(err, errs.ErrAttemptInProgress):
		return http.StatusConflict
	case errors.Is(err, errs.ErrCloudNotConfigured):
		return http.StatusNotImplemented
	case errors.As(err, &uploadErr), errors.As(err, &persistErr), errors.As(err, &endpointErr):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrNoResult):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		fmt.Printf("[LATENCY] %s %s - %v\n", r.Method, r.URL.Path, duration)
	})
}
