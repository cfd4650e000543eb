// Package inference calls the try-on model.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/fitly-tryon/config"
)

// Request carries the person photo and exactly one garment payload.
// GarmentBase64 wins over GarmentURL.
type Request struct {
	PersonBase64    string
	GarmentBase64   string
	GarmentURL      string
	RelaxValidation bool
}

// Result is the generated image.
type Result struct {
	ImageBase64 string
}

// Client sends one try-on request. Implementations do not retry.
type Client interface {
	TryOn(ctx context.Context, req Request) (*Result, error)
}

// EndpointError is a non-2xx answer of the inference endpoint.
type EndpointError struct {
	Status int
	Detail string
}

func (e *EndpointError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Open returns the client selected by INFERENCE_PROVIDER.
func Open() (Client, error) {
	switch config.InferenceProvider {
	case "http":
		return NewHTTPClient(config.MLBackendURL), nil
	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return &Gemini{APIKey: config.GeminiAPIKey, Model: config.GeminiModel}, nil
	case "mock":
		return &Mock{Delay: 900 * time.Millisecond}, nil
	default:
		return nil, fmt.Errorf("unknown INFERENCE_PROVIDER %q", config.InferenceProvider)
	}
}

func validate(req Request) error {
	if req.PersonBase64 == "" {
		return fmt.Errorf("person image is required")
	}
	if req.GarmentBase64 == "" && req.GarmentURL == "" {
		return fmt.Errorf("garment image or garment url is required")
	}
	return nil
}
