package inference

import (
	"context"
	"time"
)

// Mock answers with the person photo after Delay. Used for demos without a
// model backend.
type Mock struct {
	Delay time.Duration
}

func (m *Mock) TryOn(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.Delay):
	}
	return &Result{ImageBase64: req.PersonBase64}, nil
}
