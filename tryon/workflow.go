// Package tryon runs a try-on attempt against the inference endpoint and the
// save/export/upload actions on its result.
package tryon

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/history"
	"github.com/raushankrgupta/fitly-tryon/inference"
	"github.com/raushankrgupta/fitly-tryon/localstore"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
	"github.com/raushankrgupta/fitly-tryon/selection"
)

// Deps are the collaborators shared by every session. Objects is nil when
// cloud upload is not configured; History is optional.
type Deps struct {
	Inference inference.Client
	Files     *localstore.Files
	Gallery   localstore.Gallery
	Picker    localstore.FolderPicker
	Objects   objectstore.Store
	History   *history.Repository
	Folder    string
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Workflow is the try-on flow of one session. At most one attempt is in
// flight at a time.
type Workflow struct {
	deps      Deps
	selection *selection.Store

	mu      sync.Mutex
	state   models.TryOnState
	lastErr error
	current *Attempt
}

func NewWorkflow(deps Deps, sel *selection.Store) *Workflow {
	return &Workflow{deps: deps, selection: sel, state: models.TryOnIdle}
}

// Submit validates the selection and sends exactly one inference request.
// Validation failures return before any network call.
func (w *Workflow) Submit(ctx context.Context, userID string) (*Attempt, error) {
	w.mu.Lock()
	if w.state.InFlight() {
		w.mu.Unlock()
		return nil, errs.ErrAttemptInProgress
	}
	w.state = models.TryOnValidating
	w.lastErr = nil
	w.current = nil
	w.mu.Unlock()

	sel := w.selection.Get()
	if !sel.HasPerson() {
		return nil, w.fail(errs.ErrMissingPersonPhoto)
	}
	if !sel.HasGarment() {
		return nil, w.fail(errs.ErrMissingGarment)
	}

	w.setState(models.TryOnSubmitting)
	req := inference.Request{PersonBase64: sel.Person.Base64, RelaxValidation: true}
	if sel.Garment.Base64 != "" {
		req.GarmentBase64 = sel.Garment.Base64
	} else {
		req.GarmentURL = sel.Garment.ImageURL
	}

	w.setState(models.TryOnAwaitingResult)
	res, err := w.deps.Inference.TryOn(ctx, req)
	if err != nil {
		log.Printf("try-on failed for %s: %v", userID, err)
		return nil, w.fail(err)
	}
	if res == nil || res.ImageBase64 == "" {
		return nil, w.fail(errs.ErrNoResult)
	}

	attempt := &Attempt{
		ID:            uuid.NewString(),
		UserID:        userID,
		ResultBase64:  res.ImageBase64,
		GarmentURL:    req.GarmentURL,
		HasGarmentB64: req.GarmentBase64 != "",
		CreatedAt:     w.deps.now(),
		deps:          w.deps,
		busy:          make(map[models.TryOnAction]bool),
	}

	w.mu.Lock()
	w.state = models.TryOnSucceeded
	w.current = attempt
	w.mu.Unlock()
	return attempt, nil
}

func (w *Workflow) setState(s models.TryOnState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Workflow) fail(err error) error {
	w.mu.Lock()
	w.state = models.TryOnFailed
	w.lastErr = err
	w.mu.Unlock()
	return err
}

func (w *Workflow) State() models.TryOnState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Current returns the succeeded attempt, or nil.
func (w *Workflow) Current() *Attempt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// View describes the workflow for clients.
func (w *Workflow) View() models.TryOn {
	w.mu.Lock()
	state, lastErr, current := w.state, w.lastErr, w.current
	w.mu.Unlock()

	if current != nil {
		return current.View()
	}
	v := models.TryOn{State: state}
	if lastErr != nil {
		v.Error = lastErr.Error()
	}
	return v
}

// Sessions hands out one Workflow per user, bound to that user's selection.
type Sessions struct {
	deps       Deps
	selections *selection.Registry

	mu    sync.Mutex
	flows map[string]*Workflow
}

func NewSessions(deps Deps, selections *selection.Registry) *Sessions {
	return &Sessions{deps: deps, selections: selections, flows: make(map[string]*Workflow)}
}

func (s *Sessions) For(userID string) *Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.flows[userID]
	if !ok {
		w = NewWorkflow(s.deps, s.selections.For(userID))
		s.flows[userID] = w
	}
	return w
}

// Forget drops the user's workflow on sign out.
func (s *Sessions) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, userID)
}

// CloudAvailable reports whether the upload action is offered at all.
func (s *Sessions) CloudAvailable() bool {
	return s.deps.Objects != nil
}
