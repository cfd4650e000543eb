package garments

import (
	"context"
	"log"
	"sync"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/models"
)

// Mode is the query strategy of a subscription.
type Mode int

const (
	// OrderedMode lets the store order by createdAt and apply the limit.
	OrderedMode Mode = iota
	// FallbackMode watches without ordering and sorts each snapshot locally.
	// A subscription never leaves it.
	FallbackMode
)

func (m Mode) String() string {
	if m == FallbackMode {
		return "fallback"
	}
	return "ordered"
}

// Subscription is a live view of one owner's garments.
type Subscription struct {
	repo     *Repository
	ctx      context.Context
	ownerID  string
	max      int
	onChange func([]models.UserGarment)

	mu     sync.Mutex
	mode   Mode
	stop   func()
	closed bool
}

// Subscribe watches the owner's newest maxItems garments. onChange receives
// every snapshot in the order the store emits them. A missing index switches
// the subscription to FallbackMode for good; any other error delivers an
// empty list and ends the subscription.
func (r *Repository) Subscribe(ctx context.Context, ownerID string, maxItems int, onChange func([]models.UserGarment)) *Subscription {
	s := &Subscription{
		repo:     r,
		ctx:      ctx,
		ownerID:  ownerID,
		max:      maxItems,
		onChange: onChange,
	}
	s.open()
	return s
}

// Mode reports the current strategy.
func (s *Subscription) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *Subscription) open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	mode := s.mode
	s.stop = s.repo.Store.Watch(s.ctx, s.repo.query(s.ownerID, s.max, mode),
		func(docs []docstore.Doc) { s.deliver(mode, docs) },
		func(err error) { s.fail(mode, err) },
	)
}

func (s *Subscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Subscription) deliver(mode Mode, docs []docstore.Doc) {
	if !s.active() {
		return
	}
	items := fromDocs(docs)
	if mode == FallbackMode {
		items = sortAndTrim(items, s.max)
	}
	s.onChange(items)
}

func (s *Subscription) fail(mode Mode, err error) {
	if mode == OrderedMode && docstore.IndexMissing(err) {
		s.mu.Lock()
		if s.closed || s.mode != OrderedMode {
			s.mu.Unlock()
			return
		}
		s.mode = FallbackMode
		stop := s.stop
		s.mu.Unlock()

		stop()
		log.Printf("garments: ordered watch for %s needs an index, switching to fallback", s.ownerID)
		s.open()
		return
	}

	log.Printf("garments: watch for %s failed: %v", s.ownerID, err)
	if s.active() {
		s.onChange([]models.UserGarment{})
	}
}
