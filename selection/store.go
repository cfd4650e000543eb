// Package selection holds the person photo and garment chosen for the
// try-on in progress.
package selection

import (
	"sync"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// Listener is called with a copy of the selection after every change.
type Listener func(models.Selection)

// Store is the selection of one session. Writes are last-writer-wins and
// listeners see them in the order they were applied. Listeners must not
// write to the store they are called from.
type Store struct {
	// publish serializes apply+notify so snapshots never overtake each other
	publish   sync.Mutex
	mu        sync.Mutex
	value     models.Selection
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Get returns a copy; callers may keep or change it freely.
func (s *Store) Get() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.value)
}

// SetGarment replaces the garment. Setting Base64 drops ImageURL and the
// other way round; Base64 wins when both are given. nil clears it.
func (s *Store) SetGarment(g *models.GarmentSelection) {
	if g != nil {
		c := *g
		if c.Base64 != "" {
			c.ImageURL = ""
		}
		g = &c
	}
	s.update(func(v *models.Selection) { v.Garment = g })
}

// SetPerson replaces the person photo. nil clears it.
func (s *Store) SetPerson(p *models.PersonPhoto) {
	if p != nil {
		c := *p
		p = &c
	}
	s.update(func(v *models.Selection) { v.Person = p })
}

// Reset clears both person and garment.
func (s *Store) Reset() {
	s.update(func(v *models.Selection) { *v = models.Selection{} })
}

// Subscribe registers fn and returns a function removing it again.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) update(mutate func(*models.Selection)) {
	s.publish.Lock()
	defer s.publish.Unlock()

	s.mu.Lock()
	mutate(&s.value)
	snapshot := s.value
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(clone(snapshot))
	}
}

func clone(v models.Selection) models.Selection {
	out := models.Selection{}
	if v.Person != nil {
		p := *v.Person
		out.Person = &p
	}
	if v.Garment != nil {
		g := *v.Garment
		out.Garment = &g
	}
	return out
}

// Registry hands out one Store per user.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the user's store, creating it on first use.
func (r *Registry) For(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[userID]
	if !ok {
		s = NewStore()
		r.stores[userID] = s
	}
	return s
}

// Forget drops the user's store on sign out. Streams already bound to the
// old store keep it until they close.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, userID)
}
