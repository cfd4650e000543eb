package reconcile

import (
	"context"
	"sync"

	"github.com/raushankrgupta/fitly-tryon/garments"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/selection"
)

// Live keeps the option list of one user current. Any change of the
// selection, the user's garments or the catalog snapshot recomputes the
// whole list and publishes it.
type Live struct {
	// publish serializes recompute+notify so lists are published in the
	// order the inputs changed
	publish   sync.Mutex
	mu        sync.Mutex
	sel       models.Selection
	mine      []models.UserGarment
	catalog   []models.CatalogItem
	current   []models.GarmentOption
	listeners map[int]func([]models.GarmentOption)
	nextID    int
	closers   []func()
}

func NewLive() *Live {
	l := &Live{listeners: make(map[int]func([]models.GarmentOption))}
	l.current = Options(l.sel, nil, nil)
	return l
}

// Bind follows the selection store and the owner's garment subscription
// until Close.
func (l *Live) Bind(ctx context.Context, store *selection.Store, repo *garments.Repository, ownerID string, maxGarments int) {
	l.SetSelection(store.Get())
	unsubscribe := store.Subscribe(l.SetSelection)
	sub := repo.Subscribe(ctx, ownerID, maxGarments, l.SetMine)

	l.mu.Lock()
	l.closers = append(l.closers, unsubscribe, sub.Unsubscribe)
	l.mu.Unlock()
}

// Close detaches every bound source.
func (l *Live) Close() {
	l.mu.Lock()
	closers := l.closers
	l.closers = nil
	l.mu.Unlock()
	for _, c := range closers {
		c()
	}
}

func (l *Live) SetSelection(sel models.Selection) {
	l.recompute(func() { l.sel = sel })
}

func (l *Live) SetMine(items []models.UserGarment) {
	l.recompute(func() { l.mine = append([]models.UserGarment(nil), items...) })
}

func (l *Live) SetCatalog(items []models.CatalogItem) {
	l.recompute(func() { l.catalog = append([]models.CatalogItem(nil), items...) })
}

// Options returns the current list.
func (l *Live) Options() []models.GarmentOption {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.GarmentOption(nil), l.current...)
}

// Subscribe calls fn with every recomputed list, in input order. fn must
// not feed input back into l.
func (l *Live) Subscribe(fn func([]models.GarmentOption)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

func (l *Live) recompute(apply func()) {
	l.publish.Lock()
	defer l.publish.Unlock()

	l.mu.Lock()
	apply()
	l.current = Options(l.sel, l.mine, l.catalog)
	list := l.current
	listeners := make([]func([]models.GarmentOption), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(append([]models.GarmentOption(nil), list...))
	}
}
