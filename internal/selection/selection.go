package selection

import (
	"fmt"
	"sync"

	"github.com/slok/inferctl/internal/model"
)

// Tracker keeps a selected service pointer consistent with a changing service list.
//
// After every Sync the selection is unset if and only if the list is empty,
// otherwise it references an element of the list.
type Tracker struct {
	selected string
	ids      map[string]struct{}
	mu       sync.RWMutex
}

// NewTracker returns a tracker with no selection.
func NewTracker() *Tracker {
	return &Tracker{ids: map[string]struct{}{}}
}

// Sync reconciles the selection with a new service list and returns the
// resulting selection.
func (t *Tracker) Sync(services []model.Service) (id string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ids = make(map[string]struct{}, len(services))
	for _, s := range services {
		t.ids[s.ID] = struct{}{}
	}

	switch {
	case len(services) == 0:
		t.selected = ""
	case !t.has(t.selected):
		t.selected = services[0].ID
	}

	return t.selected, t.selected != ""
}

// Selected returns the current selection.
func (t *Tracker) Selected() (id string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.selected, t.selected != ""
}

// Select selects a service of the last synced list.
func (t *Tracker) Select(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.has(id) {
		return fmt.Errorf("service %q is not in the list: %w", id, model.ErrNotFound)
	}
	t.selected = id
	return nil
}

func (t *Tracker) has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := t.ids[id]
	return ok
}
