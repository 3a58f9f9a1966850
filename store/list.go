// ABOUTME: Generic list store mirroring one backend collection in memory
// ABOUTME: Id-keyed shallow replacement with loading/error flags and subscriber notification
package store

import (
	"sync"

	"github.com/harperreed/agentdash/models"
)

// subscribers is a small registry of change callbacks. Callbacks run after
// the store's lock has been released.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ListStore holds the last fetched page of a collection plus UI flags.
type ListStore[T models.Identifiable] struct {
	mu         sync.RWMutex
	items      []T
	selectedID string
	pagination *models.Pagination
	loading    bool
	err        error
	subs       subscribers
}

func NewListStore[T models.Identifiable]() *ListStore[T] {
	return &ListStore[T]{items: []T{}}
}

// Set replaces the whole collection.
func (s *ListStore[T]) Set(items []T) {
	s.mu.Lock()
	s.items = append(make([]T, 0, len(items)), items...)
	s.mu.Unlock()
	s.subs.notify()
}

// Items returns a copy of the collection.
func (s *ListStore[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]T, 0, len(s.items)), s.items...)
}

func (s *ListStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *ListStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Add appends item to the collection.
func (s *ListStore[T]) Add(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	s.subs.notify()
}

// Update replaces the entity with the given id wholesale. Other entities are
// untouched. It reports whether a match was found.
func (s *ListStore[T]) Update(id string, item T) bool {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].GetID() == id {
			s.items[i] = item
			found = true
		}
	}
	s.mu.Unlock()
	if found {
		s.subs.notify()
	}
	return found
}

// Remove deletes the entity with the given id and clears the selection if it
// pointed at it.
func (s *ListStore[T]) Remove(id string) bool {
	s.mu.Lock()
	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	removed := len(kept) != len(s.items)
	s.items = kept
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.mu.Unlock()
	if removed {
		s.subs.notify()
	}
	return removed
}

func (s *ListStore[T]) Select(id string) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.subs.notify()
}

// Selected returns the selected entity, if it is still in the collection.
func (s *ListStore[T]) Selected() (T, bool) {
	s.mu.RLock()
	id := s.selectedID
	s.mu.RUnlock()
	if id == "" {
		var zero T
		return zero, false
	}
	return s.Get(id)
}

func (s *ListStore[T]) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

func (s *ListStore[T]) SetPagination(p *models.Pagination) {
	s.mu.Lock()
	if p != nil {
		cp := *p
		p = &cp
	}
	s.pagination = p
	s.mu.Unlock()
	s.subs.notify()
}

func (s *ListStore[T]) Pagination() *models.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pagination == nil {
		return nil
	}
	cp := *s.pagination
	return &cp
}

func (s *ListStore[T]) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.subs.notify()
}

func (s *ListStore[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError records the last failure. Items are left as they were.
func (s *ListStore[T]) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.subs.notify()
}

func (s *ListStore[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers fn to run after every change. The returned func unsubscribes.
func (s *ListStore[T]) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// ListSlice is the persisted subset of a list store.
type ListSlice[T any] struct {
	Items      []T    `json:"items"`
	SelectedID string `json:"selected_id,omitempty"`
}

func (s *ListStore[T]) slice() ListSlice[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ListSlice[T]{
		Items:      append(make([]T, 0, len(s.items)), s.items...),
		SelectedID: s.selectedID,
	}
}

// restore loads a persisted slice without notifying subscribers.
func (s *ListStore[T]) restore(slice ListSlice[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(make([]T, 0, len(slice.Items)), slice.Items...)
	s.selectedID = slice.SelectedID
}
