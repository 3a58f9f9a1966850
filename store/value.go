// ABOUTME: Single-object store for session, business, user and UI preferences
// ABOUTME: Same subscribe/notify contract as ListStore
package store

import (
	"sync"
)

type Value[S any] struct {
	mu      sync.RWMutex
	state   S
	initial S
	subs    subscribers
}

func NewValue[S any](initial S) *Value[S] {
	return &Value[S]{state: initial, initial: initial}
}

func (v *Value[S]) Get() S {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *Value[S]) Set(state S) {
	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
	v.subs.notify()
}

// Update applies fn to the current state atomically.
func (v *Value[S]) Update(fn func(S) S) {
	v.mu.Lock()
	v.state = fn(v.state)
	v.mu.Unlock()
	v.subs.notify()
}

// Reset restores the initial state.
func (v *Value[S]) Reset() {
	v.Set(v.initial)
}

func (v *Value[S]) Subscribe(fn func()) func() {
	return v.subs.add(fn)
}

func (v *Value[S]) restore(state S) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
}
