// ABOUTME: Per-resource request generations used to drop out-of-order responses
// ABOUTME: A load applies its result only while its generation is still the newest
package syncer

import "sync"

// Fence hands out monotonically increasing generations per resource key.
type Fence struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func NewFence() *Fence {
	return &Fence{gens: make(map[string]uint64)}
}

// Next bumps and returns the generation for key.
func (f *Fence) Next(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gens[key]++
	return f.gens[key]
}

// IsCurrent reports whether gen is still the newest generation for key.
func (f *Fence) IsCurrent(key string, gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gens[key] == gen
}
