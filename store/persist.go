// ABOUTME: Versioned persistence boundary for store state
// ABOUTME: Wraps each blob as {version, state, saved_at} and migrates older versions on load
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/agentdash/models"
)

var (
	// ErrNotFound is returned by a KV when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrFutureVersion means the blob was written by a newer release.
	ErrFutureVersion = errors.New("persisted state has a newer version than this build understands")
)

// KV is the byte-level storage a Schema reads and writes.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Migration upgrades a raw state from version N to N+1.
type Migration func(json.RawMessage) (json.RawMessage, error)

// Schema describes how one store's state is persisted under Key.
// Migrations[n] turns a version n state into version n+1; a missing step
// means the shape did not change.
type Schema[S any] struct {
	Key        string
	Version    int
	Migrations map[int]Migration
}

type envelope struct {
	Version *int            `json:"version"`
	State   json.RawMessage `json:"state"`
	SavedAt *time.Time      `json:"saved_at,omitempty"`
}

// Encode wraps state in a versioned envelope.
func (s Schema[S]) Encode(state S, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Key, err)
	}
	version := s.Version
	return json.Marshal(envelope{Version: &version, State: raw, SavedAt: &now})
}

// Decode unwraps a blob, running migrations when it is older than s.Version.
// It returns the version the blob was written with.
func (s Schema[S]) Decode(data []byte) (S, int, error) {
	var zero S

	version, raw := 0, json.RawMessage(data)
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.State) > 0 {
		raw = env.State
		if env.Version != nil {
			version = *env.Version
		}
	}

	if version > s.Version {
		return zero, version, fmt.Errorf("%s at version %d (known %d): %w", s.Key, version, s.Version, ErrFutureVersion)
	}

	for v := version; v < s.Version; v++ {
		migrate, ok := s.Migrations[v]
		if !ok {
			continue
		}
		next, err := migrate(raw)
		if err != nil {
			return zero, version, fmt.Errorf("migrate %s from version %d: %w", s.Key, v, err)
		}
		raw = next
	}

	var state S
	if err := json.Unmarshal(raw, &state); err != nil {
		return zero, version, fmt.Errorf("decode %s: %w", s.Key, err)
	}
	return state, version, nil
}

func (s Schema[S]) Save(kv KV, state S) error {
	data, err := s.Encode(state, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := kv.Set(s.Key, data); err != nil {
		return fmt.Errorf("save %s: %w", s.Key, err)
	}
	return nil
}

// Load reads and decodes the state. A missing key returns ErrNotFound.
func (s Schema[S]) Load(kv KV) (S, error) {
	var zero S
	data, err := kv.Get(s.Key)
	if err != nil {
		return zero, err
	}
	state, _, err := s.Decode(data)
	return state, err
}

// Migrate rewrites the stored blob at the current version. It reports the
// version it found and whether a rewrite happened.
func (s Schema[S]) Migrate(kv KV) (int, bool, error) {
	data, err := kv.Get(s.Key)
	if err != nil {
		return 0, false, err
	}
	state, from, err := s.Decode(data)
	if err != nil {
		return from, false, err
	}
	if from == s.Version {
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Version != nil {
			return from, false, nil
		}
	}
	return from, true, s.Save(kv, state)
}

// bind rehydrates from kv and then saves snapshot() after every change.
// A rehydrate failure leaves the store at its initial state and is returned
// so the caller can log it; the subscription is installed either way.
func bind[S any](kv KV, schema Schema[S], restore func(S), snapshot func() S, subscribe func(func()) func(), onSaveErr func(error)) (func(), error) {
	state, err := schema.Load(kv)
	switch {
	case err == nil:
		restore(state)
	case errors.Is(err, ErrNotFound):
		err = nil
	}

	unsubscribe := subscribe(func() {
		if saveErr := schema.Save(kv, snapshot()); saveErr != nil && onSaveErr != nil {
			onSaveErr(saveErr)
		}
	})
	return unsubscribe, err
}

// PersistList binds a list store to kv under schema.
func PersistList[T models.Identifiable](kv KV, schema Schema[ListSlice[T]], ls *ListStore[T], onSaveErr func(error)) (func(), error) {
	return bind(kv, schema, ls.restore, ls.slice, ls.Subscribe, onSaveErr)
}

// PersistValue binds a value store to kv under schema.
func PersistValue[S any](kv KV, schema Schema[S], v *Value[S], onSaveErr func(error)) (func(), error) {
	return bind(kv, schema, v.restore, v.Get, v.Subscribe, onSaveErr)
}
