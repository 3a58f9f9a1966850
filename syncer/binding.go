// ABOUTME: Binds one REST resource to its list store with fenced loads
// ABOUTME: Updates and removes apply optimistically and roll back when the call fails
package syncer

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

// ErrStale is returned by a load whose result was dropped because a newer
// load or a mutation on the same resource happened first.
var ErrStale = errors.New("result superseded by a newer request")

// Binding keeps a list store in step with a backend resource.
type Binding[T models.Identifiable, In any] struct {
	key     string
	fence   *Fence
	store   *store.ListStore[T]
	res     api.Resource[T, In]
	record  func(resource string, err error)
	pending atomic.Int32
}

func newBinding[T models.Identifiable, In any](s *Syncer, key string, ls *store.ListStore[T], res api.Resource[T, In]) *Binding[T, In] {
	return &Binding[T, In]{key: key, fence: s.fence, store: ls, res: res, record: s.record}
}

// Key is the resource name used for fencing and sync history.
func (b *Binding[T, In]) Key() string {
	return b.key
}

func (b *Binding[T, In]) Store() *store.ListStore[T] {
	return b.store
}

func (b *Binding[T, In]) begin() {
	if b.pending.Add(1) == 1 {
		b.store.SetLoading(true)
	}
}

func (b *Binding[T, In]) end() {
	if b.pending.Add(-1) == 0 {
		b.store.SetLoading(false)
	}
}

// Load fetches one page and replaces the store contents with it. A failed
// load keeps the previous items and sets the store error.
func (b *Binding[T, In]) Load(ctx context.Context, params api.ListParams) error {
	gen := b.fence.Next(b.key)
	b.begin()
	defer b.end()

	items, page, err := b.res.List(ctx, params)
	if !b.fence.IsCurrent(b.key, gen) || errors.Is(err, api.ErrSuperseded) {
		return ErrStale
	}
	if err != nil {
		b.store.SetError(err)
		b.record(b.key, err)
		return err
	}

	b.store.Set(items)
	b.store.SetPagination(page)
	b.store.SetError(nil)
	b.record(b.key, nil)
	return nil
}

// Get fetches one entity, refreshes it in the store when present and selects it.
func (b *Binding[T, In]) Get(ctx context.Context, id string) (*T, error) {
	item, err := b.res.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.store.Update(id, *item)
	b.store.Select(id)
	return item, nil
}

// Create adds the entity once the backend has assigned it an id.
func (b *Binding[T, In]) Create(ctx context.Context, in In) (*T, error) {
	item, err := b.res.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	b.fence.Next(b.key)
	b.store.Add(*item)
	return item, nil
}

// Update sends in and stores the server's copy. When optimistic is non-nil
// it is shown immediately and reverted if the call fails.
func (b *Binding[T, In]) Update(ctx context.Context, id string, in In, optimistic *T) (*T, error) {
	b.fence.Next(b.key)
	prev, had := b.store.Get(id)
	if optimistic != nil && had {
		b.store.Update(id, *optimistic)
	}

	item, err := b.res.Update(ctx, id, in)
	if err != nil {
		if optimistic != nil && had {
			b.store.Update(id, prev)
		}
		return nil, err
	}
	b.store.Update(id, *item)
	return item, nil
}

// Remove drops the entity immediately and restores the previous list if the
// delete fails.
func (b *Binding[T, In]) Remove(ctx context.Context, id string) error {
	b.fence.Next(b.key)
	snapshot := b.store.Items()
	selected := b.store.SelectedID()
	b.store.Remove(id)

	if err := b.res.Delete(ctx, id); err != nil {
		b.store.Set(snapshot)
		b.store.Select(selected)
		return err
	}
	return nil
}

// LoadAll walks every page and returns the concatenated items without
// touching the store.
func (b *Binding[T, In]) LoadAll(ctx context.Context, perPage int) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		items, p, err := b.res.List(ctx, api.ListParams{Page: page, PerPage: perPage})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if !p.HasNext() || len(items) == 0 {
			return all, nil
		}
	}
}
