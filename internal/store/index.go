package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/p4r4digm/todo-helper/internal/kv"
)

// Index tracks which entities exist using registry sets. Membership in a
// registry is what existence means; the entity hash is never consulted.
type Index struct {
	backend kv.Backend
}

func NewIndex(backend kv.Backend) *Index {
	return &Index{backend: backend}
}

// RegisterTop adds key to the top-level registry. Repeated calls are no-ops.
func (i *Index) RegisterTop(ctx context.Context, key string) error {
	if err := i.backend.SAdd(ctx, TopRegistry, key); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}
	return nil
}

// RegisterChild adds key to the child registry of parentKey.
func (i *Index) RegisterChild(ctx context.Context, parentKey, key string) error {
	if err := i.backend.SAdd(ctx, ChildRegistry(parentKey), key); err != nil {
		return fmt.Errorf("register %s under %s: %w", key, parentKey, err)
	}
	return nil
}

func (i *Index) stageTop(b kv.Batch, key string) {
	b.SAdd(TopRegistry, key)
}

func (i *Index) stageChild(b kv.Batch, parentKey, key string) {
	b.SAdd(ChildRegistry(parentKey), key)
}

func (i *Index) ExistsTop(ctx context.Context, key string) (bool, error) {
	ok, err := i.backend.SIsMember(ctx, TopRegistry, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return ok, nil
}

func (i *Index) CountTop(ctx context.Context) (int64, error) {
	n, err := i.backend.SCard(ctx, TopRegistry)
	if err != nil {
		return 0, fmt.Errorf("count repos: %w", err)
	}
	return n, nil
}

// ListTop returns every registered top-level key. The order carries no
// meaning; it is sorted only so repeated listings read the same.
func (i *Index) ListTop(ctx context.Context) ([]string, error) {
	keys, err := i.backend.SMembers(ctx, TopRegistry)
	if err != nil {
		return nil, fmt.Errorf("list repos: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListChildren returns the keys registered under parentKey, sorted.
func (i *Index) ListChildren(ctx context.Context, parentKey string) ([]string, error) {
	keys, err := i.backend.SMembers(ctx, ChildRegistry(parentKey))
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", parentKey, err)
	}
	sort.Strings(keys)
	return keys, nil
}
