// Package store maps Repo and Todo entities onto hashes in the key-value
// backend and keeps the registry sets that stand in for a schema.
package store

import (
	"context"
	"fmt"

	"github.com/p4r4digm/todo-helper/internal/kv"
)

type Store struct {
	backend kv.Backend
	index   *Index
}

func New(backend kv.Backend) *Store {
	return &Store{backend: backend, index: NewIndex(backend)}
}

func (s *Store) Index() *Index {
	return s.index
}

// SaveRepo upserts the repo and every todo it owns in one atomic batch.
// The repo key joins the top-level registry and each todo key joins the
// repo's child registry.
func (s *Store) SaveRepo(ctx context.Context, r *Repo) error {
	key := r.Key()
	err := s.backend.Atomic(ctx, func(b kv.Batch) {
		s.index.stageTop(b, key)
		stageFields(b, key, repoFields, r)
		for _, t := range r.Todos {
			s.stageTodo(b, key, t)
		}
	})
	if err != nil {
		return fmt.Errorf("save repo %s: %w", key, err)
	}
	return nil
}

// SaveTodo upserts a single todo under parent without rewriting the parent.
func (s *Store) SaveTodo(ctx context.Context, parent *Repo, t *Todo) error {
	parentKey := parent.Key()
	err := s.backend.Atomic(ctx, func(b kv.Batch) {
		s.stageTodo(b, parentKey, t)
	})
	if err != nil {
		return fmt.Errorf("save todo %s: %w", TodoKey(parentKey, t.FilePath, t.LineNumber), err)
	}
	return nil
}

func (s *Store) stageTodo(b kv.Batch, parentKey string, t *Todo) {
	key := TodoKey(parentKey, t.FilePath, t.LineNumber)
	s.index.stageChild(b, parentKey, key)
	stageFields(b, key, todoFields, t)
}

func stageFields[T any](b kv.Batch, key string, fields []field[T], entity *T) {
	for _, f := range fields {
		b.HSet(key, f.name, f.get(entity))
	}
}

// LoadRepo reads the repo hash at key along with every todo registered
// under it. found is false when the hash has no fields.
func (s *Store) LoadRepo(ctx context.Context, key string) (*Repo, bool, error) {
	r := &Repo{}
	found, err := loadFields(ctx, s.backend, key, repoFields, r)
	if err != nil || !found {
		return nil, false, err
	}

	childKeys, err := s.index.ListChildren(ctx, key)
	if err != nil {
		return nil, false, err
	}
	for _, childKey := range childKeys {
		t, ok, err := s.LoadTodo(ctx, childKey)
		if err != nil {
			return nil, false, err
		}
		if ok {
			r.Todos = append(r.Todos, t)
		}
	}
	return r, true, nil
}

// LoadTodo reads the todo hash at key. found is false when the hash has no
// fields.
func (s *Store) LoadTodo(ctx context.Context, key string) (*Todo, bool, error) {
	t := &Todo{}
	found, err := loadFields(ctx, s.backend, key, todoFields, t)
	if err != nil || !found {
		return nil, false, err
	}
	return t, true, nil
}

func loadFields[T any](ctx context.Context, backend kv.Backend, key string, fields []field[T], entity *T) (bool, error) {
	n, err := backend.HLen(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if n == 0 {
		return false, nil
	}
	for _, f := range fields {
		value, err := backend.HGet(ctx, key, f.name)
		if err != nil {
			return false, fmt.Errorf("load %s.%s: %w", key, f.name, err)
		}
		f.set(entity, value)
	}
	return true, nil
}

// IssueURL returns the issue link recorded on the todo at key, or "" when
// none has been filed.
func (s *Store) IssueURL(ctx context.Context, todoKey string) (string, error) {
	url, err := s.backend.HGet(ctx, todoKey, FieldIssueURL)
	if err != nil {
		return "", fmt.Errorf("read issue url of %s: %w", todoKey, err)
	}
	return url, nil
}
