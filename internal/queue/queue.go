// Package queue holds the named work queues. Each queue is an append-only
// list; the posted-history queues double as the log read by pagination.
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/p4r4digm/todo-helper/internal/kv"
)

// Name identifies one list in the backend.
type Name string

const (
	Cloning Name = "queues::cloning"
	Parsing Name = "queues::parsing"
	Posting Name = "queues::posting"
	// RepoGY records every repo whose todos have been posted.
	RepoGY Name = "queues::repogy"
	// TodoGY records every posted todo key in posting order.
	TodoGY Name = "queues::todogy"
)

// All lists every queue in a fixed order.
var All = []Name{Cloning, Parsing, Posting, RepoGY, TodoGY}

// ErrEmpty is returned by Pop when the queue holds nothing.
var ErrEmpty = errors.New("queue empty")

// ErrUnknownQueue is returned by Parse for names outside All.
var ErrUnknownQueue = errors.New("unknown queue")

// Parse accepts either the full list key or its short name ("posting").
func Parse(s string) (Name, error) {
	for _, n := range All {
		if string(n) == s || n.Short() == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQueue, s)
}

// Short is the name without the "queues::" prefix.
func (n Name) Short() string {
	return string(n)[len("queues::"):]
}

type Queues struct {
	backend kv.Backend
}

func New(backend kv.Backend) *Queues {
	return &Queues{backend: backend}
}

// Push appends key to the tail of q.
func (q *Queues) Push(ctx context.Context, name Name, key string) error {
	if err := q.backend.RPush(ctx, string(name), key); err != nil {
		return fmt.Errorf("push %s: %w", name.Short(), err)
	}
	return nil
}

// Pop removes and returns the head of q.
func (q *Queues) Pop(ctx context.Context, name Name) (string, error) {
	key, ok, err := q.backend.LPop(ctx, string(name))
	if err != nil {
		return "", fmt.Errorf("pop %s: %w", name.Short(), err)
	}
	if !ok {
		return "", ErrEmpty
	}
	return key, nil
}

func (q *Queues) Len(ctx context.Context, name Name) (int64, error) {
	n, err := q.backend.LLen(ctx, string(name))
	if err != nil {
		return 0, fmt.Errorf("length of %s: %w", name.Short(), err)
	}
	return n, nil
}

// Peek returns the whole of q without removing anything.
func (q *Queues) Peek(ctx context.Context, name Name) ([]string, error) {
	items, err := q.backend.LRange(ctx, string(name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name.Short(), err)
	}
	return items, nil
}
