package queue

import (
	"context"
	"fmt"
	"slices"

	"github.com/p4r4digm/todo-helper/internal/kv"
	"github.com/p4r4digm/todo-helper/internal/store"
)

const DefaultPageSize = 25

// IssueURLResolver looks up the issue link recorded on a todo.
type IssueURLResolver interface {
	IssueURL(ctx context.Context, todoKey string) (string, error)
}

// PostedIssues is one page of the posted-todo history.
type PostedIssues struct {
	PageNumber int      `json:"pageNumber"`
	PageCount  int      `json:"pageCount"`
	Items      []string `json:"items"`
}

// Stats maps a queue's short name, or "repos", to its size.
type Stats map[string]int64

type Query struct {
	backend kv.Backend
	queues  *Queues
	urls    IssueURLResolver
}

func NewQuery(backend kv.Backend, urls IssueURLResolver) *Query {
	return &Query{backend: backend, queues: New(backend), urls: urls}
}

// GetPostedIssues returns page of the TodoGY history resolved to issue URLs.
// A page past the end is clamped to the last page. With recent set the
// history is read newest first. The list is only read, never consumed.
func (q *Query) GetPostedIssues(ctx context.Context, page int, recent bool, pageSize int) (PostedIssues, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	count, err := q.queues.Len(ctx, TodoGY)
	if err != nil {
		return PostedIssues{}, err
	}
	if count == 0 {
		return PostedIssues{PageNumber: 0, PageCount: 0, Items: []string{}}, nil
	}

	items, err := q.queues.Peek(ctx, TodoGY)
	if err != nil {
		return PostedIssues{}, err
	}
	// The list may have grown or shrunk between LLEN and LRANGE.
	n := len(items)
	if n == 0 {
		return PostedIssues{PageNumber: 0, PageCount: 0, Items: []string{}}, nil
	}

	pageCount := (n + pageSize - 1) / pageSize
	if page >= pageCount {
		page = pageCount - 1
	}
	if recent {
		slices.Reverse(items)
	}

	start := page * pageSize
	end := min(n, (page+1)*pageSize)
	urls := make([]string, 0, end-start)
	for _, key := range items[start:end] {
		url, err := q.urls.IssueURL(ctx, key)
		if err != nil {
			return PostedIssues{}, fmt.Errorf("posted issues: %w", err)
		}
		urls = append(urls, url)
	}

	return PostedIssues{PageNumber: page, PageCount: pageCount, Items: urls}, nil
}

// GetQueueStats reports the length of the work and history queues and the
// number of repo hashes in the keyspace. Child registries and todo hashes
// share the "repos::" prefix and are not counted.
func (q *Query) GetQueueStats(ctx context.Context) (Stats, error) {
	stats := Stats{}
	for _, name := range []Name{Cloning, Parsing, Posting, RepoGY} {
		n, err := q.queues.Len(ctx, name)
		if err != nil {
			return nil, err
		}
		stats[name.Short()] = n
	}

	keys, err := q.backend.ScanPrefix(ctx, store.TopRegistry+"::")
	if err != nil {
		return nil, fmt.Errorf("count repos: %w", err)
	}
	var repos int64
	for _, key := range keys {
		if store.IsRepoKey(key) {
			repos++
		}
	}
	stats["repos"] = repos
	return stats, nil
}
