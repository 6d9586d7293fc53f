package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p4r4digm/todo-helper/internal/humanize"
	"github.com/p4r4digm/todo-helper/internal/issue"
	"github.com/p4r4digm/todo-helper/internal/queue"
	"github.com/p4r4digm/todo-helper/internal/store"
)

// ErrRepoNotFound is returned when a queued repo key has no stored repo.
var ErrRepoNotFound = errors.New("repo not found")

// Error codes recorded on a repo when posting fails.
const (
	ErrorCodePostFailed = "post_failed"
	ErrorCodeSaveFailed = "save_failed"
)

type Options struct {
	// Limit caps the issues filed per repo in one run. Zero means no cap.
	// A repo with todos left over stays Tagged and goes back on the posting
	// queue.
	Limit int
	// DryRun composes the issues and reports them without calling the
	// tracker or writing anything. The repo goes back on the posting queue.
	DryRun bool
	Logger *slog.Logger
	Now    func() time.Time
}

// Result summarises one PostRepo run.
type Result struct {
	RepoKey string `json:"repoKey"`
	Posted  int    `json:"posted"`
	Skipped int    `json:"skipped"`
	// Requeued is set when the repo went back on the posting queue.
	Requeued bool `json:"requeued,omitempty"`
	// Planned lists what a dry run would have filed.
	Planned []Planned `json:"planned,omitempty"`
}

// Planned is an issue a dry run would file.
type Planned struct {
	TodoKey string `json:"todoKey"`
	Title   string `json:"title"`
}

type Poster struct {
	store    *store.Store
	queues   *queue.Queues
	composer *issue.Composer
	creator  IssueCreator
	opts     Options
}

func NewPoster(st *store.Store, queues *queue.Queues, composer *issue.Composer, creator IssueCreator, opts Options) *Poster {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poster{store: st, queues: queues, composer: composer, creator: creator, opts: opts}
}

// PostNext takes the next repo off the posting queue and posts its todos.
// It returns queue.ErrEmpty when there is nothing to do.
func (p *Poster) PostNext(ctx context.Context) (Result, error) {
	key, err := p.queues.Pop(ctx, queue.Posting)
	if err != nil {
		return Result{}, err
	}
	r, found, err := p.store.LoadRepo(ctx, key)
	if err != nil {
		return Result{RepoKey: key}, err
	}
	if !found {
		p.opts.Logger.Warn("queued repo has no stored data", slog.String("repo", key))
		return Result{RepoKey: key}, fmt.Errorf("%w: %s", ErrRepoNotFound, key)
	}
	return p.PostRepo(ctx, r)
}

// PostRepo files an issue for every todo of r that has none yet. Todos whose
// issue cannot be rendered are skipped and logged. A tracker or backend
// failure marks the repo as errored and stops the run.
func (p *Poster) PostRepo(ctx context.Context, r *store.Repo) (Result, error) {
	logger := p.opts.Logger.With(slog.String("repo", r.Key()))
	res := Result{RepoKey: r.Key()}
	remaining := false

	for _, todo := range r.Todos {
		if todo.Posted() {
			continue
		}
		if p.opts.Limit > 0 && res.Posted >= p.opts.Limit {
			remaining = true
			break
		}

		todoKey := r.TodoKey(todo)
		iss, err := p.composer.Compose(todo)
		if err != nil {
			logger.Warn("skipping todo that cannot be rendered",
				slog.String("todo", todoKey),
				"error", err,
			)
			res.Skipped++
			continue
		}

		if p.opts.DryRun {
			res.Planned = append(res.Planned, Planned{TodoKey: todoKey, Title: iss.Title})
			res.Posted++
			logger.Info("would post todo", slog.String("todo", todoKey), slog.String("title", iss.Title))
			continue
		}

		url, err := p.creator.CreateIssue(ctx, r.UserName, r.RepoName, iss)
		if err != nil {
			p.markError(ctx, r, ErrorCodePostFailed, logger)
			return res, err
		}

		todo.IssueURL = url
		if err := p.store.SaveTodo(ctx, r, todo); err != nil {
			p.markError(ctx, r, ErrorCodeSaveFailed, logger)
			return res, err
		}
		if err := p.queues.Push(ctx, queue.TodoGY, todoKey); err != nil {
			return res, err
		}
		r.LastTodoPosted = todoKey
		r.LastTodoPostDate = p.opts.Now().UTC().Format(humanize.BlameDateLayout)
		res.Posted++
		logger.Info("posted todo", slog.String("todo", todoKey), slog.String("issue", url))
	}

	if p.opts.DryRun {
		if err := p.queues.Push(ctx, queue.Posting, r.Key()); err != nil {
			return res, err
		}
		res.Requeued = true
		logger.Info("dry run complete", slog.Int("planned", res.Posted), slog.Int("skipped", res.Skipped))
		return res, nil
	}

	if remaining {
		r.Status = store.StatusTagged
		r.ErrorCode = ""
		if err := p.store.SaveRepo(ctx, r); err != nil {
			return res, err
		}
		if err := p.queues.Push(ctx, queue.Posting, r.Key()); err != nil {
			return res, err
		}
		res.Requeued = true
		logger.Info("post limit reached, repo requeued", slog.Int("posted", res.Posted), slog.Int("skipped", res.Skipped))
		return res, nil
	}

	r.Status = store.StatusPosted
	r.ErrorCode = ""
	if err := p.store.SaveRepo(ctx, r); err != nil {
		return res, err
	}
	if err := p.queues.Push(ctx, queue.RepoGY, r.Key()); err != nil {
		return res, err
	}
	logger.Info("repo posted", slog.Int("posted", res.Posted), slog.Int("skipped", res.Skipped))
	return res, nil
}

func (p *Poster) markError(ctx context.Context, r *store.Repo, code string, logger *slog.Logger) {
	r.Status = store.StatusError
	r.ErrorCode = code
	if err := p.store.SaveRepo(ctx, r); err != nil {
		logger.Error("failed to record repo error", slog.String("code", code), "error", err)
	}
}
