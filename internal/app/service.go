package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p4r4digm/todo-helper/internal/config"
	"github.com/p4r4digm/todo-helper/internal/gitrepo"
	"github.com/p4r4digm/todo-helper/internal/issue"
	"github.com/p4r4digm/todo-helper/internal/kv"
	"github.com/p4r4digm/todo-helper/internal/queue"
	"github.com/p4r4digm/todo-helper/internal/store"
	"github.com/p4r4digm/todo-helper/internal/tracker"
)

// TagDateLayout is the format of Repo.TagDate.
const TagDateLayout = "01/02/2006 15:04:05"

// Error codes recorded on a repo when scanning fails.
const (
	ErrorCodeScanFailed = "scan_failed"
	ErrorCodeNoHead     = "no_head"
)

// Backend is the key-value store the service runs against.
type Backend interface {
	kv.Backend
	Ping(ctx context.Context) error
}

// Scanner finds the todos of a checkout.
type Scanner interface {
	RepoPath(userName, repoName string) string
	Scan(ctx context.Context, path string) (gitrepo.Snapshot, error)
}

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	// Composer overrides the issue composer built from Now.
	Composer *issue.Composer
}

type Service struct {
	cfg     config.Config
	backend Backend
	store   *store.Store
	queues  *queue.Queues
	query   *queue.Query
	scanner Scanner
	poster  *tracker.Poster
	logger  *slog.Logger
	now     func() time.Time
}

func New(cfg config.Config, backend Backend, scanner Scanner, creator tracker.IssueCreator, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	composer := opts.Composer
	if composer == nil {
		composer = issue.NewComposer(issue.Options{Now: opts.Now})
	}

	st := store.New(backend)
	queues := queue.New(backend)
	return &Service{
		cfg:     cfg,
		backend: backend,
		store:   st,
		queues:  queues,
		query:   queue.NewQuery(backend, st),
		scanner: scanner,
		poster: tracker.NewPoster(st, queues, composer, creator, tracker.Options{
			Limit:  cfg.PostLimit,
			DryRun: cfg.DryRun,
			Logger: opts.Logger,
			Now:    opts.Now,
		}),
		logger: opts.Logger,
		now:    opts.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// AddRepo registers userName/repoName and queues it for parsing. An already
// registered repo is only queued again.
func (s *Service) AddRepo(ctx context.Context, userName, repoName string) (*store.Repo, error) {
	if err := validateName(userName, repoName); err != nil {
		return nil, err
	}
	r, found, err := s.store.LoadRepo(ctx, store.RepoKey(userName, repoName))
	if err != nil {
		return nil, err
	}
	if !found {
		if r, err = s.store.AddNewRepo(ctx, userName, repoName); err != nil {
			return nil, err
		}
	}
	if err := s.queues.Push(ctx, queue.Parsing, r.Key()); err != nil {
		return nil, err
	}
	return r, nil
}

// Enqueue pushes key onto the queue named name, given in short or full form.
func (s *Service) Enqueue(ctx context.Context, name, key string) error {
	q, err := queue.Parse(name)
	if err != nil {
		return invalidInput(err.Error())
	}
	if strings.TrimSpace(key) == "" {
		return invalidInput("key is required")
	}
	return s.queues.Push(ctx, q, key)
}

// ParseNext scans the next repo waiting on the parsing queue from its
// checkout under the configured repos directory.
func (s *Service) ParseNext(ctx context.Context) (*store.Repo, error) {
	key, err := s.queues.Pop(ctx, queue.Parsing)
	if err != nil {
		return nil, err
	}
	userName, repoName, ok := store.ParseRepoKey(key)
	if !ok {
		s.logger.Warn("dropping malformed repo key", slog.String("key", key))
		return nil, invalidInput(fmt.Sprintf("malformed repo key %q", key))
	}
	return s.ScanRepo(ctx, userName, repoName, "")
}

// ScanRepo scans the checkout at path, or the default checkout location when
// path is empty, tags the repo with the result and queues it for posting.
// Issue links already recorded on todos that are found again are kept.
func (s *Service) ScanRepo(ctx context.Context, userName, repoName, path string) (*store.Repo, error) {
	if err := validateName(userName, repoName); err != nil {
		return nil, err
	}
	logger := s.logger.With(slog.String("repo", store.RepoKey(userName, repoName)))

	r, found, err := s.store.LoadRepo(ctx, store.RepoKey(userName, repoName))
	if err != nil {
		return nil, err
	}
	if !found {
		r = store.NewRepo(userName, repoName)
	}
	r.Status = store.StatusParsing
	r.ErrorCode = ""
	if err := s.store.SaveRepo(ctx, r); err != nil {
		return nil, err
	}

	if path == "" {
		path = s.scanner.RepoPath(userName, repoName)
	}
	snap, err := s.scanner.Scan(ctx, path)
	if err != nil {
		code := ErrorCodeScanFailed
		if errors.Is(err, gitrepo.ErrNoHead) {
			code = ErrorCodeNoHead
		}
		r.Status = store.StatusError
		r.ErrorCode = code
		if saveErr := s.store.SaveRepo(ctx, r); saveErr != nil {
			logger.Error("failed to record scan error", "error", saveErr)
		}
		logger.Warn("scan failed", slog.String("path", path), slog.String("code", code), "error", err)
		return r, err
	}

	posted := make(map[string]string, len(r.Todos))
	for _, t := range r.Todos {
		if t.Posted() {
			posted[r.TodoKey(t)] = t.IssueURL
		}
	}
	for _, t := range snap.Todos {
		if url, ok := posted[r.TodoKey(t)]; ok && t.IssueURL == "" {
			t.IssueURL = url
		}
	}

	r.Branch = snap.Branch
	r.CommitSHA = snap.CommitSHA
	r.TagDate = s.now().UTC().Format(TagDateLayout)
	r.Status = store.StatusTagged
	r.Todos = snap.Todos
	if err := s.store.SaveRepo(ctx, r); err != nil {
		return nil, err
	}
	if err := s.queues.Push(ctx, queue.Posting, r.Key()); err != nil {
		return nil, err
	}
	logger.Info("repo tagged", slog.String("commit", r.CommitSHA), slog.Int("todos", len(r.Todos)))
	return r, nil
}

func (s *Service) PostNext(ctx context.Context) (tracker.Result, error) {
	return s.poster.PostNext(ctx)
}

// PostedIssues pages through the posted-issue history. A non-positive
// pageSize falls back to the configured page size.
func (s *Service) PostedIssues(ctx context.Context, page int, recent bool, pageSize int) (queue.PostedIssues, error) {
	if pageSize <= 0 {
		pageSize = s.cfg.PageSize
	}
	return s.query.GetPostedIssues(ctx, page, recent, pageSize)
}

func (s *Service) QueueStats(ctx context.Context) (queue.Stats, error) {
	return s.query.GetQueueStats(ctx)
}

// Repos lists every registered repo without its todos.
func (s *Service) Repos(ctx context.Context) ([]RepoView, error) {
	repos, err := s.store.Repos(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RepoView, 0, len(repos))
	for _, r := range repos {
		views = append(views, newRepoView(r, false))
	}
	return views, nil
}

// Repo returns one repo with its todos.
func (s *Service) Repo(ctx context.Context, userName, repoName string) (RepoView, error) {
	key := store.RepoKey(userName, repoName)
	r, found, err := s.store.LoadRepo(ctx, key)
	if err != nil {
		return RepoView{}, err
	}
	if !found {
		return RepoView{}, repoNotFound(key)
	}
	return newRepoView(r, true), nil
}

func validateName(userName, repoName string) error {
	for _, part := range []string{userName, repoName} {
		if strings.TrimSpace(part) == "" {
			return invalidInput("user and repo names are required")
		}
		if strings.Contains(part, "/") || strings.Contains(part, "::") {
			return invalidInput(fmt.Sprintf("invalid name %q", part))
		}
	}
	return nil
}
