// Package gitrepo finds TODO markers in local repository checkouts and
// attaches blame data to each of them.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/p4r4digm/todo-helper/internal/humanize"
	"github.com/p4r4digm/todo-helper/internal/store"
)

const (
	// DefaultMaxFileSize bounds the files that are read and blamed.
	DefaultMaxFileSize = 1 << 20

	blameDateEuroLayout = "02-01-2006 15:04:05"
)

// ErrNoHead is returned for repositories without any commit.
var ErrNoHead = errors.New("repository has no HEAD commit")

var (
	todoMarker    = regexp.MustCompile(`(//|#|--|;|/\*|^\s*\*)\s*TODO\b`)
	commentPrefix = regexp.MustCompile(`^\s*(//|#|--|;|/\*|\*)`)
)

// Snapshot is the result of scanning one commit.
type Snapshot struct {
	Branch    string
	CommitSHA string
	Todos     []*store.Todo
}

type Service struct {
	baseDir     string
	maxFileSize int64
	lockMu      sync.Mutex
	locks       map[string]*sync.Mutex
}

// New returns a scanner for checkouts stored as baseDir/{user}/{repo}.
func New(baseDir string) *Service {
	return &Service{
		baseDir:     baseDir,
		maxFileSize: DefaultMaxFileSize,
		locks:       make(map[string]*sync.Mutex),
	}
}

// RepoPath is where the checkout of userName/repoName is expected.
func (s *Service) RepoPath(userName, repoName string) string {
	return filepath.Join(s.baseDir, userName, repoName)
}

// Scan walks the HEAD tree of the checkout at path and returns every TODO
// found in a comment, blamed against HEAD.
func (s *Service) Scan(ctx context.Context, path string) (Snapshot, error) {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open repo %s: %w", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNoHead, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Snapshot{}, fmt.Errorf("load head commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load head tree: %w", err)
	}

	snap := Snapshot{
		Branch:    head.Name().Short(),
		CommitSHA: head.Hash().String(),
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		todos, err := s.scanFile(commit, f)
		if err != nil {
			return err
		}
		snap.Todos = append(snap.Todos, todos...)
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("walk tree: %w", err)
	}
	return snap, nil
}

func (s *Service) scanFile(commit *object.Commit, f *object.File) ([]*store.Todo, error) {
	if f.Size > s.maxFileSize {
		return nil, nil
	}
	if binary, err := f.IsBinary(); err != nil || binary {
		return nil, nil
	}
	lines, err := f.Lines()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}

	var todos []*store.Todo
	for i, line := range lines {
		if !todoMarker.MatchString(line) {
			continue
		}
		todos = append(todos, &store.Todo{
			FilePath:     f.Name,
			LineNumber:   strconv.Itoa(i + 1),
			CommentBlock: commentBlock(lines, i),
		})
	}
	if len(todos) == 0 {
		return nil, nil
	}

	blame, err := git.Blame(commit, f.Name)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", f.Name, err)
	}
	for _, todo := range todos {
		n, _ := strconv.Atoi(todo.LineNumber)
		if n < 1 || n > len(blame.Lines) {
			continue
		}
		applyBlame(todo, blame.Lines[n-1])
	}
	return todos, nil
}

func applyBlame(todo *store.Todo, line *git.Line) {
	when := line.Date.UTC()
	todo.BlameUser = fmt.Sprintf("%s <%s>", line.AuthorName, line.Author)
	todo.BlameDate = when.Format(humanize.BlameDateLayout)
	todo.BlameDateEuro = when.Format(blameDateEuroLayout)
	todo.CommitSHA = line.Hash.String()
}

// commentBlock is the TODO line plus the comment lines directly below it,
// stopping at code, a blank line or the next TODO.
func commentBlock(lines []string, at int) string {
	block := []string{strings.TrimSpace(lines[at])}
	for _, next := range lines[at+1:] {
		if !commentPrefix.MatchString(next) || todoMarker.MatchString(next) {
			break
		}
		block = append(block, strings.TrimSpace(next))
	}
	return strings.Join(block, "\n")
}

func (s *Service) repoLock(path string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[path]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[path] = lock
	return lock
}
