// Package issue composes the title and body of the issue filed for a todo.
package issue

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/p4r4digm/todo-helper/internal/humanize"
	"github.com/p4r4digm/todo-helper/internal/store"
)

// ErrRender is returned whenever an issue cannot be rendered. The composed
// Issue is always empty in that case.
var ErrRender = errors.New("render issue")

// Issue is ready to hand to a tracker.
type Issue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Empty reports whether the issue carries no text.
func (i Issue) Empty() bool {
	return i.Title == "" && i.Body == ""
}

type Options struct {
	// Now is the reference time for the blame date phrase. Defaults to time.Now.
	Now func() time.Time
	// Rand picks the complaint and emphasis lines. Defaults to the global source.
	Rand *rand.Rand
}

type Composer struct {
	now  func() time.Time
	intN func(int) int
}

func NewComposer(opts Options) *Composer {
	c := &Composer{now: opts.Now, intN: rand.IntN}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.Rand != nil {
		c.intN = opts.Rand.IntN
	}
	return c
}

// Compose renders the issue for todo.
func (c *Composer) Compose(todo *store.Todo) (Issue, error) {
	data, err := c.fieldMap(todo)
	if err != nil {
		return Issue{}, fmt.Errorf("%w: %w", ErrRender, err)
	}

	t, err := render(title, data)
	if err != nil {
		return Issue{}, fmt.Errorf("%w: title: %w", ErrRender, err)
	}
	body, err := c.body(data)
	if err != nil {
		return Issue{}, fmt.Errorf("%w: body: %w", ErrRender, err)
	}
	return Issue{Title: t, Body: body}, nil
}

func (c *Composer) body(data map[string]string) (string, error) {
	h, err := render(header, data)
	if err != nil {
		return "", err
	}
	complaint, err := render(complaints[c.intN(len(complaints))], data)
	if err != nil {
		return "", err
	}
	emphasis, err := render(emphases[c.intN(len(emphases))], data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\n%s  %s", h, complaint, emphasis), nil
}

func (c *Composer) fieldMap(todo *store.Todo) (map[string]string, error) {
	since, err := humanize.Phrase(todo.BlameDate, c.now().UTC())
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"BlameUserName":      firstField(todo.BlameUser),
		"BlameDate":          strings.SplitN(todo.BlameDate, " ", 2)[0],
		"TimeSinceBlameDate": since,
		"FileName":           fileStem(todo.FilePath),
		"FilePath":           todo.FilePath,
		"LineNumber":         todo.LineNumber,
		"CommentBlock":       todo.CommentBlock,
	}, nil
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// fileStem is the basename up to its first dot.
func fileStem(path string) string {
	return strings.SplitN(store.Basename(path), ".", 2)[0]
}
