// Package tracker files composed issues with a remote issue tracker and
// records the results against the posted todos.
package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/p4r4digm/todo-helper/internal/issue"
)

// IssueCreator files one issue and returns its public URL.
type IssueCreator interface {
	CreateIssue(ctx context.Context, owner, repo string, iss issue.Issue) (string, error)
}

// GitHub files issues through the GitHub REST API.
type GitHub struct {
	client *github.Client
}

// NewGitHub builds a client authenticated with token. An empty token gives an
// anonymous client; an empty baseURL targets api.github.com.
func NewGitHub(ctx context.Context, token, baseURL string) (*GitHub, error) {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = parsed
	}
	return &GitHub{client: client}, nil
}

func (g *GitHub) CreateIssue(ctx context.Context, owner, repo string, iss issue.Issue) (string, error) {
	created, _, err := g.client.Issues.Create(ctx, owner, repo, &github.IssueRequest{
		Title: github.Ptr(iss.Title),
		Body:  github.Ptr(iss.Body),
	})
	if err != nil {
		return "", fmt.Errorf("create issue on %s/%s: %w", owner, repo, err)
	}
	return created.GetHTMLURL(), nil
}
