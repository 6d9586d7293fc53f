package store

import (
	"context"
	"fmt"
)

// AddNewRepo saves a new repo with status New and returns it.
func (s *Store) AddNewRepo(ctx context.Context, userName, repoName string) (*Repo, error) {
	r := NewRepo(userName, repoName)
	if err := s.SaveRepo(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) RepoExists(ctx context.Context, userName, repoName string) (bool, error) {
	return s.index.ExistsTop(ctx, RepoKey(userName, repoName))
}

func (s *Store) RepoCount(ctx context.Context) (int64, error) {
	return s.index.CountTop(ctx)
}

// Repos loads every registered repo. Registry entries whose hash is empty
// are skipped.
func (s *Store) Repos(ctx context.Context) ([]*Repo, error) {
	keys, err := s.index.ListTop(ctx)
	if err != nil {
		return nil, err
	}
	repos := make([]*Repo, 0, len(keys))
	for _, key := range keys {
		r, found, err := s.LoadRepo(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load repos: %w", err)
		}
		if found {
			repos = append(repos, r)
		}
	}
	return repos, nil
}
