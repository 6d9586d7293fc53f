package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p4r4digm/todo-helper/internal/app"
	"github.com/p4r4digm/todo-helper/internal/config"
	"github.com/p4r4digm/todo-helper/internal/gitrepo"
	"github.com/p4r4digm/todo-helper/internal/kv"
	"github.com/p4r4digm/todo-helper/internal/tracker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "todohelper",
		Short: "Find unresolved TODOs in git repositories and file them as issues",
		Long: `todohelper scans local repository checkouts for TODO comments, stores
them in Redis and files an issue for each one on GitHub.

Repos move through the parsing and posting queues:
  todohelper add alice/proj        # queue a repo for parsing
  todohelper parse                 # scan the next queued repo
  todohelper post --limit 5        # file issues for tagged repos`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newAddCmd(),
		newScanCmd(),
		newParseCmd(),
		newEnqueueCmd(),
		newPostCmd(),
		newStatsCmd(),
		newIssuesCmd(),
	)
	return root
}

// openService connects to the configured backend. The returned func closes it.
func openService(ctx context.Context, mutate func(*config.Config)) (*app.Service, func(), error) {
	cfg := config.Load()
	if mutate != nil {
		mutate(&cfg)
	}

	backend, err := kv.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	creator, err := tracker.NewGitHub(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	svc := app.New(cfg, backend, gitrepo.New(cfg.ReposDir), creator, app.Options{Logger: slog.Default()})
	return svc, func() { _ = backend.Close() }, nil
}

// splitRepoArg parses "user/repo".
func splitRepoArg(arg string) (string, string, error) {
	user, repo, ok := strings.Cut(strings.TrimSpace(arg), "/")
	if !ok || user == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("expected user/repo, got %q", arg)
	}
	return user, repo, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
