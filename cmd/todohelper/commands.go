package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p4r4digm/todo-helper/internal/config"
	"github.com/p4r4digm/todo-helper/internal/queue"
	"github.com/p4r4digm/todo-helper/internal/tracker"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user/repo>",
		Short: "Register a repo and queue it for parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, repo, err := splitRepoArg(args[0])
			if err != nil {
				return err
			}
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := svc.AddRepo(cmd.Context(), user, repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s for parsing\n", r.Key())
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <user/repo> [path]",
		Short: "Scan a local checkout for TODOs and queue the repo for posting",
		Long: `Scan the git checkout at path, or at TODO_REPOS_DIR/user/repo when path
is omitted, and store every TODO found at HEAD under user/repo.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, repo, err := splitRepoArg(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := svc.ScanRepo(cmd.Context(), user, repo, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d todos at %s\n", r.Key(), len(r.Todos), r.CommitSHA)
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Scan the next repo waiting on the parsing queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			for {
				r, err := svc.ParseNext(cmd.Context())
				if errors.Is(err, queue.ErrEmpty) {
					fmt.Fprintln(cmd.OutOrStdout(), "parsing queue is empty")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d todos\n", r.Key(), len(r.Todos))
				if !all {
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Drain the parsing queue")
	return cmd
}

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <queue> <key>",
		Short: "Push a key onto a queue",
		Long: `Push a key onto one of the queues: cloning, parsing, posting, repogy,
todogy. The queues:: prefix is optional.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()
			return svc.Enqueue(cmd.Context(), args[0], args[1])
		},
	}
}

func newPostCmd() *cobra.Command {
	var (
		limit  int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "File issues for the repos waiting on the posting queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), func(cfg *config.Config) {
				if cmd.Flags().Changed("limit") {
					cfg.PostLimit = limit
				}
				if cmd.Flags().Changed("dry-run") {
					cfg.DryRun = dryRun
				}
			})
			if err != nil {
				return err
			}
			defer closeFn()

			// Repos requeued by a limit or a dry run wait for the next run.
			stats, err := svc.QueueStats(cmd.Context())
			if err != nil {
				return err
			}
			var results []tracker.Result
			for range stats[queue.Posting.Short()] {
				res, err := svc.PostNext(cmd.Context())
				if errors.Is(err, queue.ErrEmpty) {
					break
				}
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return printJSON(cmd, map[string]any{"repos": results})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum issues to file per repo (0 = no limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the issues that would be filed without filing them")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue lengths and the number of stored repos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := svc.QueueStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func newIssuesCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		recent   bool
	)
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Page through the links of filed issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeFn()

			issues, err := svc.PostedIssues(cmd.Context(), page, recent, pageSize)
			if err != nil {
				return err
			}
			return printJSON(cmd, issues)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Items per page (defaults to TODO_PAGE_SIZE)")
	cmd.Flags().BoolVar(&recent, "recent", false, "Newest issues first")
	return cmd
}
